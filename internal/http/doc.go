// Package http provides HTTP handlers and middleware for the labor tracker API.
//
// Caller identity arrives from the authenticating gateway through the
// `X-User-ID` and `X-Permissions` headers; the service itself never handles
// credentials. The router exposes the following endpoints:
//   - POST /timer/start, /timer/pause, /timer/resume, /timer/stop,
//     /timer/tasks, /timer/close-day and GET /timer/active: timer lifecycle
//     endpoints for the calling user, exchanging the `timeRecordDTO` payload
//     defined in timer_handler.go. Transitions with nothing to act on return
//     204 No Content.
//   - GET /costs/live, /costs/summary, /costs/forecast: cost views safe for
//     any authenticated caller. GET /costs/live/privileged and
//     /costs/summary/privileged additionally expose hourly rates and salaries
//     and require the `rates:view` permission.
//   - GET /budgets, POST /budgets, GET/PUT/DELETE /budgets/{id} and
//     GET /budgets/{id}/comparison: budget management exchanging the
//     `budgetDTO` payload defined in budget_handler.go. Mutations are limited
//     to the budget's creator or holders of `budgets:override`.
//   - GET /audit/history: the caller's own timer audit trail, newest first.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
