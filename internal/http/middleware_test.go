package http

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/example/labor-tracker/internal/application"
)

func TestRequireIdentityRejectsAnonymousRequests(t *testing.T) {
	t.Parallel()

	handler := RequireIdentity(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler must not run without an identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/costs/live", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestRequireIdentityIgnoresBlankUserHeader(t *testing.T) {
	t.Parallel()

	handler := RequireIdentity(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler must not run for a blank identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/costs/live", nil)
	req.Header.Set(userIDHeader, "   ")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestRequireIdentityParsesPermissionHeader(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		header string
		want   []string
	}{
		{name: "empty", header: "", want: nil},
		{name: "single", header: "rates:view", want: []string{"rates:view"}},
		{name: "multiple with spaces", header: " rates:view , budgets:override ", want: []string{"rates:view", "budgets:override"}},
		{name: "blank segments dropped", header: ",, rates:view ,", want: []string{"rates:view"}},
		{name: "only separators", header: " , , ", want: nil},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var got application.AuthContext
			handler := RequireIdentity(discardLogger())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got, _ = AuthFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/costs/live", nil)
			req.Header.Set(userIDHeader, "worker-1")
			if tc.header != "" {
				req.Header.Set(permissionsHeader, tc.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got.UserID != "worker-1" {
				t.Fatalf("expected identity in context, got %+v", got)
			}
			if !reflect.DeepEqual(got.Permissions, tc.want) {
				t.Fatalf("expected permissions %v, got %v", tc.want, got.Permissions)
			}
		})
	}
}

func TestRequestLoggerInjectsContextLogger(t *testing.T) {
	t.Parallel()

	var sawLogger bool
	handler := RequestLogger(discardLogger())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		sawLogger = LoggerFromContext(r.Context()) != nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/costs/live", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !sawLogger {
		t.Fatal("expected a request scoped logger in the context")
	}
}
