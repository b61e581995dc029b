package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testConfig = Config{SigningKey: []byte("test-secret")}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, token string) (*httptest.ResponseRecorder, Viewer) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Viewer
	handler := mw(func(c echo.Context) error {
		got, _ = ViewerFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, got
}

func TestMiddlewareValidToken(t *testing.T) {
	viewer := Viewer{ID: "doc-1", Name: "刘医生", Role: "doctor", Organization: "吉林大学第二医院"}
	token, err := GenerateToken(testConfig, viewer, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	rec, got := doRequest(t, Middleware(testConfig), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.ID != "doc-1" || got.Role != "doctor" || got.Organization != viewer.Organization {
		t.Fatalf("viewer = %+v", got)
	}
}

func TestMiddlewareMissingHeader(t *testing.T) {
	rec, _ := doRequest(t, Middleware(testConfig), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareWrongSecret(t *testing.T) {
	token, err := GenerateToken(Config{SigningKey: []byte("other")}, Viewer{ID: "x"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := doRequest(t, Middleware(testConfig), token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareExpiredToken(t *testing.T) {
	token, err := GenerateToken(testConfig, Viewer{ID: "x"}, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := doRequest(t, Middleware(testConfig), token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name     string
		role     string
		allowed  []string
		wantCode int
	}{
		{"matching role", "doctor", []string{"doctor", "nurse"}, http.StatusOK},
		{"admin bypasses", "admin", []string{"doctor"}, http.StatusOK},
		{"mismatched role", "patient", []string{"doctor"}, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithViewer(req.Context(), Viewer{ID: "u", Role: tc.role}))
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := RequireRole(tc.allowed...)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := handler(c); err != nil {
				e.HTTPErrorHandler(err, c)
			}
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
		})
	}
}

func TestRequireRoleUnauthenticated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequireRole("doctor")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
