package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		roles   []string
		require []string
		wantErr bool
	}{
		{"matching role", []string{RoleNurse}, Clinical, false},
		{"admin passes", []string{RoleAdmin}, []string{RoleDoctor}, false},
		{"secretary blocked from clinical", []string{RoleSecretary}, Clinical, true},
		{"no roles", nil, Staff, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/admissions", nil)
			req = req.WithContext(WithUser(context.Background(), "u", "", tt.roles))
			c := e.NewContext(req, httptest.NewRecorder())

			err := RequireRole(tt.require...)(func(c echo.Context) error { return nil })(c)
			if tt.wantErr {
				he, ok := err.(*echo.HTTPError)
				if !ok || he.Code != http.StatusForbidden {
					t.Fatalf("expected 403, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
