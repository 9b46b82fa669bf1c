package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/services"
)

type fakeDB struct{ err error }

func (f fakeDB) Check(ctx context.Context) error { return f.err }

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		wantStatus int
		wantHealth string
	}{
		{name: "connected", wantStatus: http.StatusOK, wantHealth: "healthy"},
		{name: "database down", dbErr: errors.New("dial tcp: connection refused"), wantStatus: http.StatusInternalServerError, wantHealth: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := services.NewHealthService(fakeDB{err: tt.dbErr}, "test-version", zap.NewNop())
			mux := http.NewServeMux()
			NewHealthHandler(svc, zap.NewNop()).RegisterRoutes(mux)

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var resp services.HealthStatus
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("expected status %q, got %q", tt.wantHealth, resp.Status)
			}
		})
	}
}

func TestHealthHandler_NoAuthRequired(t *testing.T) {
	handler := NewHealthHandler(&stubHealthService{status: &services.HealthStatus{Status: "healthy", Database: "connected"}}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	handler.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}
