package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jwebster45206/critfumble/internal/services"
	"github.com/jwebster45206/critfumble/pkg/tables"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	logger := testLogger()

	tests := []struct {
		name           string
		setupCache     func() services.Cache
		repo           *tables.Repository
		expectedStatus int
		expectedHealth string
		expectedCache  string
		expectedTables string
	}{
		{
			name: "all healthy",
			setupCache: func() services.Cache {
				return services.NewMockCache()
			},
			repo:           testRepo(),
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedCache:  "healthy",
			expectedTables: "healthy",
		},
		{
			name: "unhealthy cache",
			setupCache: func() services.Cache {
				mockCache := services.NewMockCache()
				mockCache.SetPingError(errors.New("connection failed"))
				return mockCache
			},
			repo:           testRepo(),
			expectedStatus: http.StatusOK,
			expectedHealth: "degraded",
			expectedCache:  "unhealthy",
			expectedTables: "healthy",
		},
		{
			name:           "no cache configured",
			setupCache:     func() services.Cache { return nil },
			repo:           testRepo(),
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedCache:  "disabled",
			expectedTables: "healthy",
		},
		{
			name:           "no tables",
			setupCache:     func() services.Cache { return nil },
			repo:           nil,
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "unhealthy",
			expectedCache:  "disabled",
			expectedTables: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.setupCache(), tt.repo, logger)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var response HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if response.Status != tt.expectedHealth {
				t.Errorf("Expected health status %s, got %s", tt.expectedHealth, response.Status)
			}
			if response.Components["cache"] != tt.expectedCache {
				t.Errorf("Expected cache status %s, got %s", tt.expectedCache, response.Components["cache"])
			}
			if response.Components["tables"] != tt.expectedTables {
				t.Errorf("Expected tables status %s, got %s", tt.expectedTables, response.Components["tables"])
			}
			if response.Service != "critfumble" {
				t.Errorf("Expected service critfumble, got %s", response.Service)
			}
			if time.Since(response.Timestamp) > time.Minute {
				t.Errorf("Timestamp too old: %v", response.Timestamp)
			}
		})
	}
}
