package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/journalsync/pkg/api"
)

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		handler     http.HandlerFunc
		name        string
		wantStatus  int
		expectPanic bool
	}{
		{
			name: "no panic",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("success"))
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "string panic",
			handler: func(w http.ResponseWriter, r *http.Request) {
				panic("ledger exploded")
			},
			wantStatus:  http.StatusInternalServerError,
			expectPanic: true,
		},
		{
			name: "error panic",
			handler: func(w http.ResponseWriter, r *http.Request) {
				panic(io.ErrUnexpectedEOF)
			},
			wantStatus:  http.StatusInternalServerError,
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RecoveryMiddleware(logger)(tt.handler)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if !tt.expectPanic {
				assert.Equal(t, "success", w.Body.String())
				return
			}

			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			var resp api.Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, api.StatusError, resp.Status)
			assert.Equal(t, "internal server error", resp.Error)
		})
	}
}

func TestRecoveryMiddleware_LogsStackTrace(t *testing.T) {
	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelError}))

	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic for logging")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := logBuf.String()
	assert.Contains(t, out, "Panic recovered")
	assert.Contains(t, out, "test panic for logging")
	assert.Contains(t, out, "POST")
	assert.Contains(t, out, "/api/v1/sync")
	assert.Contains(t, out, "goroutine")
}
