package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler keeps the last slog record for assertions.
type recordingHandler struct {
	last slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.last = r.Clone()
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
		body   string
	}{
		{"success with body", http.MethodGet, "/registrations", http.StatusOK, `{"data":[]}`},
		{"created", http.MethodPost, "/events/ev-1/registrations", http.StatusCreated, ""},
		{"failure", http.MethodGet, "/registrations/reg-1", http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingHandler{}
			handler := LoggingMiddleware(slog.New(rec), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					_, _ = w.Write([]byte(tt.body))
				}
			}))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(tt.method, "http://test"+tt.path, nil))

			require.Equal(t, tt.status, rr.Code)
			require.Equal(t, "http request", rec.last.Message)

			attrs := make(map[string]slog.Value)
			rec.last.Attrs(func(a slog.Attr) bool {
				attrs[a.Key] = a.Value
				return true
			})
			assert.Equal(t, tt.method, attrs["method"].String())
			assert.Equal(t, tt.path, attrs["path"].String())
			assert.Equal(t, int64(tt.status), attrs["status"].Int64())
			assert.Equal(t, int64(len(tt.body)), attrs["bytes"].Int64())
			assert.GreaterOrEqual(t, attrs["duration"].Duration(), time.Duration(0))
		})
	}
}
