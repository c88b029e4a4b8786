package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		req := httptest.NewRequest("GET", "/api/chores", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		line := buf.String()
		if !strings.Contains(line, tt.level) {
			t.Errorf("status %d: log %q missing %s", tt.status, line, tt.level)
		}
		if !strings.Contains(line, "path=/api/chores") {
			t.Errorf("status %d: log %q missing path", tt.status, line)
		}
	}
}
