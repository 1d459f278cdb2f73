package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vidtube/backend/internal/logging"
)

func TestRespondErrorLogsUnknownErrorOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := logging.WithLogger(httptest.NewRequest("GET", "/", nil).Context(), logger)

	rec := httptest.NewRecorder()
	respondError(ctx, rec, errors.New("pool exhausted"))

	if rec.Code != 500 {
		t.Fatalf("expected status 500 got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "pool exhausted") {
		t.Fatalf("internal detail leaked to the client: %s", rec.Body.String())
	}

	errorLines := 0
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, `"level":"ERROR"`) {
			errorLines++
		}
	}
	if errorLines != 1 {
		t.Fatalf("expected exactly one error log entry, got %d:\n%s", errorLines, buf.String())
	}
}
