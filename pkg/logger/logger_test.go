package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONCarriesComponentAndTrace(t *testing.T) {
	var buf bytes.Buffer
	log := New(LoggingConfig{Level: "debug", Format: "json", Output: &buf}).Component("loans")

	ctx := WithTraceID(context.Background(), "trace-1")
	log.WithContext(ctx).Info("borrowed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "loans", entry["component"])
	assert.Equal(t, "trace-1", entry["trace_id"])
	assert.Equal(t, "borrowed", entry["msg"])
}

func TestNewFallsBackToInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(LoggingConfig{Level: "chatty", Output: &buf})

	log.Debug("hidden")
	assert.Zero(t, buf.Len())

	log.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogRequestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(LoggingConfig{Level: "warn", Format: "json", Output: &buf})

	log.LogRequest(context.Background(), http.MethodGet, "/api/books", http.StatusOK, time.Millisecond)
	assert.Zero(t, buf.Len(), "2xx requests log at debug")

	log.LogRequest(context.Background(), http.MethodGet, "/api/books/99", http.StatusNotFound, time.Millisecond)
	assert.Contains(t, buf.String(), `"status":404`)
}

func TestGetTraceIDMissing(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}
