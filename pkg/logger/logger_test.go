package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newBufferLogger(t *testing.T, format string) (*Logger, *bytes.Buffer) {
	t.Helper()
	l, err := NewLogger(&Config{Level: DebugLevel, Format: format, AppName: "FloreriaDelivery", Version: "1.0.0"})
	require.NoError(t, err)

	var buf bytes.Buffer
	l.SetOutput(&buf)
	return l, &buf
}

func TestLogger_JSONFieldChaining(t *testing.T) {
	l, buf := newBufferLogger(t, "json")
	quoteID := primitive.NewObjectID()

	base := l.WithRequestID("req-1")
	base.WithQuoteID(quoteID).WithError(errors.New("boom")).Error("quote failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "quote failed", entry["message"])
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "FloreriaDelivery", entry["app"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, quoteID.Hex(), entry["quote_id"])
	assert.Equal(t, "boom", entry["error"])

	// Chaining never mutates the parent logger.
	buf.Reset()
	base.Info("plain")
	var plain map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &plain))
	assert.Equal(t, "req-1", plain["request_id"])
	assert.NotContains(t, plain, "quote_id")
	assert.NotContains(t, plain, "error")
}

func TestLogger_TextFormatter(t *testing.T) {
	l, buf := newBufferLogger(t, "text")

	l.WithFields(map[string]interface{}{"commune": "Recoleta", "fee": 2990}).Info("fee calculated")

	line := buf.String()
	assert.Contains(t, line, "[INFO] [FloreriaDelivery] fee calculated")
	assert.Contains(t, line, "commune=Recoleta fee=2990")
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.NotContains(t, line, "\033[")
}

func TestLogger_LogAPIRequestLevels(t *testing.T) {
	l, buf := newBufferLogger(t, "json")

	for status, level := range map[int]string{200: "info", 404: "warning", 503: "error"} {
		buf.Reset()
		l.LogAPIRequest("GET", "/api/v1/delivery/fee", status, 15*time.Millisecond, "127.0.0.1")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, level, entry["level"], status)
		assert.Equal(t, "api_request", entry["type"])
		assert.EqualValues(t, status, entry["status_code"])
	}
}

func TestLogger_LogQuoteEvent(t *testing.T) {
	l, buf := newBufferLogger(t, "json")
	quoteID := primitive.NewObjectID()

	l.LogQuoteEvent(quoteID, "quote_created", map[string]interface{}{"fee": 2990})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "quote_event", entry["type"])
	assert.Equal(t, "quote_created", entry["event"])
	assert.Equal(t, quoteID.Hex(), entry["quote_id"])
	assert.EqualValues(t, 2990, entry["fee"])
}

func TestLogger_WithContext(t *testing.T) {
	l, buf := newBufferLogger(t, "json")
	quoteID := primitive.NewObjectID()

	ctx := ContextWithRequestID(context.Background(), "req-42")
	ctx = ContextWithQuoteID(ctx, quoteID)
	assert.Equal(t, "req-42", RequestIDFromContext(ctx))

	l.WithContext(ctx).Info("with context")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, quoteID.Hex(), entry["quote_id"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(t, "json")
	l.SetLevel(WarnLevel)

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.NotZero(t, buf.Len())
}
