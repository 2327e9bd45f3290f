package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestAuditLogger_FailedAttemptIsWarning(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogAuthAttempt(AuditEvent{
		EventType:     "login_failed",
		Identity:      SanitizedEmail("ana@example.com"),
		IPAddress:     "10.0.0.7",
		FailureReason: "invalid_secret",
		Metadata:      map[string]string{"locked": "false"},
	})

	line := decodeLine(t, &buf)
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "audit", line["msg"])
	assert.Equal(t, "auth", line["audit_type"])
	assert.Equal(t, "a**@*******.com", line["identity"])
	assert.Equal(t, "invalid_secret", line["failure_reason"])
	assert.Equal(t, "false", line["locked"])
	assert.NotContains(t, line, "user_agent")
}

func TestAuditLogger_Lookup(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogLookup(AuditEvent{EventType: "account_lookup", Success: true, Metadata: map[string]string{"key": "1275583"}})

	line := decodeLine(t, &buf)
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "lookup", line["audit_type"])
	assert.Equal(t, "1275583", line["key"])
	assert.Equal(t, true, line["success"])
}
