package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditRecord is one persisted, append-only entry of a completed login
type AuditRecord struct {
	ID         uuid.UUID     `db:"id"`
	Email      string        `db:"email"`
	OccurredAt time.Time     `db:"occurred_at"`
	ClientMeta AuditMetadata `db:"client_meta"`
}

// ClientMeta describes the client that performed an attempt
type ClientMeta struct {
	IPAddress string
	UserAgent string
	SessionID string
}

// Metadata converts client details to the stored JSONB form
func (c ClientMeta) Metadata() AuditMetadata {
	m := AuditMetadata{}
	if c.IPAddress != "" {
		m["ip_address"] = c.IPAddress
	}
	if c.UserAgent != "" {
		m["user_agent"] = c.UserAgent
	}
	if c.SessionID != "" {
		m["session_id"] = c.SessionID
	}
	return m
}

// AuditMetadata holds additional context for audit events
type AuditMetadata map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (am *AuditMetadata) Scan(value interface{}) error {
	if value == nil {
		*am = make(AuditMetadata)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return ErrBadRequest
	}

	var m map[string]interface{}
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*am = AuditMetadata(m)
	return nil
}

// Value implements driver.Valuer for JSONB
func (am AuditMetadata) Value() (driver.Value, error) {
	if am == nil {
		return nil, nil
	}
	return json.Marshal(map[string]interface{}(am))
}

// String returns the value stored under key when it is a string
func (am AuditMetadata) String(key string) string {
	s, _ := am[key].(string)
	return s
}
