package models

import (
	"errors"
	"testing"
	"time"
)

func TestClientMeta_Metadata(t *testing.T) {
	meta := ClientMeta{IPAddress: "192.168.1.1", UserAgent: "curl/7.68.0"}.Metadata()

	if meta.String("ip_address") != "192.168.1.1" {
		t.Errorf("expected ip_address 192.168.1.1, got %v", meta["ip_address"])
	}
	if meta.String("user_agent") != "curl/7.68.0" {
		t.Errorf("expected user_agent curl/7.68.0, got %v", meta["user_agent"])
	}
	if _, ok := meta["session_id"]; ok {
		t.Error("expected empty session_id to be omitted")
	}
}

func TestAuditMetadata_ScanJSONB(t *testing.T) {
	var meta AuditMetadata
	if err := meta.Scan([]byte(`{"ip_address":"10.0.0.7","attempt":3}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if meta.String("ip_address") != "10.0.0.7" {
		t.Errorf("expected ip_address 10.0.0.7, got %v", meta["ip_address"])
	}
	if meta.String("attempt") != "" {
		t.Errorf("expected non-string value to read as empty, got %q", meta.String("attempt"))
	}

	var empty AuditMetadata
	if err := empty.Scan(nil); err != nil || empty == nil {
		t.Errorf("expected NULL to scan into an empty map, got %v (%v)", empty, err)
	}

	if err := empty.Scan(42); !errors.Is(err, ErrBadRequest) {
		t.Errorf("expected ErrBadRequest for unsupported type, got %v", err)
	}
}

func TestLockedError(t *testing.T) {
	err := &LockedError{Remaining: 12*time.Second + 100*time.Millisecond}

	if !errors.Is(err, ErrLocked) {
		t.Error("expected LockedError to match ErrLocked")
	}
	if got := err.RemainingSeconds(); got != 13 {
		t.Errorf("expected 13 seconds remaining, got %d", got)
	}
}

func TestStoreError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewStoreError("check allow-list", cause)

	if !errors.Is(err, ErrStore) {
		t.Error("expected StoreError to match ErrStore")
	}
	if !errors.Is(err, cause) {
		t.Error("expected StoreError to unwrap to its cause")
	}
	if again := NewStoreError("other", err); again != err {
		t.Error("expected an existing StoreError not to be wrapped twice")
	}
	if NewStoreError("op", nil) != nil {
		t.Error("expected nil for a nil cause")
	}
}
