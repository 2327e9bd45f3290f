package models

import (
	"github.com/BradenHooton/accountdesk/pkg/format"
)

// AccountRecord is an immutable snapshot of one account row, keyed by column
type AccountRecord map[string]format.Value

// LookupStatus is the state of the lookup state machine
type LookupStatus string

const (
	LookupNoQuery   LookupStatus = "no_query"
	LookupSearching LookupStatus = "searching"
	LookupFound     LookupStatus = "found"
	LookupNotFound  LookupStatus = "not_found"
	LookupError     LookupStatus = "error"
)

// LookupSessionState holds the last explicit search of a session
type LookupSessionState struct {
	Status           LookupStatus
	LastSubmittedKey string
	Record           AccountRecord
	Reason           string
}

// Reset returns the state to NoQuery
func (s *LookupSessionState) Reset() {
	*s = LookupSessionState{Status: LookupNoQuery}
}

// Settled reports whether key was already answered and must not be fetched again
func (s *LookupSessionState) Settled(key string) bool {
	if s.LastSubmittedKey != key {
		return false
	}
	return s.Status == LookupFound || s.Status == LookupNotFound
}
