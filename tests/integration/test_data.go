package integration

import (
	"fmt"
	"time"
)

// TestIdentity generates a unique allow-list identity using the current time
func TestIdentity(suffix string) string {
	return fmt.Sprintf("test-%d-%s@example.com", time.Now().UnixNano(), suffix)
}
