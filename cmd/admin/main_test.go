package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/accountdesk/internal/services"
	pkgauth "github.com/BradenHooton/accountdesk/pkg/auth"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		skipStrengthCheck = false
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestHashSecret_FromStdin(t *testing.T) {
	out, err := execute(t, "Negociacion-2025\n", "hash-secret")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, pkgauth.IsBcryptHash(hash))
	assert.NoError(t, pkgauth.CompareSecret(hash, "Negociacion-2025"))
}

func TestHashSecret_RejectsWeakSecret(t *testing.T) {
	_, err := execute(t, "short\n", "hash-secret")
	assert.Error(t, err)
}

func TestHashSecret_SkipStrengthCheck(t *testing.T) {
	out, err := execute(t, "short\n", "hash-secret", "--skip-strength-check")
	require.NoError(t, err)
	assert.NoError(t, pkgauth.CompareSecret(strings.TrimSpace(out), "short"))
}

func TestHashSecret_EmptyInput(t *testing.T) {
	_, err := execute(t, "", "hash-secret")
	assert.ErrorContains(t, err, "no secret")
}

func TestSessionSecret(t *testing.T) {
	first, err := execute(t, "", "session-secret")
	require.NoError(t, err)
	second, err := execute(t, "", "session-secret")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(strings.TrimSpace(first)), 32)
	assert.NotEqual(t, first, second)
}

func TestPrintActivity(t *testing.T) {
	last := time.Date(2025, 7, 26, 9, 30, 0, 0, time.UTC)
	activity := &services.OperatorActivity{
		Email:       "ana.quispe@example.com",
		LoginCount:  3,
		LastLoginAt: &last,
		Recent: []services.ActivityEntry{
			{Timestamp: "2025-07-26T09:30:00Z", Email: "ana.quispe@example.com", IPAddress: "10.0.0.7", UserAgent: "Firefox"},
		},
	}

	t.Run("human", func(t *testing.T) {
		var out bytes.Buffer
		activityCmd.SetOut(&out)
		require.NoError(t, printActivity(activityCmd, activity, "human"))

		assert.Contains(t, out.String(), "Login count: 3")
		assert.Contains(t, out.String(), "2025-07-26T09:30:00Z")
		assert.Contains(t, out.String(), "10.0.0.7")
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		activityCmd.SetOut(&out)
		require.NoError(t, printActivity(activityCmd, activity, "json"))

		assert.Contains(t, out.String(), `"login_count": 3`)
	})

	t.Run("no logins", func(t *testing.T) {
		var out bytes.Buffer
		activityCmd.SetOut(&out)
		require.NoError(t, printActivity(activityCmd, &services.OperatorActivity{Email: "new@example.com"}, "human"))

		assert.Contains(t, out.String(), "No logins recorded.")
	})
}
