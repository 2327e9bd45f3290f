//go:build integration

package routes_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/accountdesk/internal/handlers"
	"github.com/BradenHooton/accountdesk/internal/services"
	"github.com/BradenHooton/accountdesk/tests/integration"
)

func setupServer(t *testing.T) *integration.TestServer {
	t.Helper()
	ctx := context.Background()

	testDB, err := integration.SetupTestDatabase(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testDB.Teardown(context.Background())
	})
	require.NoError(t, integration.SeedAccounts(ctx, testDB.Pool, integration.AccountsTable))

	ts, err := integration.NewTestServer(testDB.DB, sharedSecret)
	require.NoError(t, err)
	t.Cleanup(ts.Close)
	return ts
}

func TestIntegration_OperatorFlow(t *testing.T) {
	ts := setupServer(t)
	ctx := context.Background()

	_, err := ts.Admin.AddMember(ctx, operator)
	require.NoError(t, err)

	b, err := ts.NewBrowser()
	require.NoError(t, err)

	resp, err := b.Request(http.MethodGet, "/session", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.NotEmpty(t, b.CSRFToken())

	resp, err = b.Request(http.MethodPost, "/auth/login", handlers.LoginRequest{Email: operator, Secret: sharedSecret})
	require.NoError(t, err)
	var sess handlers.SessionResponse
	require.NoError(t, integration.ParseJSONResponse(resp, &sess))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, sess.Authenticated)
	assert.Equal(t, int64(1), sess.LoginCount)

	resp, err = b.Request(http.MethodPost, "/lookup", handlers.LookupRequest{Key: " 1275583 "})
	require.NoError(t, err)
	var view services.LookupView
	require.NoError(t, integration.ParseJSONResponse(resp, &view))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "found", string(view.Status))
	assert.Equal(t, "1275583", view.Key)
	assert.NotEmpty(t, view.Fields)

	resp, err = b.Request(http.MethodPost, "/lookup", handlers.LookupRequest{Key: "9999999"})
	require.NoError(t, err)
	require.NoError(t, integration.ParseJSONResponse(resp, &view))
	assert.Equal(t, "not_found", string(view.Status))

	activity, err := ts.Admin.Activity(ctx, operator, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), activity.LoginCount)
	assert.Len(t, activity.Recent, 1)
}

func TestIntegration_DisabledMemberIsRejected(t *testing.T) {
	ts := setupServer(t)
	ctx := context.Background()

	_, err := ts.Admin.AddMember(ctx, operator)
	require.NoError(t, err)
	require.NoError(t, ts.Admin.SetMemberActive(ctx, operator, false))

	b, err := ts.NewBrowser()
	require.NoError(t, err)
	resp, err := b.Request(http.MethodGet, "/session", nil)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = b.Request(http.MethodPost, "/auth/login", handlers.LoginRequest{Email: operator, Secret: sharedSecret})
	require.NoError(t, err)
	code, err := integration.GetErrorCode(resp)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", code)

	_, err = ts.Credentials.GetLoginCounter(ctx, operator)
	assert.Error(t, err)
}

func TestIntegration_HealthReportsDatabase(t *testing.T) {
	ts := setupServer(t)

	resp, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	var health handlers.HealthResponse
	require.NoError(t, integration.ParseJSONResponse(resp, &health))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.Checks["credentials"])
}
