package board_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/agileboard/pkg/boardsdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitLogin verifies that repeated failed logins from one IP are
// throttled once the auth burst is spent.
func TestRateLimitLogin(t *testing.T) {
	baseURL := setupBoardContainerWithDefaultRateLimits(t)
	client := boardsdk.NewSDKClient(baseURL)

	var throttled bool
	for i := range 15 {
		_, err := client.Login(t.Context(), "nobody@example.com", "wrong password")
		require.Error(t, err)

		status := boardsdk.StatusOf(err)
		if status == http.StatusTooManyRequests {
			require.GreaterOrEqual(t, i, 10, "throttled too early")
			throttled = true
			break
		}
		require.Equal(t, http.StatusUnauthorized, status)
	}
	require.True(t, throttled, "login was never rate limited")
}
