package board_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/agileboard/pkg/boardsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Helpers for the board service end-to-end tests: image build, container
 * setup and common account operations.
 */

const (
	testImageName = "agileboard-test:latest"
	testPassword  = "correct horse battery"
)

// TestMain builds the Docker image once before all tests and removes it
// afterwards.
func TestMain(m *testing.M) {
	if os.Getenv("AGILEBOARD_E2E") == "" {
		fmt.Fprintln(os.Stdout, "skipping e2e tests: set AGILEBOARD_E2E=1 to run them")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building Agileboard Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Agileboard Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/agileboard/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	cmd := exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName)
	_ = cmd.Run()
}

// setupBoardContainer starts the service with relaxed rate limits.
func setupBoardContainer(t *testing.T) string {
	return startContainer(t, map[string]string{
		"RATELIMIT_AUTH_REQUESTS":   "1000",
		"RATELIMIT_AUTH_BURST":      "1000",
		"RATELIMIT_INVITE_REQUESTS": "1000",
		"RATELIMIT_INVITE_BURST":    "1000",
		"RATELIMIT_PUBLIC_REQUESTS": "1000",
		"RATELIMIT_PUBLIC_BURST":    "1000",
	})
}

// setupBoardContainerWithDefaultRateLimits keeps production limits so the
// limiter itself can be tested.
func setupBoardContainerWithDefaultRateLimits(t *testing.T) string {
	return startContainer(t, nil)
}

func startContainer(t *testing.T, extraEnv map[string]string) string {
	t.Helper()
	ctx := context.Background()

	env := map[string]string{
		"ENV":        "test",
		"LOG_LEVEL":  "info",
		"LOG_FORMAT": "json",
		"BASE_URL":   "http://board.test",
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          env,
			WaitingFor: wait.ForHTTP("/readyz").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// signup registers email and returns a signed-in session.
func signup(t *testing.T, client *boardsdk.SDKClient, email string) *boardsdk.Session {
	t.Helper()

	_, err := client.Register(t.Context(), boardsdk.RegisterRequest{
		Email:    email,
		Name:     "User " + email,
		Password: testPassword,
	})
	require.NoError(t, err, "register %s", email)

	session, err := client.Login(t.Context(), email, testPassword)
	require.NoError(t, err, "login %s", email)
	return session
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *boardsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
