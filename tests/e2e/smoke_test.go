package e2e

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Fixtures
// =============================================================================

// smokeManifest builds a workload that serves with Python's built-in HTTP
// server, so the image builds without any package installs.
const smokeManifest = `
name: smoke-test
runtime: python:3.11-slim
entrypoint: main.py
command: ["python", "-m", "http.server", "8080"]
port: 8080
workers: 1
`

var smokeFiles = map[string]string{
	"main.py": "print('placeholder entrypoint')\n",
}

// =============================================================================
// Smoke Tests
// =============================================================================

// TestE2E_HealthCheck verifies the server is running and responding.
func TestE2E_HealthCheck(t *testing.T) {
	resp := doJSON(t, "GET", baseURL+"/health", nil)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}

// TestE2E_ReadyCheck verifies the server is ready (Docker and DB connected).
func TestE2E_ReadyCheck(t *testing.T) {
	resp := doJSON(t, "GET", baseURL+"/ready", nil)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}

// TestE2E_WorkloadLifecycle creates, builds and publishes a workload.
func TestE2E_WorkloadLifecycle(t *testing.T) {
	workload := CreateWorkload(t, "smoke-workload", "1.0.0", smokeManifest)
	require.NotEmpty(t, workload.ID)
	assert.Equal(t, "smoke-workload", workload.Name)
	assert.False(t, workload.Published)
	assert.Empty(t, workload.ImageTag)

	// Publishing before a build must be rejected
	resp := doJSON(t, "POST", baseURL+"/api/v1/workloads/"+workload.ID+"/publish", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Build the image, then publish
	built := BuildWorkload(t, workload.ID, smokeFiles)
	require.NotEmpty(t, built.ImageTag)

	published := PublishWorkload(t, workload.ID)
	assert.True(t, published.Published)

	fetched := GetWorkload(t, workload.ID)
	assert.True(t, fetched.Published)
	assert.Equal(t, built.ImageTag, fetched.ImageTag)
}

// TestE2E_LaunchLifecycle runs the full launch state machine against a real
// container.
func TestE2E_LaunchLifecycle(t *testing.T) {
	workload := CreateWorkload(t, "smoke-launch", "1.0.0", smokeManifest)
	BuildWorkload(t, workload.ID, smokeFiles)
	PublishWorkload(t, workload.ID)

	launch := CreateLaunch(t, workload.ID)
	require.NotEmpty(t, launch.ID)
	assert.Equal(t, "pending", launch.Status)
	require.NotZero(t, launch.HostPort)

	started := StartLaunch(t, launch.ID)
	assert.Equal(t, "running", started.Status)
	require.NotEmpty(t, started.ContainerID)

	// The published port should answer HTTP once the server is up
	serviceURL := fmt.Sprintf("http://127.0.0.1:%d/", launch.HostPort)
	require.True(t, Eventually(30*time.Second, 500*time.Millisecond, func() bool {
		resp, err := http.Get(serviceURL)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}), "service never answered on %s", serviceURL)

	stopped := StopLaunch(t, launch.ID)
	assert.Equal(t, "stopped", stopped.Status)

	fetched := GetLaunch(t, launch.ID)
	assert.Equal(t, "stopped", fetched.Status)
	assert.NotNil(t, fetched.StoppedAt)

	DeleteLaunch(t, launch.ID)
}

// TestE2E_CannotStartAlreadyRunning verifies the start transition guard.
func TestE2E_CannotStartAlreadyRunning(t *testing.T) {
	workload := CreateWorkload(t, "smoke-conflict", "1.0.0", smokeManifest)
	BuildWorkload(t, workload.ID, smokeFiles)
	PublishWorkload(t, workload.ID)

	launch := CreateLaunch(t, workload.ID)
	StartLaunch(t, launch.ID)

	resp := doJSON(t, "POST", baseURL+"/api/v1/launches/"+launch.ID+"/start", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	fetched := GetLaunch(t, launch.ID)
	assert.Equal(t, "running", fetched.Status)

	StopLaunch(t, launch.ID)
	DeleteLaunch(t, launch.ID)
}

// TestE2E_CannotLaunchUnpublishedWorkload verifies the publish gate.
func TestE2E_CannotLaunchUnpublishedWorkload(t *testing.T) {
	workload := CreateWorkload(t, "smoke-unpublished", "1.0.0", smokeManifest)

	resp := doJSON(t, "POST", baseURL+"/api/v1/launches", map[string]string{
		"workload_id": workload.ID,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// =============================================================================
// Helpers
// =============================================================================

// Eventually retries a condition function until it returns true or timeout.
func Eventually(timeout, interval time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return false
}
