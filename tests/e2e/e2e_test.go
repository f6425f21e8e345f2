// Package e2e provides end-to-end tests for slipway.
//
// These tests require a running Docker daemon and will create/destroy
// real containers and images. They are skipped unless SLIPWAY_E2E=1.
// Run with:
//
//	SLIPWAY_E2E=1 go test -v -timeout 10m ./tests/e2e/...
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	corelaunch "github.com/slipway-sh/slipway/internal/core/launch"
	"github.com/slipway-sh/slipway/internal/shell/api"
	"github.com/slipway-sh/slipway/internal/shell/docker"
	"github.com/slipway-sh/slipway/internal/shell/store"
)

// =============================================================================
// Test Globals
// =============================================================================

var (
	testStore  store.Store
	testDocker docker.Client
	testClient *http.Client
	baseURL    string
	testServer *http.Server
)

// =============================================================================
// TestMain Setup
// =============================================================================

func TestMain(m *testing.M) {
	if os.Getenv("SLIPWAY_E2E") == "" {
		log.Println("E2E: SLIPWAY_E2E not set, skipping end-to-end tests")
		os.Exit(0)
	}

	code := setup()
	if code != 0 {
		os.Exit(code)
	}

	result := m.Run()

	teardown()

	os.Exit(result)
}

func setup() int {
	log.Println("E2E Setup: Initializing test environment...")

	// 1. Create temp database
	tmpDir, err := os.MkdirTemp("", "slipway_e2e_")
	if err != nil {
		log.Printf("Failed to create temp dir: %v", err)
		return 1
	}
	tmpDB := filepath.Join(tmpDir, "test.db")
	log.Printf("E2E Setup: Using database: %s", tmpDB)

	// 2. Create SQLite store
	s, err := store.NewSQLiteStore(tmpDB)
	if err != nil {
		log.Printf("Failed to create store: %v", err)
		return 1
	}
	testStore = s
	log.Println("E2E Setup: SQLite store initialized")

	// 3. Create Docker client
	d, err := docker.NewDockerClient("")
	if err != nil {
		log.Printf("Failed to create Docker client: %v", err)
		return 1
	}
	testDocker = d
	log.Println("E2E Setup: Docker client created")

	// 4. Verify Docker connection
	if err := d.Ping(); err != nil {
		log.Printf("Failed to ping Docker: %v", err)
		log.Println("Make sure Docker daemon is running")
		return 1
	}
	log.Println("E2E Setup: Docker daemon is reachable")

	// 5. Cleanup any leftover test containers
	log.Println("E2E Setup: Cleaning up any leftover test containers...")
	if err := CleanupAllTestResources(testDocker); err != nil {
		log.Printf("WARN: Failed to cleanup old containers: %v", err)
	}

	// 6. Create HTTP handler (open API, no tokens)
	handler := api.NewHandler(testStore, testDocker, nil, nil)
	log.Println("E2E Setup: HTTP handler created")

	// 7. Find an available port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Printf("Failed to find available port: %v", err)
		return 1
	}
	port := listener.Addr().(*net.TCPAddr).Port
	baseURL = fmt.Sprintf("http://127.0.0.1:%d", port)
	log.Printf("E2E Setup: Server will listen on port %d", port)

	// 8. Create HTTP server
	testServer = &http.Server{
		Handler: handler.Routes(),
	}

	// 9. Start server in goroutine
	go func() {
		if err := testServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()
	log.Println("E2E Setup: HTTP server started")

	// 10. Create HTTP client
	testClient = &http.Client{
		Timeout: 5 * time.Minute, // Image builds pull base images
	}

	// 11. Wait for server to be ready
	if err := waitForReady(baseURL+"/health", 10*time.Second); err != nil {
		log.Printf("Server failed to become ready: %v", err)
		return 1
	}
	log.Println("E2E Setup: Server is ready")

	log.Println("E2E Setup: Complete!")
	return 0
}

func teardown() {
	log.Println("E2E Teardown: Cleaning up...")

	if testServer != nil {
		testServer.Close()
		log.Println("E2E Teardown: HTTP server stopped")
	}

	if testDocker != nil {
		CleanupAllTestResources(testDocker)
		testDocker.Close()
		log.Println("E2E Teardown: Docker client closed")
	}

	if testStore != nil {
		testStore.Close()
		log.Println("E2E Teardown: Database closed")
	}

	log.Println("E2E Teardown: Complete!")
}

// waitForReady polls the health endpoint until it responds.
func waitForReady(url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}

// CleanupAllTestResources removes all slipway-managed containers.
func CleanupAllTestResources(d docker.Client) error {
	containers, err := d.ListContainers(docker.ListOptions{
		All: true,
		Filters: map[string]string{
			"label": corelaunch.LabelManaged + "=true",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	for _, c := range containers {
		timeout := 5 * time.Second
		_ = d.StopContainer(c.ID, &timeout)
		_ = d.RemoveContainer(c.ID, docker.RemoveOptions{Force: true, RemoveVolumes: true})
	}

	return nil
}

// =============================================================================
// API Client Helpers
// =============================================================================

// doJSON performs an HTTP request with a JSON body and returns the response.
func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := testClient.Do(req)
	if err != nil {
		t.Fatalf("HTTP %s %s failed: %v", method, url, err)
	}
	return resp
}

// decodeJSON decodes the response body into out and fails the test if the
// status does not match.
func decodeJSON(t *testing.T, resp *http.Response, wantStatus int, out any) {
	t.Helper()
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("Unexpected status: got=%d want=%d body=%s", resp.StatusCode, wantStatus, string(bodyBytes))
	}
	if out != nil {
		if err := json.Unmarshal(bodyBytes, out); err != nil {
			t.Fatalf("Failed to decode response: %v body=%s", err, string(bodyBytes))
		}
	}
}

// CreateWorkload creates a workload via the API.
func CreateWorkload(t *testing.T, name, version, manifest string) *api.WorkloadResponse {
	t.Helper()

	resp := doJSON(t, "POST", baseURL+"/api/v1/workloads", api.CreateWorkloadRequest{
		Name:     name,
		Version:  version,
		Manifest: manifest,
	})

	var result api.WorkloadResponse
	decodeJSON(t, resp, http.StatusCreated, &result)
	t.Logf("Created workload: %s (%s)", result.Name, result.ID)
	return &result
}

// GetWorkload gets a workload by ID.
func GetWorkload(t *testing.T, workloadID string) *api.WorkloadResponse {
	t.Helper()

	resp := doJSON(t, "GET", baseURL+"/api/v1/workloads/"+workloadID, nil)

	var result api.WorkloadResponse
	decodeJSON(t, resp, http.StatusOK, &result)
	return &result
}

// BuildWorkload builds the workload image from the given context files.
func BuildWorkload(t *testing.T, workloadID string, files map[string]string) *api.WorkloadResponse {
	t.Helper()

	resp := doJSON(t, "POST", baseURL+"/api/v1/workloads/"+workloadID+"/build", api.BuildWorkloadRequest{
		Files: files,
	})

	var result api.WorkloadResponse
	decodeJSON(t, resp, http.StatusOK, &result)
	t.Logf("Built workload image: %s", result.ImageTag)
	return &result
}

// PublishWorkload publishes a workload via the API.
func PublishWorkload(t *testing.T, workloadID string) *api.WorkloadResponse {
	t.Helper()

	resp := doJSON(t, "POST", baseURL+"/api/v1/workloads/"+workloadID+"/publish", nil)

	var result api.WorkloadResponse
	decodeJSON(t, resp, http.StatusOK, &result)
	t.Logf("Published workload: %s", workloadID)
	return &result
}

// CreateLaunch creates a launch for a workload.
func CreateLaunch(t *testing.T, workloadID string) *api.LaunchResponse {
	t.Helper()

	resp := doJSON(t, "POST", baseURL+"/api/v1/launches", api.CreateLaunchRequest{
		WorkloadID: workloadID,
	})

	var result api.LaunchResponse
	decodeJSON(t, resp, http.StatusCreated, &result)
	t.Logf("Created launch: %s (status=%s port=%d)", result.ID, result.Status, result.HostPort)
	return &result
}

// GetLaunch gets a launch by ID.
func GetLaunch(t *testing.T, launchID string) *api.LaunchResponse {
	t.Helper()

	resp := doJSON(t, "GET", baseURL+"/api/v1/launches/"+launchID, nil)

	var result api.LaunchResponse
	decodeJSON(t, resp, http.StatusOK, &result)
	return &result
}

// StartLaunch starts a launch via the API.
func StartLaunch(t *testing.T, launchID string) *api.LaunchResponse {
	t.Helper()

	resp := doJSON(t, "POST", baseURL+"/api/v1/launches/"+launchID+"/start", nil)

	var result api.LaunchResponse
	decodeJSON(t, resp, http.StatusOK, &result)
	t.Logf("Started launch: %s (status=%s)", result.ID, result.Status)
	return &result
}

// StopLaunch stops a launch via the API.
func StopLaunch(t *testing.T, launchID string) *api.LaunchResponse {
	t.Helper()

	resp := doJSON(t, "POST", baseURL+"/api/v1/launches/"+launchID+"/stop", nil)

	var result api.LaunchResponse
	decodeJSON(t, resp, http.StatusOK, &result)
	t.Logf("Stopped launch: %s (status=%s)", result.ID, result.Status)
	return &result
}

// DeleteLaunch deletes a launch via the API.
func DeleteLaunch(t *testing.T, launchID string) {
	t.Helper()

	resp := doJSON(t, "DELETE", baseURL+"/api/v1/launches/"+launchID, nil)
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Failed to delete launch: status=%d", resp.StatusCode)
	}
	t.Logf("Deleted launch: %s", launchID)
}
