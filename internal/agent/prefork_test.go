package agent

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The supervisor re-executes the current binary as its workers. Under go
// test that binary is the test binary, so TestMain doubles as the worker
// entrypoint when the mode variable is set.
const workerModeEnv = "AGENT_WORKER_MODE"

func TestMain(m *testing.M) {
	switch os.Getenv(workerModeEnv) {
	case "":
		os.Exit(m.Run())

	case "exit-3":
		// A worker that dies right after spawning.
		os.Exit(3)

	case "serve":
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		cfg, err := ConfigFromEnv()
		if err != nil {
			os.Exit(1)
		}
		if err := RunWorker(cfg, logger); err != nil {
			os.Exit(1)
		}
		os.Exit(0)

	default:
		os.Exit(1)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// Any worker death is fatal: the supervisor stops the rest and surfaces the
// failure instead of respawning.
func TestSupervisor_WorkerDeathIsFatal(t *testing.T) {
	t.Setenv(workerModeEnv, "exit-3")

	s := NewSupervisor(Config{Port: freePort(t), Workers: 2}, testLogger())
	err := s.Run()
	require.ErrorIs(t, err, ErrWorkerExited)
	assert.Contains(t, err.Error(), "code 3")
}

// The supervisor binds once and its workers answer on that port. SIGTERM
// drains the pool and Run returns nil.
func TestSupervisor_WorkersServeBoundPort(t *testing.T) {
	t.Setenv(workerModeEnv, "serve")

	port := freePort(t)
	s := NewSupervisor(Config{Port: port, Workers: 2}, testLogger())

	done := make(chan error, 1)
	go func() { done <- s.Run() }()

	url := fmt.Sprintf("http://127.0.0.1:%d/check-offline-status", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond, "no worker answered on the bound port")

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("supervisor did not shut down after SIGTERM")
	}
}

// A worker handed a real socket on fd 3 must serve the chat application on
// it and drain cleanly on SIGTERM.
func TestRunWorker_ServesOnInheritedListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	lnFile, err := ln.(*net.TCPListener).File()
	require.NoError(t, err)
	defer lnFile.Close()

	self, err := os.Executable()
	require.NoError(t, err)

	cmd := exec.Command(self)
	cmd.Env = append(os.Environ(), workerModeEnv+"=serve")
	cmd.ExtraFiles = []*os.File{lnFile}
	require.NoError(t, cmd.Start())

	url := "http://" + ln.Addr().String() + "/check-offline-status"
	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get(url)
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 5*time.Second, 50*time.Millisecond, "worker never answered on the inherited listener")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body, "status")

	require.NoError(t, cmd.Process.Signal(syscall.SIGTERM))
	assert.NoError(t, cmd.Wait())
}

// Without an inherited listener a worker refuses to start.
func TestRunWorker_NoInheritedListener(t *testing.T) {
	self, err := os.Executable()
	require.NoError(t, err)

	cmd := exec.Command(self)
	cmd.Env = append(os.Environ(), workerModeEnv+"=serve")
	require.NoError(t, cmd.Start())

	err = cmd.Wait()
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
}
