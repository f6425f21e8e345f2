package workers

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipway-sh/slipway/internal/core/domain"
	"github.com/slipway-sh/slipway/internal/shell/docker"
	"github.com/slipway-sh/slipway/internal/shell/store"
)

// stubDocker implements docker.Client with scripted inspect results.
type stubDocker struct {
	infos map[string]*docker.ContainerInfo
}

func (d *stubDocker) CreateContainer(spec docker.ContainerSpec) (string, error) { return "", nil }
func (d *stubDocker) StartContainer(id string) error                            { return nil }
func (d *stubDocker) StopContainer(id string, timeout *time.Duration) error     { return nil }
func (d *stubDocker) RemoveContainer(id string, opts docker.RemoveOptions) error {
	return nil
}

func (d *stubDocker) InspectContainer(id string) (*docker.ContainerInfo, error) {
	info, ok := d.infos[id]
	if !ok {
		return nil, docker.NewDockerError("InspectContainer", "container", id, "not found", docker.ErrContainerNotFound)
	}
	return info, nil
}

func (d *stubDocker) ListContainers(opts docker.ListOptions) ([]docker.ContainerInfo, error) {
	return nil, nil
}

func (d *stubDocker) ContainerLogs(id string, opts docker.LogOptions) (io.ReadCloser, error) {
	return nil, nil
}

func (d *stubDocker) BuildImage(spec docker.BuildSpec) error                 { return nil }
func (d *stubDocker) PullImage(image string, opts docker.PullOptions) error  { return nil }
func (d *stubDocker) ImageExists(image string) (bool, error)                 { return true, nil }
func (d *stubDocker) Ping() error                                            { return nil }
func (d *stubDocker) Close() error                                           { return nil }

func setupReconciler(t *testing.T) (*Reconciler, store.Store, *stubDocker) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	d := &stubDocker{infos: make(map[string]*docker.ContainerInfo)}
	return NewReconciler(s, d, DefaultReconcilerConfig(), nil), s, d
}

func runningLaunch(t *testing.T, s store.Store, containerID string) *domain.Launch {
	t.Helper()
	ctx := context.Background()

	w, err := domain.NewWorkload("Chat Backend", "1.0.0", "runtime: python:3.11-slim\nentrypoint: main.py\n")
	require.NoError(t, err)
	w.SetImage("slipway/chat-backend:1.0.0")
	require.NoError(t, w.Publish())
	require.NoError(t, s.CreateWorkload(ctx, w))

	l, err := domain.NewLaunch(*w, 8080, 1, nil)
	require.NoError(t, err)
	l.HostPort = 20001
	l.ContainerID = containerID
	require.NoError(t, l.Transition(domain.StatusStarting))
	require.NoError(t, l.Transition(domain.StatusRunning))
	require.NoError(t, s.CreateLaunch(ctx, l))
	return l
}

func TestReconciler_RunningContainerUntouched(t *testing.T) {
	r, s, d := setupReconciler(t)
	l := runningLaunch(t, s, "ctr_ok")
	d.infos["ctr_ok"] = &docker.ContainerInfo{ID: "ctr_ok", Status: docker.ContainerStatusRunning}

	r.RunCycle(context.Background())

	got, err := s.GetLaunch(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, got.Status)

	events, err := s.ListLaunchEvents(context.Background(), l.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestReconciler_CleanExitBecomesStopped(t *testing.T) {
	r, s, d := setupReconciler(t)
	l := runningLaunch(t, s, "ctr_exit0")
	d.infos["ctr_exit0"] = &docker.ContainerInfo{
		ID:       "ctr_exit0",
		Status:   docker.ContainerStatusExited,
		ExitCode: 0,
	}

	r.RunCycle(context.Background())

	got, err := s.GetLaunch(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStopped, got.Status)
	require.NotNil(t, got.StoppedAt)

	events, err := s.ListLaunchEvents(context.Background(), l.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventExited, events[0].Type)
	require.NotNil(t, events[0].ExitCode)
	assert.Equal(t, 0, *events[0].ExitCode)
}

func TestReconciler_NonZeroExitBecomesFailed(t *testing.T) {
	r, s, d := setupReconciler(t)
	l := runningLaunch(t, s, "ctr_exit1")
	d.infos["ctr_exit1"] = &docker.ContainerInfo{
		ID:       "ctr_exit1",
		Status:   docker.ContainerStatusExited,
		ExitCode: 1,
	}

	r.RunCycle(context.Background())

	got, err := s.GetLaunch(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "exited with code 1")

	events, err := s.ListLaunchEvents(context.Background(), l.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].ExitCode)
	assert.Equal(t, 1, *events[0].ExitCode)
}

// A container that exits cleanly while its launch is still starting cannot
// take the stopped transition. The launch must land in failed rather than
// stay wedged in starting with its host port held.
func TestReconciler_CleanExitBeforeRunningBecomesFailed(t *testing.T) {
	r, s, d := setupReconciler(t)
	ctx := context.Background()

	w, err := domain.NewWorkload("Chat Backend", "1.0.0", "runtime: python:3.11-slim\nentrypoint: main.py\n")
	require.NoError(t, err)
	w.SetImage("slipway/chat-backend:1.0.0")
	require.NoError(t, w.Publish())
	require.NoError(t, s.CreateWorkload(ctx, w))

	l, err := domain.NewLaunch(*w, 8080, 1, nil)
	require.NoError(t, err)
	l.HostPort = 20001
	l.ContainerID = "ctr_early_exit"
	require.NoError(t, l.Transition(domain.StatusStarting))
	require.NoError(t, s.CreateLaunch(ctx, l))

	d.infos["ctr_early_exit"] = &docker.ContainerInfo{
		ID:       "ctr_early_exit",
		Status:   docker.ContainerStatusExited,
		ExitCode: 0,
	}

	r.RunCycle(ctx)

	got, err := s.GetLaunch(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "before launch became running")

	ports, err := s.GetUsedHostPorts(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ports, 20001)
}

// A running launch whose container has disappeared is marked failed.
func TestReconciler_VanishedContainerBecomesFailed(t *testing.T) {
	r, s, _ := setupReconciler(t)
	l := runningLaunch(t, s, "ctr_gone")

	r.RunCycle(context.Background())

	got, err := s.GetLaunch(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "disappeared")
}

func TestReconciler_StartStop(t *testing.T) {
	r, _, _ := setupReconciler(t)
	r.config.Interval = 10 * time.Millisecond

	r.Start()
	time.Sleep(30 * time.Millisecond)
	r.Stop()
}
