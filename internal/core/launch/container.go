package launch

import (
	"fmt"
	"sort"

	"github.com/slipway-sh/slipway/internal/core/domain"
	"github.com/slipway-sh/slipway/internal/core/manifest"
)

// =============================================================================
// Container Plan
// =============================================================================

// Labels applied to every container slipway creates.
const (
	LabelManaged  = "sh.slipway.managed"
	LabelWorkload = "sh.slipway.workload"
	LabelLaunch   = "sh.slipway.launch"
)

// PortBinding mirrors the runtime port binding shape for planning purposes.
type PortBinding struct {
	ContainerPort int
	HostPort      int
	Protocol      string
	HostIP        string
}

// Plan is a complete, runtime-agnostic container specification for a
// launch. The shell converts it 1:1 into a Docker create call.
type Plan struct {
	Name          string
	Image         string
	Env           map[string]string
	Labels        map[string]string
	Ports         []PortBinding
	RestartPolicy string
}

// BuildPlan derives the container plan for a launch.
//
// The container binds 0.0.0.0:<hostPort> to the manifest's listen port,
// PORT and WEB_CONCURRENCY are injected so the in-container process
// manager sees the listener and worker configuration, and the restart
// policy is "no": when the supervised process exits, the container stays
// down until an external orchestrator decides otherwise.
func BuildPlan(l *domain.Launch) (*Plan, error) {
	if l.ImageTag == "" {
		return nil, domain.ErrWorkloadNoImage
	}
	if l.HostPort == 0 {
		return nil, fmt.Errorf("launch %s has no host port assigned", l.ID)
	}

	env := map[string]string{
		manifest.EnvPort:    fmt.Sprintf("%d", l.ContainerPort),
		manifest.EnvWorkers: fmt.Sprintf("%d", l.Workers),
	}
	for _, k := range sortedKeys(l.Env) {
		if k == manifest.EnvPort || k == manifest.EnvWorkers {
			continue
		}
		env[k] = l.Env[k]
	}

	return &Plan{
		Name:  ContainerName(l.ID),
		Image: l.ImageTag,
		Env:   env,
		Labels: map[string]string{
			LabelManaged:  "true",
			LabelWorkload: l.WorkloadID,
			LabelLaunch:   l.ID,
		},
		Ports: []PortBinding{
			{
				ContainerPort: l.ContainerPort,
				HostPort:      l.HostPort,
				Protocol:      "tcp",
				HostIP:        "0.0.0.0",
			},
		},
		RestartPolicy: "no",
	}, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
