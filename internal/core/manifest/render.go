package manifest

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// Build File Rendering
// =============================================================================

// DefaultCommand starts the bundled process manager, which binds the
// listener and forks the worker pool.
var DefaultCommand = []string{"slipway-agent"}

// Environment variables the renderer owns. Values for these come from the
// manifest's port/workers fields, never from its env map.
const (
	EnvPort    = "PORT"
	EnvWorkers = "WEB_CONCURRENCY"
)

// Render produces the container build file for a manifest.
//
// Rendering is deterministic: packages and env keys are emitted in sorted
// order, so identical manifests always produce byte-identical build files
// and therefore reproducible image layers.
func Render(m *Manifest) (string, error) {
	if err := Validate(m); err != nil {
		return "", err
	}

	var b strings.Builder

	fmt.Fprintf(&b, "FROM %s\n", m.Runtime)
	b.WriteString("WORKDIR /app\n")

	if len(m.Packages) > 0 {
		install, err := InstallCommand(m.Installer, m.Packages)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "RUN %s\n", install)
	}

	fmt.Fprintf(&b, "COPY %s /app/%s\n", m.Entrypoint, m.Entrypoint)

	for _, k := range sortedEnvKeys(m.Env) {
		fmt.Fprintf(&b, "ENV %s=%q\n", k, m.Env[k])
	}
	fmt.Fprintf(&b, "ENV %s=%d\n", EnvPort, m.Port)
	fmt.Fprintf(&b, "ENV %s=%d\n", EnvWorkers, m.Workers)

	fmt.Fprintf(&b, "EXPOSE %d\n", m.Port)

	cmd := m.Command
	if len(cmd) == 0 {
		cmd = DefaultCommand
	}
	fmt.Fprintf(&b, "CMD [%s]\n", quoteJoin(cmd))

	return b.String(), nil
}

// InstallCommand renders the single dependency-install step for the given
// installer. Packages are sorted by name; a resolution failure of any
// listed package fails the build step and no image is produced.
func InstallCommand(installer Installer, packages []Package) (string, error) {
	pkgs := make([]Package, len(packages))
	copy(pkgs, packages)
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })

	switch installer {
	case InstallerPip:
		specs := make([]string, 0, len(pkgs))
		for _, p := range pkgs {
			specs = append(specs, fmt.Sprintf("%s==%s", p.Name, p.Version))
		}
		return "pip install --no-cache-dir " + strings.Join(specs, " "), nil

	case InstallerApk:
		specs := make([]string, 0, len(pkgs))
		for _, p := range pkgs {
			specs = append(specs, fmt.Sprintf("%s=%s", p.Name, p.Version))
		}
		return "apk add --no-cache " + strings.Join(specs, " "), nil

	case InstallerApt:
		specs := make([]string, 0, len(pkgs))
		for _, p := range pkgs {
			specs = append(specs, fmt.Sprintf("%s=%s", p.Name, p.Version))
		}
		return "apt-get update && apt-get install -y --no-install-recommends " +
			strings.Join(specs, " ") + " && rm -rf /var/lib/apt/lists/*", nil

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownInstaller, installer)
	}
}

func sortedEnvKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		// The renderer owns these; manifest env must not shadow them.
		if k == EnvPort || k == EnvWorkers {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func quoteJoin(parts []string) string {
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		quoted = append(quoted, fmt.Sprintf("%q", p))
	}
	return strings.Join(quoted, ", ")
}
