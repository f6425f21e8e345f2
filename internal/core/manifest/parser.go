package manifest

import (
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Parser Functions
// =============================================================================

// Parse parses a raw YAML manifest, applies defaults and validates it.
// This is a pure function - no I/O, no side effects.
func Parse(yamlContent string) (*Manifest, error) {
	if strings.TrimSpace(yamlContent) == "" {
		return nil, ErrEmptyInput
	}

	var m Manifest
	if err := yaml.Unmarshal([]byte(yamlContent), &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	applyDefaults(&m)

	if err := Validate(&m); err != nil {
		return nil, err
	}

	return &m, nil
}

// applyDefaults fills optional fields with their documented defaults.
func applyDefaults(m *Manifest) {
	if m.Installer == "" {
		m.Installer = DefaultInstaller
	}
	if m.Port == 0 {
		m.Port = DefaultPort
	}
	if m.Workers == 0 {
		m.Workers = DefaultWorkers
	}
}

// Validate checks manifest invariants. Defaults are assumed to already be
// applied; a zero port or worker count is rejected here, not defaulted.
func Validate(m *Manifest) error {
	if strings.TrimSpace(m.Runtime) == "" {
		return ErrRuntimeRequired
	}
	if hasSpace(m.Runtime) {
		return fmt.Errorf("%w: runtime %q", ErrUnsafeValue, m.Runtime)
	}
	if strings.TrimSpace(m.Entrypoint) == "" {
		return ErrEntrypointRequired
	}
	if hasSpace(m.Entrypoint) {
		return fmt.Errorf("%w: entrypoint %q", ErrUnsafeValue, m.Entrypoint)
	}
	if !m.Installer.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownInstaller, m.Installer)
	}
	if m.Port < 1 || m.Port > 65535 {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, m.Port)
	}
	if m.Workers < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, m.Workers)
	}

	for k := range m.Env {
		if k == "" || hasSpace(k) || strings.Contains(k, "=") {
			return fmt.Errorf("%w: env key %q", ErrUnsafeValue, k)
		}
	}

	seen := make(map[string]bool, len(m.Packages))
	for _, p := range m.Packages {
		if strings.TrimSpace(p.Name) == "" {
			return ErrPackageName
		}
		if hasSpace(p.Name) {
			return fmt.Errorf("%w: package %q", ErrUnsafeValue, p.Name)
		}
		if strings.TrimSpace(p.Version) == "" {
			return fmt.Errorf("%w: %s", ErrPackageUnpinned, p.Name)
		}
		if hasSpace(p.Version) {
			return fmt.Errorf("%w: package %s version %q", ErrUnsafeValue, p.Name, p.Version)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: %s", ErrPackageDuplicate, p.Name)
		}
		seen[p.Name] = true
	}

	return nil
}

// hasSpace reports whether s contains any whitespace. Fields checked with it
// are spliced into build file lines, where an embedded newline or space would
// smuggle in extra instructions.
func hasSpace(s string) bool {
	return strings.ContainsFunc(s, unicode.IsSpace)
}
