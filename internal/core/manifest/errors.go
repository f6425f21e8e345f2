// Package manifest parses and validates workload manifests and renders
// them into deterministic container build files. All functions are pure.
package manifest

import "errors"

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrEmptyInput         = errors.New("manifest is empty")
	ErrInvalidYAML        = errors.New("manifest is not valid YAML")
	ErrRuntimeRequired    = errors.New("runtime image is required")
	ErrEntrypointRequired = errors.New("entrypoint is required")
	ErrPackageName        = errors.New("package name is required")
	ErrPackageUnpinned    = errors.New("package version must be pinned")
	ErrPackageDuplicate   = errors.New("duplicate package name")
	ErrInvalidPort        = errors.New("port must be between 1 and 65535")
	ErrInvalidWorkers     = errors.New("workers must be at least 1")
	ErrUnknownInstaller   = errors.New("unknown package installer")
	ErrUnsafeValue        = errors.New("value must not contain whitespace")
)
