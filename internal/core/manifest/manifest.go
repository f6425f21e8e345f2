package manifest

// =============================================================================
// Manifest Types
// =============================================================================

// Defaults applied when the manifest omits optional fields.
const (
	// DefaultPort is the container listen port when the manifest does not
	// set one.
	DefaultPort = 8080

	// DefaultWorkers is the static worker count of the process manager.
	DefaultWorkers = 1

	// DefaultInstaller resolves package installs when the manifest does
	// not name one.
	DefaultInstaller = InstallerPip
)

// Installer selects how the dependency list is installed at build time.
type Installer string

const (
	InstallerPip Installer = "pip"
	InstallerApk Installer = "apk"
	InstallerApt Installer = "apt"
)

// IsValid checks if the installer is supported.
func (i Installer) IsValid() bool {
	switch i {
	case InstallerPip, InstallerApk, InstallerApt:
		return true
	}
	return false
}

// Package is one pinned dependency. Versions are required to be exact so
// that two builds of the same manifest install the same bytes.
type Package struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
}

// Manifest describes a launchable workload: a fixed base runtime, a pinned
// dependency list installed once at build time, a single entrypoint file
// copied into the image, and the listener/worker configuration the process
// manager starts with.
type Manifest struct {
	Name       string            `yaml:"name" json:"name"`
	Runtime    string            `yaml:"runtime" json:"runtime"`
	Installer  Installer         `yaml:"installer,omitempty" json:"installer,omitempty"`
	Packages   []Package         `yaml:"packages,omitempty" json:"packages,omitempty"`
	Entrypoint string            `yaml:"entrypoint" json:"entrypoint"`
	Command    []string          `yaml:"command,omitempty" json:"command,omitempty"`
	Port       int               `yaml:"port,omitempty" json:"port,omitempty"`
	Workers    int               `yaml:"workers,omitempty" json:"workers,omitempty"`
	Env        map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}
