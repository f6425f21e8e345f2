package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types/build"
)

// =============================================================================
// Image Build
// =============================================================================

// BuildImage builds an image from a rendered build file and its assets.
//
// The build context is assembled in memory: the Dockerfile plus every
// asset at its context path. The daemon's response stream is decoded so
// that a failing install step surfaces as an error and no image is tagged.
func (d *DockerClient) BuildImage(spec BuildSpec) error {
	ctx := context.Background()

	buildCtx, err := buildContext(spec)
	if err != nil {
		return NewDockerError("BuildImage", "image", spec.Tag, err.Error(), ErrImageBuildFailed)
	}

	resp, err := d.cli.ImageBuild(ctx, buildCtx, build.ImageBuildOptions{
		Tags:        []string{spec.Tag},
		Dockerfile:  "Dockerfile",
		Labels:      spec.Labels,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return NewDockerError("BuildImage", "image", spec.Tag, err.Error(), ErrImageBuildFailed)
	}
	defer resp.Body.Close()

	if err := decodeBuildStream(resp.Body); err != nil {
		return NewDockerError("BuildImage", "image", spec.Tag, err.Error(), ErrImageBuildFailed)
	}

	return nil
}

// buildContext assembles an in-memory tar archive holding the Dockerfile
// and the build assets.
func buildContext(spec BuildSpec) (io.Reader, error) {
	if strings.TrimSpace(spec.Dockerfile) == "" {
		return nil, fmt.Errorf("build file is empty")
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	files := map[string][]byte{"Dockerfile": []byte(spec.Dockerfile)}
	for path, content := range spec.Assets {
		files[path] = content
	}

	// Sorted entry order plus a fixed mtime keeps the context reproducible.
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		content := files[path]
		hdr := &tar.Header{
			Name:    path,
			Mode:    0644,
			Size:    int64(len(content)),
			ModTime: time.Unix(0, 0),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("write tar header for %s: %w", path, err)
		}
		if _, err := tw.Write(content); err != nil {
			return nil, fmt.Errorf("write tar entry for %s: %w", path, err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close tar: %w", err)
	}

	return &buf, nil
}

// buildStreamMessage is one JSON line of the daemon's build output.
type buildStreamMessage struct {
	Stream      string `json:"stream,omitempty"`
	ErrorMsg    string `json:"error,omitempty"`
	ErrorDetail *struct {
		Message string `json:"message"`
	} `json:"errorDetail,omitempty"`
}

// decodeBuildStream drains the build response, returning the first error
// the daemon reports (e.g. an unresolvable package aborting the install
// step).
func decodeBuildStream(r io.Reader) error {
	dec := json.NewDecoder(r)
	for {
		var msg buildStreamMessage
		if err := dec.Decode(&msg); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("decode build output: %w", err)
		}
		if msg.ErrorMsg != "" {
			if msg.ErrorDetail != nil && msg.ErrorDetail.Message != "" {
				return fmt.Errorf("%s", msg.ErrorDetail.Message)
			}
			return fmt.Errorf("%s", msg.ErrorMsg)
		}
	}
}
