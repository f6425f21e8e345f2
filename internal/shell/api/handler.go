// Package api provides HTTP handlers for the slipway control API.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/slipway-sh/slipway/internal/core/domain"
	corelaunch "github.com/slipway-sh/slipway/internal/core/launch"
	"github.com/slipway-sh/slipway/internal/core/manifest"
	"github.com/slipway-sh/slipway/internal/shell/docker"
	"github.com/slipway-sh/slipway/internal/shell/store"
)

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the control API.
type Handler struct {
	store     store.Store
	docker    docker.Client
	logger    *slog.Logger
	auth      *TokenAuth
	portRange corelaunch.PortRange
}

// NewHandler creates a new API handler. A nil auth leaves the API open.
func NewHandler(s store.Store, d docker.Client, auth *TokenAuth, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	return &Handler{
		store:     s,
		docker:    d,
		logger:    l,
		auth:      auth,
		portRange: corelaunch.DefaultPortRange(),
	}
}

// SetPortRange overrides the host port range used for launch scheduling.
func (h *Handler) SetPortRange(pr corelaunch.PortRange) {
	h.portRange = pr
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)
	r.Get("/openapi.json", h.handleOpenAPI)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if h.auth != nil {
			r.Use(h.auth.Middleware)
		}

		r.Route("/workloads", func(r chi.Router) {
			r.Post("/", h.handleCreateWorkload)
			r.Get("/", h.handleListWorkloads)
			r.Get("/{id}", h.handleGetWorkload)
			r.Put("/{id}", h.handleUpdateWorkload)
			r.Delete("/{id}", h.handleDeleteWorkload)
			r.Post("/{id}/publish", h.handlePublishWorkload)
			r.Post("/{id}/build", h.handleBuildWorkload)
		})

		r.Route("/launches", func(r chi.Router) {
			r.Post("/", h.handleCreateLaunch)
			r.Get("/", h.handleListLaunches)
			r.Get("/{id}", h.handleGetLaunch)
			r.Delete("/{id}", h.handleDeleteLaunch)
			r.Post("/{id}/start", h.handleStartLaunch)
			r.Post("/{id}/stop", h.handleStopLaunch)
			r.Get("/{id}/logs", h.handleLaunchLogs)
			r.Get("/{id}/events", h.handleLaunchEvents)
		})
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	checks["database"] = "ok"

	if err := h.docker.Ping(); err != nil {
		checks["docker"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}
	checks["docker"] = "ok"

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Workload Handlers
// =============================================================================

func (h *Handler) handleCreateWorkload(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	if _, err := manifest.Parse(req.Manifest); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid manifest: "+err.Error(), "validation_error")
		return
	}

	workload, err := domain.NewWorkload(req.Name, req.Version, req.Manifest)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	workload.Description = req.Description

	if err := h.store.CreateWorkload(r.Context(), workload); err != nil {
		if errors.Is(err, store.ErrDuplicateSlug) {
			h.writeError(w, http.StatusConflict, "a workload with this name already exists", "duplicate_slug")
			return
		}
		h.logger.Error("failed to create workload", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create workload", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusCreated, workloadToResponse(workload))
}

func (h *Handler) handleGetWorkload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	workload, err := h.store.GetWorkload(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "workload not found", "workload_not_found")
			return
		}
		h.logger.Error("failed to get workload", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get workload", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, workloadToResponse(workload))
}

func (h *Handler) handleListWorkloads(w http.ResponseWriter, r *http.Request) {
	opts := listOptionsFromQuery(r)

	workloads, err := h.store.ListWorkloads(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list workloads", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list workloads", "internal_error")
		return
	}

	resp := ListWorkloadsResponse{
		Workloads: make([]WorkloadResponse, 0, len(workloads)),
		Total:     len(workloads),
		Limit:     opts.Limit,
		Offset:    opts.Offset,
	}
	for i := range workloads {
		resp.Workloads = append(resp.Workloads, workloadToResponse(&workloads[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpdateWorkload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	workload, err := h.store.GetWorkload(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "workload not found", "workload_not_found")
			return
		}
		h.logger.Error("failed to get workload", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get workload", "internal_error")
		return
	}

	// Published workloads are immutable; launches depend on their content.
	if workload.Published {
		h.writeError(w, http.StatusConflict, "published workloads cannot be updated", "workload_published")
		return
	}

	var req UpdateWorkloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	if req.Name != "" {
		if err := domain.ValidateName(req.Name); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
			return
		}
		workload.Name = req.Name
		workload.Slug = domain.Slugify(req.Name)
	}
	if req.Version != "" {
		if err := domain.ValidateVersion(req.Version); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
			return
		}
		workload.Version = req.Version
	}
	if req.Manifest != "" {
		if _, err := manifest.Parse(req.Manifest); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid manifest: "+err.Error(), "validation_error")
			return
		}
		workload.Manifest = req.Manifest
		// Content changed; a previously built image no longer matches.
		workload.ImageTag = ""
	}
	if req.Description != "" {
		workload.Description = req.Description
	}
	workload.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateWorkload(r.Context(), workload); err != nil {
		if errors.Is(err, store.ErrDuplicateSlug) {
			h.writeError(w, http.StatusConflict, "a workload with this name already exists", "duplicate_slug")
			return
		}
		h.logger.Error("failed to update workload", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update workload", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, workloadToResponse(workload))
}

func (h *Handler) handleDeleteWorkload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.store.GetWorkload(r.Context(), id); err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "workload not found", "workload_not_found")
			return
		}
		h.logger.Error("failed to get workload", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get workload", "internal_error")
		return
	}

	launches, err := h.store.ListLaunchesByWorkload(r.Context(), id, store.ListOptions{Limit: 1})
	if err != nil {
		h.logger.Error("failed to check launches", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to check launches", "internal_error")
		return
	}
	if len(launches) > 0 {
		h.writeError(w, http.StatusConflict, "workload has launches", "workload_in_use")
		return
	}

	if err := h.store.DeleteWorkload(r.Context(), id); err != nil {
		h.logger.Error("failed to delete workload", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete workload", "internal_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePublishWorkload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	workload, err := h.store.GetWorkload(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "workload not found", "workload_not_found")
			return
		}
		h.logger.Error("failed to get workload", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get workload", "internal_error")
		return
	}

	if err := workload.Publish(); err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyPublished):
			h.writeError(w, http.StatusConflict, err.Error(), "already_published")
		case errors.Is(err, domain.ErrPublishRequiresImage):
			h.writeError(w, http.StatusConflict, err.Error(), "image_not_built")
		default:
			h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		}
		return
	}

	if err := h.store.UpdateWorkload(r.Context(), workload); err != nil {
		h.logger.Error("failed to publish workload", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to publish workload", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, workloadToResponse(workload))
}

func (h *Handler) handleBuildWorkload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	workload, err := h.store.GetWorkload(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "workload not found", "workload_not_found")
			return
		}
		h.logger.Error("failed to get workload", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get workload", "internal_error")
		return
	}

	var req BuildWorkloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	m, err := manifest.Parse(workload.Manifest)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid manifest: "+err.Error(), "validation_error")
		return
	}

	if _, ok := req.Files[m.Entrypoint]; !ok {
		h.writeError(w, http.StatusBadRequest, "build files must include the entrypoint "+m.Entrypoint, "validation_error")
		return
	}

	dockerfile, err := manifest.Render(m)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to render build file: "+err.Error(), "validation_error")
		return
	}

	// The daemon may run on a host that has never seen the runtime base.
	// Pull it up front so a build failure means the build failed, not the
	// registry fetch buried inside it.
	present, err := h.docker.ImageExists(m.Runtime)
	if err != nil {
		h.logger.Error("failed to check runtime image", "image", m.Runtime, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to check runtime image", "internal_error")
		return
	}
	if !present {
		if err := h.docker.PullImage(m.Runtime, docker.PullOptions{}); err != nil {
			h.logger.Error("runtime image pull failed", "image", m.Runtime, "error", err)
			h.writeError(w, http.StatusUnprocessableEntity, "runtime image pull failed: "+err.Error(), "pull_failed")
			return
		}
	}

	tag := corelaunch.ImageTag(workload.Slug, workload.Version)
	assets := make(map[string][]byte, len(req.Files))
	for path, content := range req.Files {
		assets[path] = []byte(content)
	}

	spec := docker.BuildSpec{
		Tag:        tag,
		Dockerfile: dockerfile,
		Assets:     assets,
		Labels: map[string]string{
			corelaunch.LabelManaged:  "true",
			corelaunch.LabelWorkload: workload.ID,
		},
	}

	if err := h.docker.BuildImage(spec); err != nil {
		h.logger.Error("image build failed", "workload_id", workload.ID, "tag", tag, "error", err)
		h.writeError(w, http.StatusUnprocessableEntity, "image build failed: "+err.Error(), "build_failed")
		return
	}

	workload.SetImage(tag)
	if err := h.store.UpdateWorkload(r.Context(), workload); err != nil {
		h.logger.Error("failed to record image tag", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to record image tag", "internal_error")
		return
	}

	h.logger.Info("workload image built", "workload_id", workload.ID, "tag", tag)
	h.writeJSON(w, http.StatusOK, workloadToResponse(workload))
}

// =============================================================================
// Launch Handlers
// =============================================================================

func (h *Handler) handleCreateLaunch(w http.ResponseWriter, r *http.Request) {
	var req CreateLaunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	workload, err := h.store.GetWorkload(r.Context(), req.WorkloadID)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "workload not found", "workload_not_found")
			return
		}
		h.logger.Error("failed to get workload", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get workload", "internal_error")
		return
	}

	m, err := manifest.Parse(workload.Manifest)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "stored manifest is invalid", "internal_error")
		return
	}

	workers := req.Workers
	if workers == 0 {
		workers = m.Workers
	}

	launch, err := domain.NewLaunch(*workload, m.Port, workers, req.Env)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrWorkloadNotPublished), errors.Is(err, domain.ErrWorkloadNoImage):
			h.writeError(w, http.StatusConflict, err.Error(), "workload_not_ready")
		default:
			h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		}
		return
	}

	// Assign the host port at creation time so it shows up immediately and
	// stays stable across restarts of this launch.
	used, err := h.store.GetUsedHostPorts(r.Context())
	if err != nil {
		h.logger.Error("failed to list used ports", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to assign host port", "internal_error")
		return
	}
	hostPort, err := corelaunch.SelectHostPort(h.portRange, used, req.HostPort)
	if err != nil {
		if errors.Is(err, corelaunch.ErrPortInUse) || errors.Is(err, corelaunch.ErrPortOutOfRange) {
			h.writeError(w, http.StatusConflict, err.Error(), "port_unavailable")
			return
		}
		h.logger.Error("failed to select host port", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to assign host port", "internal_error")
		return
	}
	launch.HostPort = hostPort

	if err := h.store.CreateLaunch(r.Context(), launch); err != nil {
		h.logger.Error("failed to create launch", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create launch", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusCreated, launchToResponse(launch))
}

func (h *Handler) handleGetLaunch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	launch, err := h.store.GetLaunch(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "launch not found", "launch_not_found")
			return
		}
		h.logger.Error("failed to get launch", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get launch", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, launchToResponse(launch))
}

func (h *Handler) handleListLaunches(w http.ResponseWriter, r *http.Request) {
	opts := listOptionsFromQuery(r)

	var launches []domain.Launch
	var err error
	if workloadID := r.URL.Query().Get("workload_id"); workloadID != "" {
		launches, err = h.store.ListLaunchesByWorkload(r.Context(), workloadID, opts)
	} else {
		launches, err = h.store.ListLaunches(r.Context(), opts)
	}
	if err != nil {
		h.logger.Error("failed to list launches", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list launches", "internal_error")
		return
	}

	resp := ListLaunchesResponse{
		Launches: make([]LaunchResponse, 0, len(launches)),
		Total:    len(launches),
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	}
	for i := range launches {
		resp.Launches = append(resp.Launches, launchToResponse(&launches[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDeleteLaunch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	launch, err := h.store.GetLaunch(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "launch not found", "launch_not_found")
			return
		}
		h.logger.Error("failed to get launch", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get launch", "internal_error")
		return
	}

	if allowed, reason := corelaunch.CanDelete(launch.Status); !allowed {
		h.writeError(w, http.StatusConflict, reason, "invalid_transition")
		return
	}

	// Remove the container if one was ever created. Force handles the
	// stopped-but-present case.
	if launch.ContainerID != "" {
		if err := h.docker.RemoveContainer(launch.ContainerID, docker.RemoveOptions{Force: true}); err != nil {
			if !errors.Is(err, docker.ErrContainerNotFound) {
				h.logger.Warn("failed to remove container", "container_id", launch.ContainerID, "error", err)
			}
		}
	}

	if err := h.store.DeleteLaunch(r.Context(), id); err != nil {
		h.logger.Error("failed to delete launch", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete launch", "internal_error")
		return
	}

	h.logger.Info("launch deleted", "launch_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStartLaunch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	launch, err := h.store.GetLaunch(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "launch not found", "launch_not_found")
			return
		}
		h.logger.Error("failed to get launch", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get launch", "internal_error")
		return
	}

	startPath := corelaunch.DetermineStartPath(launch.Status)
	if !startPath.Valid {
		h.writeError(w, http.StatusConflict, startPath.ErrorReason, "invalid_transition")
		return
	}

	// The image can vanish between publish and start (docker image prune,
	// a fresh daemon host). Catch that here rather than as a create error.
	present, err := h.docker.ImageExists(launch.ImageTag)
	if err != nil {
		h.logger.Error("failed to check launch image", "image", launch.ImageTag, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to check launch image", "internal_error")
		return
	}
	if !present {
		h.writeError(w, http.StatusConflict, "image "+launch.ImageTag+" is not present, rebuild the workload", "image_missing")
		return
	}

	for _, status := range startPath.Transitions {
		if err := launch.Transition(status); err != nil {
			h.logger.Error("failed to transition", "to", status, "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to start launch", "internal_error")
			return
		}
	}
	if err := h.store.UpdateLaunch(r.Context(), launch); err != nil {
		h.logger.Error("failed to update launch status", "error", err)
	}

	plan, err := corelaunch.BuildPlan(launch)
	if err != nil {
		h.failLaunch(r, launch, err.Error())
		h.writeError(w, http.StatusConflict, err.Error(), "launch_not_ready")
		return
	}

	containerID, err := h.createAndStartContainer(plan)
	if err != nil {
		h.failLaunch(r, launch, err.Error())
		h.recordEvent(r, domain.NewLaunchEvent(launch.ID, domain.EventStartFailed, err.Error()))
		if errors.Is(err, docker.ErrPortAlreadyAllocated) {
			h.writeError(w, http.StatusConflict, "host port is already in use", "port_unavailable")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "failed to start launch: "+err.Error(), "container_error")
		return
	}

	launch.ContainerID = containerID
	if err := launch.Transition(domain.StatusRunning); err != nil {
		h.logger.Error("failed to transition to running", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to start launch", "internal_error")
		return
	}

	if err := h.store.UpdateLaunch(r.Context(), launch); err != nil {
		h.logger.Error("failed to update launch", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update launch", "internal_error")
		return
	}

	h.recordEvent(r, domain.NewLaunchEvent(launch.ID, domain.EventStarted, "container "+containerID))
	h.logger.Info("launch started",
		"launch_id", launch.ID,
		"container_id", containerID,
		"host_port", launch.HostPort,
		"workers", launch.Workers,
	)

	h.writeJSON(w, http.StatusOK, launchToResponse(launch))
}

func (h *Handler) handleStopLaunch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	launch, err := h.store.GetLaunch(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "launch not found", "launch_not_found")
			return
		}
		h.logger.Error("failed to get launch", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get launch", "internal_error")
		return
	}

	if allowed, reason := corelaunch.CanStop(launch.Status); !allowed {
		h.writeError(w, http.StatusConflict, reason, "invalid_transition")
		return
	}

	if err := launch.Transition(domain.StatusStopping); err != nil {
		h.logger.Error("failed to transition to stopping", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to stop launch", "internal_error")
		return
	}
	if err := h.store.UpdateLaunch(r.Context(), launch); err != nil {
		h.logger.Error("failed to update launch status", "error", err)
	}

	timeout := 30 * time.Second
	if err := h.docker.StopContainer(launch.ContainerID, &timeout); err != nil {
		if !errors.Is(err, docker.ErrContainerNotRunning) && !errors.Is(err, docker.ErrContainerNotFound) {
			h.failLaunch(r, launch, err.Error())
			h.writeError(w, http.StatusInternalServerError, "failed to stop launch: "+err.Error(), "container_error")
			return
		}
	}

	if err := launch.Transition(domain.StatusStopped); err != nil {
		h.logger.Error("failed to transition to stopped", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to stop launch", "internal_error")
		return
	}

	if err := h.store.UpdateLaunch(r.Context(), launch); err != nil {
		h.logger.Error("failed to update launch", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update launch", "internal_error")
		return
	}

	h.recordEvent(r, domain.NewLaunchEvent(launch.ID, domain.EventStopped, ""))
	h.logger.Info("launch stopped", "launch_id", launch.ID)

	h.writeJSON(w, http.StatusOK, launchToResponse(launch))
}

func (h *Handler) handleLaunchLogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	launch, err := h.store.GetLaunch(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "launch not found", "launch_not_found")
			return
		}
		h.logger.Error("failed to get launch", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get launch", "internal_error")
		return
	}

	if launch.ContainerID == "" {
		h.writeError(w, http.StatusConflict, "launch has no container", "no_container")
		return
	}

	tail := r.URL.Query().Get("tail")
	if tail == "" {
		tail = "100"
	}

	logs, err := h.docker.ContainerLogs(launch.ContainerID, docker.LogOptions{Tail: tail})
	if err != nil {
		if errors.Is(err, docker.ErrContainerNotFound) {
			h.writeError(w, http.StatusNotFound, "container not found", "container_not_found")
			return
		}
		h.logger.Error("failed to get logs", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get logs", "internal_error")
		return
	}
	defer logs.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.Copy(w, logs); err != nil {
		h.logger.Warn("failed to stream logs", "error", err)
	}
}

func (h *Handler) handleLaunchEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.store.GetLaunch(r.Context(), id); err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "launch not found", "launch_not_found")
			return
		}
		h.logger.Error("failed to get launch", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get launch", "internal_error")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	events, err := h.store.ListLaunchEvents(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list events", "internal_error")
		return
	}

	resp := ListLaunchEventsResponse{
		Events: make([]LaunchEventResponse, 0, len(events)),
	}
	for _, e := range events {
		resp.Events = append(resp.Events, LaunchEventResponse{
			ID:        e.ID,
			Type:      string(e.Type),
			Message:   e.Message,
			ExitCode:  e.ExitCode,
			CreatedAt: e.CreatedAt,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Helpers
// =============================================================================

// createAndStartContainer converts a plan into a created, started container.
func (h *Handler) createAndStartContainer(plan *corelaunch.Plan) (string, error) {
	spec := docker.ContainerSpec{
		Name:   plan.Name,
		Image:  plan.Image,
		Env:    plan.Env,
		Labels: plan.Labels,
		RestartPolicy: docker.RestartPolicy{
			Name: plan.RestartPolicy,
		},
	}
	for _, p := range plan.Ports {
		spec.Ports = append(spec.Ports, docker.PortBinding{
			ContainerPort: p.ContainerPort,
			HostPort:      p.HostPort,
			Protocol:      p.Protocol,
			HostIP:        p.HostIP,
		})
	}

	containerID, err := h.docker.CreateContainer(spec)
	if err != nil {
		return "", err
	}

	if err := h.docker.StartContainer(containerID); err != nil {
		// The container never ran; leave nothing behind.
		_ = h.docker.RemoveContainer(containerID, docker.RemoveOptions{Force: true})
		return "", err
	}

	return containerID, nil
}

// failLaunch marks a launch failed and persists it, best effort.
func (h *Handler) failLaunch(r *http.Request, launch *domain.Launch, reason string) {
	if err := launch.Fail(reason); err != nil {
		h.logger.Error("failed to mark launch failed", "launch_id", launch.ID, "error", err)
		return
	}
	if err := h.store.UpdateLaunch(r.Context(), launch); err != nil {
		h.logger.Error("failed to persist failed launch", "launch_id", launch.ID, "error", err)
	}
}

// recordEvent persists a launch event, best effort.
func (h *Handler) recordEvent(r *http.Request, event *domain.LaunchEvent) {
	if err := h.store.CreateLaunchEvent(r.Context(), event); err != nil {
		h.logger.Error("failed to record event", "launch_id", event.LaunchID, "error", err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func listOptionsFromQuery(r *http.Request) store.ListOptions {
	opts := store.DefaultListOptions()
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			opts.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}
	return opts.Normalize()
}

func workloadToResponse(w *domain.Workload) WorkloadResponse {
	return WorkloadResponse{
		ID:          w.ID,
		Name:        w.Name,
		Slug:        w.Slug,
		Description: w.Description,
		Version:     w.Version,
		Manifest:    w.Manifest,
		ImageTag:    w.ImageTag,
		Published:   w.Published,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func launchToResponse(l *domain.Launch) LaunchResponse {
	return LaunchResponse{
		ID:              l.ID,
		Name:            l.Name,
		WorkloadID:      l.WorkloadID,
		WorkloadVersion: l.WorkloadVersion,
		Status:          string(l.Status),
		ContainerID:     l.ContainerID,
		ImageTag:        l.ImageTag,
		HostPort:        l.HostPort,
		ContainerPort:   l.ContainerPort,
		Workers:         l.Workers,
		Env:             l.Env,
		ErrorMessage:    l.ErrorMessage,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
		StartedAt:       l.StartedAt,
		StoppedAt:       l.StoppedAt,
	}
}
