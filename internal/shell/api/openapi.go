package api

import (
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// =============================================================================
// OpenAPI Document
// =============================================================================

var (
	openAPIOnce sync.Once
	openAPIJSON []byte
	openAPIErr  error
)

// handleOpenAPI serves the API description. The document is assembled once
// and cached for the process lifetime.
func (h *Handler) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	openAPIOnce.Do(func() {
		openAPIJSON, openAPIErr = buildOpenAPIDoc().MarshalJSON()
	})
	if openAPIErr != nil {
		h.logger.Error("failed to marshal OpenAPI document", "error", openAPIErr)
		h.writeError(w, http.StatusInternalServerError, "failed to render OpenAPI document", "internal_error")
		return
	}
	w.Write(openAPIJSON)
}

// buildOpenAPIDoc assembles the OpenAPI 3.0 description of the control API.
func buildOpenAPIDoc() *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Slipway API",
			Description: "Container launcher: build images from workload manifests and run supervised multi-worker launches.",
			Version:     "1.0.0",
		},
		Paths: openapi3.NewPaths(),
	}

	jsonResponse := func(desc string, schema *openapi3.SchemaRef) *openapi3.Responses {
		return openapi3.NewResponses(
			openapi3.WithStatus(200, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().
					WithDescription(desc).
					WithContent(openapi3.NewContentWithJSONSchemaRef(schema)),
			}),
		)
	}

	objectSchema := openapi3.NewSchemaRef("", openapi3.NewObjectSchema())

	doc.Paths.Set("/health", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getHealth",
			Summary:     "Health check",
			Responses:   jsonResponse("Service is healthy", objectSchema),
		},
	})
	doc.Paths.Set("/ready", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getReady",
			Summary:     "Readiness check including the container runtime",
			Responses:   jsonResponse("Readiness state with per-dependency checks", objectSchema),
		},
	})

	idParam := &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema()),
	}

	doc.Paths.Set("/api/v1/workloads", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listWorkloads",
			Summary:     "List workloads",
			Responses:   jsonResponse("Workload collection", objectSchema),
		},
		Post: &openapi3.Operation{
			OperationID: "createWorkload",
			Summary:     "Create a workload from a manifest",
			Responses:   jsonResponse("Created workload", objectSchema),
		},
	})
	doc.Paths.Set("/api/v1/workloads/{id}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Get: &openapi3.Operation{
			OperationID: "getWorkload",
			Summary:     "Get a workload",
			Responses:   jsonResponse("Workload", objectSchema),
		},
		Put: &openapi3.Operation{
			OperationID: "updateWorkload",
			Summary:     "Update an unpublished workload",
			Responses:   jsonResponse("Updated workload", objectSchema),
		},
		Delete: &openapi3.Operation{
			OperationID: "deleteWorkload",
			Summary:     "Delete a workload without launches",
			Responses:   jsonResponse("Deleted", objectSchema),
		},
	})
	doc.Paths.Set("/api/v1/workloads/{id}/publish", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Post: &openapi3.Operation{
			OperationID: "publishWorkload",
			Summary:     "Publish a workload with a built image",
			Responses:   jsonResponse("Published workload", objectSchema),
		},
	})
	doc.Paths.Set("/api/v1/workloads/{id}/build", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Post: &openapi3.Operation{
			OperationID: "buildWorkload",
			Summary:     "Render the build file and build the workload image",
			Responses:   jsonResponse("Workload with recorded image tag", objectSchema),
		},
	})

	doc.Paths.Set("/api/v1/launches", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listLaunches",
			Summary:     "List launches",
			Responses:   jsonResponse("Launch collection", objectSchema),
		},
		Post: &openapi3.Operation{
			OperationID: "createLaunch",
			Summary:     "Create a launch of a published workload",
			Responses:   jsonResponse("Created launch", objectSchema),
		},
	})
	doc.Paths.Set("/api/v1/launches/{id}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Get: &openapi3.Operation{
			OperationID: "getLaunch",
			Summary:     "Get a launch",
			Responses:   jsonResponse("Launch", objectSchema),
		},
		Delete: &openapi3.Operation{
			OperationID: "deleteLaunch",
			Summary:     "Delete a stopped launch",
			Responses:   jsonResponse("Deleted", objectSchema),
		},
	})
	doc.Paths.Set("/api/v1/launches/{id}/start", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Post: &openapi3.Operation{
			OperationID: "startLaunch",
			Summary:     "Start the launch container",
			Responses:   jsonResponse("Running launch", objectSchema),
		},
	})
	doc.Paths.Set("/api/v1/launches/{id}/stop", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Post: &openapi3.Operation{
			OperationID: "stopLaunch",
			Summary:     "Stop the launch container",
			Responses:   jsonResponse("Stopped launch", objectSchema),
		},
	})
	doc.Paths.Set("/api/v1/launches/{id}/logs", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Get: &openapi3.Operation{
			OperationID: "getLaunchLogs",
			Summary:     "Fetch container logs",
			Responses:   jsonResponse("Log output", objectSchema),
		},
	})
	doc.Paths.Set("/api/v1/launches/{id}/events", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Get: &openapi3.Operation{
			OperationID: "listLaunchEvents",
			Summary:     "List recorded lifecycle events",
			Responses:   jsonResponse("Event collection", objectSchema),
		},
	})

	return doc
}
