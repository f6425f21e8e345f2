package launch

import "fmt"

// =============================================================================
// Resource Naming Functions
// =============================================================================

// ContainerName generates the container name for a launch.
// Pattern: slipway_{launchID}
//
// Example:
//
//	ContainerName("abc123") // returns "slipway_abc123"
func ContainerName(launchID string) string {
	return fmt.Sprintf("slipway_%s", launchID)
}

// ImageTag generates the image tag for a workload build.
// Pattern: slipway/{slug}:{version}
//
// Example:
//
//	ImageTag("chat-backend", "1.0.0") // returns "slipway/chat-backend:1.0.0"
func ImageTag(slug, version string) string {
	return fmt.Sprintf("slipway/%s:%s", slug, version)
}
