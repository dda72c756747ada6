// Package runtime drives the container engine that executes build scripts.
//
// Docker wraps the runtime CLI (docker, or a docker-compatible binary such
// as podman). Probe checks the binary is installed and optionally enforces a
// minimum version; Run starts one auto-removed container and blocks until it
// exits. Process launch goes through an Executor so tests can stand in for
// the real binary.
//
// Dagger runs the same RunSpec in a Dagger engine session. Host directories
// are copied into the container instead of bind-mounted, and mounts marked
// Export are copied back when the container exits.
package runtime
