package build

import "errors"

var (
	// ErrBuildsFailed reports that at least one platform did not build.
	// Per-platform detail has already been printed when it is returned.
	ErrBuildsFailed = errors.New("one or more platform builds failed")

	// ErrRuntimeUnavailable reports a failed container runtime probe.
	ErrRuntimeUnavailable = errors.New("container runtime is not available")
)
