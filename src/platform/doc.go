// Package platform holds the registry of build recipes: for each platform
// id, the base image, the system name exported to the build, and the ordered
// shell commands that prepare the image before the package build runs.
//
// A Registry is immutable once constructed. Callers that need a different
// set of recipes build a new Registry with Merge.
package platform
