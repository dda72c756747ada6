package platform

import (
	"runtime"
	"strings"
)

// NormalizeArch maps kernel and Go architecture names onto the keys used in
// recipe image maps. Unknown names are returned lowercased.
func NormalizeArch(arch string) string {
	switch a := strings.ToLower(arch); a {
	case "x86_64", "amd64":
		return "amd64"
	case "aarch64", "arm64":
		return "arm64"
	case "armv7l", "armv6l", "arm":
		return "arm"
	default:
		return a
	}
}

// HostArch returns the normalized architecture of the running binary.
func HostArch() string {
	return NormalizeArch(runtime.GOARCH)
}
