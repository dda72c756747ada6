package output

import (
	"fmt"
	"io"
	"os"
	"time"
)

// IsCI reports whether the process runs under a CI system.
func IsCI() bool {
	return os.Getenv("CI") == "true"
}

// IsGitLabCI reports whether the process runs in a GitLab CI job.
func IsGitLabCI() bool {
	return os.Getenv("GITLAB_CI") == "true"
}

// GitLab collapsible section helpers. Container output for each platform is
// wrapped in one so a four-platform job log stays navigable.

// SectionEnd closes the section id opened by SectionStartCollapsed.
func SectionEnd(w io.Writer, id string) {
	if !IsGitLabCI() {
		return
	}
	ts := time.Now().Unix()
	fmt.Fprintf(w, "\033[0Ksection_end:%d:%s\r\033[0K\n", ts, id)
}

// SectionStartCollapsed starts a section that is collapsed by default.
func SectionStartCollapsed(w io.Writer, id, name string) {
	if !IsGitLabCI() {
		return
	}
	ts := time.Now().Unix()
	fmt.Fprintf(w, "\033[0Ksection_start:%d:%s[collapsed=true]\r\033[0K%s\n", ts, id, name)
}

// SectionID turns a platform id into a GitLab section id, which may only
// contain letters, digits, underscores and dashes.
func SectionID(prefix, name string) string {
	b := []byte(prefix + "_" + name)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			b[i] = '_'
		}
	}
	return string(b)
}
