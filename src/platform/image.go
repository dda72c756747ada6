package platform

import "github.com/google/go-containerregistry/pkg/name"

// QualifiedImage expands a short image reference to its fully-qualified
// form ("ubuntu:22.04" becomes "index.docker.io/library/ubuntu:22.04").
// Unparseable references are returned unchanged.
func QualifiedImage(ref string) string {
	r, err := name.ParseReference(ref)
	if err != nil {
		return ref
	}
	return r.Name()
}
