package platform

import (
	"fmt"
	"strings"

	"github.com/sofmeright/multibuild/src/config"
)

// All is the selection keyword that expands to every registered platform.
const All = config.ReservedPlatformID

// Recipe is the build recipe for one platform.
type Recipe struct {
	ID         string
	Image      string
	SystemName string
	Setup      []string
	Images     map[string]string // per-architecture image overrides
}

// ImageFor returns the image to run on a host of the given architecture.
func (r Recipe) ImageFor(arch string) string {
	if img, ok := r.Images[NormalizeArch(arch)]; ok && img != "" {
		return img
	}
	return r.Image
}

// clone returns a deep copy so registry contents cannot be mutated through
// a returned Recipe.
func (r Recipe) clone() Recipe {
	c := r
	c.Setup = append([]string(nil), r.Setup...)
	if r.Images != nil {
		c.Images = make(map[string]string, len(r.Images))
		for k, v := range r.Images {
			c.Images[k] = v
		}
	}
	return c
}

// Registry is an ordered, immutable set of recipes keyed by platform id.
type Registry struct {
	order   []string
	recipes map[string]Recipe
}

// New builds a registry from recipes in declaration order.
// A recipe without a system name uses its id.
func New(recipes ...Recipe) (*Registry, error) {
	reg := &Registry{recipes: make(map[string]Recipe, len(recipes))}
	for _, r := range recipes {
		if err := reg.add(r); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (reg *Registry) add(r Recipe) error {
	switch {
	case r.ID == "":
		return fmt.Errorf("platform: recipe id is required")
	case r.ID == All:
		return fmt.Errorf("platform: id %q is reserved", All)
	case r.Image == "":
		return fmt.Errorf("platform: %s: image is required", r.ID)
	}
	if _, exists := reg.recipes[r.ID]; exists {
		return fmt.Errorf("platform: duplicate recipe id: %s", r.ID)
	}
	r = r.clone()
	if r.SystemName == "" {
		r.SystemName = r.ID
	}
	reg.order = append(reg.order, r.ID)
	reg.recipes[r.ID] = r
	return nil
}

// Merge returns a new registry where overrides with a known id replace that
// recipe in place and overrides with a new id are appended.
func (reg *Registry) Merge(overrides ...Recipe) (*Registry, error) {
	replaced := make(map[string]Recipe, len(overrides))
	var appended []Recipe
	for _, o := range overrides {
		if _, dup := replaced[o.ID]; dup {
			return nil, fmt.Errorf("platform: duplicate override id: %s", o.ID)
		}
		replaced[o.ID] = o
		if _, known := reg.recipes[o.ID]; !known {
			appended = append(appended, o)
		}
	}

	recipes := make([]Recipe, 0, len(reg.order)+len(appended))
	for _, id := range reg.order {
		if o, ok := replaced[id]; ok {
			recipes = append(recipes, o)
			continue
		}
		recipes = append(recipes, reg.recipes[id])
	}
	recipes = append(recipes, appended...)
	return New(recipes...)
}

// Get returns the recipe for id.
func (reg *Registry) Get(id string) (Recipe, bool) {
	r, ok := reg.recipes[id]
	if !ok {
		return Recipe{}, false
	}
	return r.clone(), true
}

// IDs returns platform ids in declaration order.
func (reg *Registry) IDs() []string {
	return append([]string(nil), reg.order...)
}

// Len returns the number of registered platforms.
func (reg *Registry) Len() int {
	return len(reg.order)
}

// Resolve turns a command-line selection into an ordered list of platform
// ids. Every id is checked before "all" expands to every platform, so an
// unknown id is an error even next to "all". An empty selection means "all"
// and repeated ids are kept once.
func (reg *Registry) Resolve(selection []string) ([]string, error) {
	if len(selection) == 0 {
		return reg.IDs(), nil
	}

	var (
		unknown []string
		wantAll bool
	)
	for _, id := range selection {
		if id == All {
			wantAll = true
			continue
		}
		if _, ok := reg.recipes[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown platform(s): %s (choose from: %s, %s)",
			strings.Join(unknown, ", "), strings.Join(reg.order, ", "), All)
	}
	if wantAll {
		return reg.IDs(), nil
	}

	seen := make(map[string]bool, len(selection))
	ids := make([]string, 0, len(selection))
	for _, id := range selection {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
