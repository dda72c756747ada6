package build

import "time"

// Result captures the outcome of one platform build attempt.
type Result struct {
	Platform  string
	Success   bool          // container exited with status 0
	OutputDir string        // <output-root>/<platform>
	Artifacts []string      // archive names found in OutputDir after the run
	ExitCode  int           // -1 when the container never ran
	Err       error         // set when the attempt could not be carried out
	Duration  time.Duration
}

// Results is an ordered mapping of platform id to Result, in the order the
// platforms were attempted.
type Results struct {
	order []string
	byID  map[string]Result
}

// NewResults returns an empty result set.
func NewResults() *Results {
	return &Results{byID: make(map[string]Result)}
}

// Add records r. A second result for the same platform replaces the first
// without changing its position.
func (rs *Results) Add(r Result) {
	if _, ok := rs.byID[r.Platform]; !ok {
		rs.order = append(rs.order, r.Platform)
	}
	rs.byID[r.Platform] = r
}

// Get returns the result for platform id.
func (rs *Results) Get(id string) (Result, bool) {
	r, ok := rs.byID[id]
	return r, ok
}

// All returns every result in attempt order.
func (rs *Results) All() []Result {
	out := make([]Result, 0, len(rs.order))
	for _, id := range rs.order {
		out = append(out, rs.byID[id])
	}
	return out
}

// Len returns the number of recorded platforms.
func (rs *Results) Len() int {
	return len(rs.order)
}

// Succeeded returns the number of successful platforms.
func (rs *Results) Succeeded() int {
	n := 0
	for _, r := range rs.byID {
		if r.Success {
			n++
		}
	}
	return n
}

// Failed returns the ids of failed platforms in attempt order.
func (rs *Results) Failed() []string {
	var ids []string
	for _, id := range rs.order {
		if !rs.byID[id].Success {
			ids = append(ids, id)
		}
	}
	return ids
}
