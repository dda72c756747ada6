package build

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/sofmeright/multibuild/src/config"
	"github.com/sofmeright/multibuild/src/platform"
)

// Step is one command of the in-container build script.
type Step struct {
	Command string

	// Fallback makes the step optional: when Command fails its stderr is
	// dropped and Fallback runs instead, so the script carries on.
	Fallback string
}

// Optional reports whether a failure of this step is swallowed.
func (s Step) Optional() bool {
	return s.Fallback != ""
}

// Render returns the shell text of the step. Optional steps are wrapped in
// a brace group so the "||" cannot bind to earlier steps of the chain.
func (s Step) Render() string {
	if !s.Optional() {
		return s.Command
	}
	return fmt.Sprintf("{ %s 2>/dev/null || %s; }", s.Command, s.Fallback)
}

// Script is an ordered list of steps executed with stop-on-first-failure
// semantics: a failing required step aborts everything after it.
type Script struct {
	Steps []Step
}

// Lines returns the rendered steps one per line, every line but the last
// ending in " &&".
func (s Script) Lines() []string {
	lines := make([]string, len(s.Steps))
	for i, st := range s.Steps {
		lines[i] = st.Render()
		if i < len(s.Steps)-1 {
			lines[i] += " &&"
		}
	}
	return lines
}

// Render joins the steps with "&&" into a single bash -c argument.
func (s Script) Render() string {
	parts := make([]string, len(s.Steps))
	for i, st := range s.Steps {
		parts[i] = st.Render()
	}
	return strings.Join(parts, " && ")
}

// NewScript assembles the build script for recipe: its setup commands, then
// the fixed build-and-collect sequence described by tc.
func NewScript(recipe platform.Recipe, tc config.ToolchainConfig) Script {
	out := quote(tc.OutputMount)

	steps := make([]Step, 0, len(recipe.Setup)+9)
	for _, c := range recipe.Setup {
		steps = append(steps, Step{Command: c})
	}

	steps = append(steps,
		Step{Command: echo("System setup completed")},
		Step{Command: fmt.Sprintf(`echo "Building for system: ${%s}"`, tc.SystemEnv)},
		Step{Command: `echo "Architecture: $(uname -m)"`},
		Step{Command: tc.Command},
		Step{Command: echo("Build completed, copying artifacts...")},
		Step{
			Command:  fmt.Sprintf("cp -v %s %s/", tc.Artifacts, out),
			Fallback: echo("No tar.gz files to copy"),
		},
		Step{
			Command:  fmt.Sprintf("cp -rv %s %s/", quote(tc.LogsDir), out),
			Fallback: echo(fmt.Sprintf("No %s to copy", tc.LogsDir)),
		},
		Step{Command: fmt.Sprintf("ls -la %s/", out)},
	)
	return Script{Steps: steps}
}

func echo(msg string) string {
	return "echo " + quote(msg)
}

// quote makes s a single literal bash word.
func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return q
}
