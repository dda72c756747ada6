package runtime

import (
	"io"
	"os"
)

// Mount is a host directory bind-mounted into the container.
type Mount struct {
	Source string // absolute host path
	Target string // absolute container path

	// Export marks a mount whose contents are copied back to Source after
	// the run by engines that cannot bind-mount host directories.
	Export bool
}

// RunSpec describes one container invocation.
type RunSpec struct {
	Name       string
	Labels     []string // key=value, in order
	Image      string
	Platform   string // --platform, optional
	Privileged bool
	TTY        bool
	Mounts     []Mount
	Workdir    string
	Env        []string // KEY=value, in order
	Command    []string // entrypoint arguments after the image
	Stdout     io.Writer
	Stderr     io.Writer
}

// RunArgs constructs the "run" argument list. The container is always
// removed on exit and attached to stdin.
func RunArgs(spec RunSpec) []string {
	args := []string{"run", "--rm"}

	if spec.TTY {
		args = append(args, "-it")
	} else {
		args = append(args, "-i")
	}

	if spec.Privileged {
		args = append(args, "--privileged")
	}

	if spec.Name != "" {
		args = append(args, "--name="+spec.Name)
	}
	for _, l := range spec.Labels {
		args = append(args, "--label="+l)
	}

	if spec.Platform != "" {
		args = append(args, "--platform="+spec.Platform)
	}

	for _, m := range spec.Mounts {
		args = append(args, "--volume="+m.Source+":"+m.Target)
	}

	if spec.Workdir != "" {
		args = append(args, "--workdir="+spec.Workdir)
	}

	for _, e := range spec.Env {
		args = append(args, "--env="+e)
	}

	args = append(args, spec.Image)
	args = append(args, spec.Command...)
	return args
}

// UseSudo resolves a sudo mode ("auto", "always", "never") for the current
// user. auto applies sudo only for non-root users.
func UseSudo(mode string, euid int) bool {
	switch mode {
	case "always":
		return true
	case "auto":
		return euid != 0
	default:
		return false
	}
}

// UseTTY resolves a tty mode. auto allocates a TTY only when stdin is a
// terminal, since "docker run -t" refuses a non-terminal input device.
func UseTTY(mode string, stdinIsTerminal bool) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return stdinIsTerminal
	}
}

// StdinIsTerminal reports whether the process stdin is a character device.
func StdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// ForwardedEnv returns KEY=value pairs for the named variables that are set
// in the host environment, in the order given.
func ForwardedEnv(names []string, lookup func(string) (string, bool)) []string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var env []string
	for _, n := range names {
		if v, ok := lookup(n); ok {
			env = append(env, n+"="+v)
		}
	}
	return env
}
