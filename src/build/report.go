package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sofmeright/multibuild/src/output"
)

// SummaryFile is written into every platform output directory after the
// build attempt.
const SummaryFile = "build_summary.txt"

// ReportFile is the per-package report the toolchain may leave in its logs
// directory.
const ReportFile = "build_report.json"

// PackageResult is one entry of the toolchain's build report.
type PackageResult struct {
	Name    string `json:"-"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ReadReport loads a build report keyed by package name. The result is
// sorted by name. A missing file returns (nil, nil).
func ReadReport(path string) ([]PackageResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var raw map[string]PackageResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	pkgs := make([]PackageResult, 0, len(raw))
	for name, r := range raw {
		r.Name = name
		pkgs = append(pkgs, r)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
	return pkgs, nil
}

// Summary is the content of a platform's build_summary.txt.
type Summary struct {
	Time       time.Time
	Platform   string
	Image      string
	SystemName string
	Arch       string
	Result     Result
	LogsDir    string // host path of the collected logs directory
	Collect    string // artifact glob; matching files are listed with a digest
}

// WriteSummary renders s into dir/build_summary.txt.
func WriteSummary(dir string, s Summary) error {
	var b strings.Builder

	b.WriteString("Multi-Platform Build Summary\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	b.WriteString(fmt.Sprintf("Build Time: %s\n", s.Time.Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf("Platform: %s\n", s.Platform))
	b.WriteString(fmt.Sprintf("Image: %s\n", s.Image))
	b.WriteString(fmt.Sprintf("System Name: %s\n", s.SystemName))
	b.WriteString(fmt.Sprintf("Architecture: %s\n", s.Arch))
	b.WriteString(fmt.Sprintf("Output Directory: %s\n", dir))
	b.WriteString(fmt.Sprintf("Status: %s\n", output.StatusLabel(s.Result.Success, false)))
	if s.Result.ExitCode >= 0 {
		b.WriteString(fmt.Sprintf("Exit Code: %d\n", s.Result.ExitCode))
	}
	if s.Result.Err != nil {
		b.WriteString(fmt.Sprintf("Error: %v\n", s.Result.Err))
	}
	b.WriteString(fmt.Sprintf("Duration: %s\n\n", output.FormatElapsed(s.Result.Duration)))

	pkgs, err := ReadReport(filepath.Join(s.LogsDir, ReportFile))
	switch {
	case err != nil:
		b.WriteString(fmt.Sprintf("Error reading build report: %v\n", err))
	case pkgs == nil:
		b.WriteString("Build report not found\n")
	default:
		ok := 0
		for _, p := range pkgs {
			if p.Success {
				ok++
			}
		}
		b.WriteString(fmt.Sprintf("Build Results: %d/%d packages successful\n\n", ok, len(pkgs)))
		b.WriteString("Package Status:\n")
		b.WriteString(strings.Repeat("-", 30) + "\n")
		for _, p := range pkgs {
			msg := p.Message
			if msg == "" {
				msg = "Unknown"
			}
			b.WriteString(fmt.Sprintf("%s %s: %s\n", output.StatusIcon(output.Status(p.Success), false), p.Name, msg))
		}
	}

	b.WriteString("\nOutput Files:\n")
	b.WriteString(strings.Repeat("-", 20) + "\n")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.Name() == SummaryFile {
			continue
		}
		line := "- " + e.Name()
		if ok, _ := filepath.Match(s.Collect, e.Name()); ok && e.Type().IsRegular() {
			if sum, err := Digest(filepath.Join(dir, e.Name())); err == nil {
				line += "  blake3:" + sum[:16]
			}
		}
		b.WriteString(line + "\n")
	}

	return os.WriteFile(filepath.Join(dir, SummaryFile), []byte(b.String()), 0o644)
}
