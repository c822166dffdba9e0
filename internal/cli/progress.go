package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/tracemap/internal/resolver"
)

// CLIProgressReporter renders file loading progress during resolution.
// The size of an import tree is unknown until resolution finishes, so
// the bar runs as a spinner that counts files as they load. Output goes
// to stderr so piped document output stays clean.
type CLIProgressReporter struct {
	quiet bool
	bar   *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	c := &CLIProgressReporter{quiet: quiet}
	if quiet {
		return c
	}
	c.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Resolving imports"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSpinnerType(14),
	)
	return c
}

// OnFileLoaded advances the spinner. Matches resolver.Options.Progress.
func (c *CLIProgressReporter) OnFileLoaded(path string) {
	if c.quiet || c.bar == nil {
		return
	}
	c.bar.Add(1)
}

// OnComplete finishes the spinner and prints a run summary.
func (c *CLIProgressReporter) OnComplete(stats resolver.Stats) {
	if c.quiet || c.bar == nil {
		return
	}
	c.bar.Finish()
	fmt.Fprintf(os.Stderr, "\n✓ Resolved %d files in %.2fs (%d imports, %d cache hits)\n",
		stats.FilesLoaded,
		stats.Duration.Seconds(),
		stats.ImportsResolved+stats.ImportsFailed,
		stats.CacheHits)
}
