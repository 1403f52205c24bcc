package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/p2i/p2i/plugin/internal/check"
)

// Reporter prints check results in the monitoring-plugin output format.
type Reporter struct {
	w     io.Writer
	quiet bool
}

// New returns a Reporter writing to w. A quiet Reporter prints nothing; the
// exit code alone carries the result.
func New(w io.Writer, quiet bool) *Reporter {
	return &Reporter{w: w, quiet: quiet}
}

// Report writes the status line for res.
func (r *Reporter) Report(res check.Result) error {
	if r.quiet {
		return nil
	}
	_, err := fmt.Fprintln(r.w, StatusLine(res))
	return err
}

// StatusLine renders res as "TOKEN", "TOKEN - summary" and, when the counts
// are meaningful, appends performance data "| firing=N matched=M".
func StatusLine(res check.Result) string {
	var b strings.Builder
	b.WriteString(res.Status.String())
	if s := sanitize(res.Summary); s != "" {
		b.WriteString(" - ")
		b.WriteString(s)
	}
	if res.Status != check.StatusUnknown {
		fmt.Fprintf(&b, " | firing=%d matched=%d", res.Firing, res.Matched)
	}
	return b.String()
}

// sanitize keeps the summary on one line and free of the perfdata separator.
func sanitize(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "|", "/").Replace(s)
	return strings.TrimSpace(s)
}
