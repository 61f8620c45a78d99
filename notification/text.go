package notification

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/hupe1980/testmesh/core"
)

// TextOptions configures a TextListener.
type TextOptions struct {
	// SummaryTable appends a table with the run totals.
	SummaryTable bool
}

// TextListener prints a run in the classic console format: one progress
// marker per event ("." started, "E" failure, "I" ignored), followed by the
// elapsed time, the failures with their traces and a footer.
type TextListener struct {
	BaseListener
	out  io.Writer
	opts TextOptions
}

// NewTextListener creates a TextListener writing to out.
func NewTextListener(out io.Writer, optFns ...func(o *TextOptions)) *TextListener {
	opts := TextOptions{SummaryTable: true}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &TextListener{out: out, opts: opts}
}

// TestStarted implements Listener.
func (t *TextListener) TestStarted(*core.Description) error {
	_, err := io.WriteString(t.out, ".")
	return err
}

// TestFailure implements Listener.
func (t *TextListener) TestFailure(*core.Failure) error {
	_, err := io.WriteString(t.out, "E")
	return err
}

// TestIgnored implements Listener.
func (t *TextListener) TestIgnored(*core.Description) error {
	_, err := io.WriteString(t.out, "I")
	return err
}

// TestRunFinished implements Listener.
func (t *TextListener) TestRunFinished(r *Result) error {
	fmt.Fprintf(t.out, "\nTime: %s\n", elapsed(r.RunTime()))

	t.printFailures(r)
	t.printFooter(r)

	if t.opts.SummaryTable {
		t.printSummary(r)
	}

	return nil
}

func (t *TextListener) printFailures(r *Result) {
	failures := r.Failures()
	if len(failures) == 0 {
		return
	}

	if len(failures) == 1 {
		fmt.Fprintf(t.out, "There was %d failure:\n", len(failures))
	} else {
		fmt.Fprintf(t.out, "There were %d failures:\n", len(failures))
	}

	for i, f := range failures {
		fmt.Fprintf(t.out, "%d) %s\n%s\n", i+1, f.TestHeader(), f.Trace())
	}
}

func (t *TextListener) printFooter(r *Result) {
	if r.WasSuccessful() {
		plural := "s"
		if r.RunCount() == 1 {
			plural = ""
		}

		fmt.Fprintf(t.out, "\nOK (%d test%s)\n\n", r.RunCount(), plural)

		return
	}

	fmt.Fprintf(t.out, "\nFAILURES!!!\nTests run: %d,  Failures: %d\n\n", r.RunCount(), r.FailureCount())
}

func (t *TextListener) printSummary(r *Result) {
	tw := table.NewWriter()
	tw.SetOutputMirror(t.out)
	tw.AppendHeader(table.Row{"Tests", "Passed", "Failed", "Ignored", "Assumptions", "Time"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Ignored", Align: text.AlignRight},
		{Name: "Assumptions", Align: text.AlignRight},
		{Name: "Time", Align: text.AlignRight},
	})

	passed := max(r.RunCount()-r.FailureCount()-r.AssumptionFailureCount(), 0)

	tw.AppendRow(table.Row{r.RunCount(), passed, r.FailureCount(), r.IgnoreCount(), r.AssumptionFailureCount(), elapsed(r.RunTime())})

	status := "PASS"
	if !r.WasSuccessful() {
		status = "FAIL"
	}

	tw.AppendFooter(table.Row{"", "", "", "", "", status})
	tw.SetStyle(table.StyleLight)
	tw.Render()
}

func elapsed(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
