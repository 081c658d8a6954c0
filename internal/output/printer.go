package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"

	"github.com/tdh8316/namecheck/internal/scan"
)

const width = 52

type Printer struct {
	out     io.Writer
	noColor bool

	dim    func(a ...any) string
	bold   func(a ...any) string
	green  func(a ...any) string
	red    func(a ...any) string
	yellow func(a ...any) string
}

func NewPrinter(stdout io.Writer, noColor bool) *Printer {
	p := &Printer{out: stdout, noColor: noColor}

	p.dim = p.paint(color.Faint)
	p.bold = p.paint(color.Bold)
	p.green = p.paint(color.FgGreen)
	p.red = p.paint(color.FgRed)
	p.yellow = p.paint(color.FgYellow)
	return p
}

func (p *Printer) paint(attr color.Attribute) func(a ...any) string {
	c := color.New(attr)
	if p.noColor {
		c.DisableColor()
	}
	return c.SprintFunc()
}

func (p *Printer) Writer() io.Writer {
	return p.out
}

func (p *Printer) rule() string {
	return p.dim(strings.Repeat("─", width))
}

func (p *Printer) Banner() {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.rule())
	fmt.Fprintln(p.out, p.bold("  HYTALE USERNAME CHECKER"))
	fmt.Fprintln(p.out, p.rule())
	fmt.Fprintln(p.out)
}

func (p *Printer) Info(msg string)    { fmt.Fprintf(p.out, "  %s %s\n", p.dim(">"), msg) }
func (p *Printer) Success(msg string) { fmt.Fprintf(p.out, "  %s %s\n", p.green("+"), msg) }
func (p *Printer) Error(msg string)   { fmt.Fprintf(p.out, "  %s %s\n", p.red("x"), msg) }
func (p *Printer) Warning(msg string) { fmt.Fprintf(p.out, "  %s %s\n", p.yellow("!"), msg) }

// Progress renders the live progress line for a run of total usernames.
type Progress struct {
	p   *Printer
	bar *progressbar.ProgressBar
}

func (p *Printer) StartProgress(total int) *Progress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      " ",
			BarEnd:        " ",
		}),
	)
	return &Progress{p: p, bar: bar}
}

// Update is a scan progress callback.
func (pr *Progress) Update(s scan.Progress) {
	p := pr.p
	pr.bar.Describe(fmt.Sprintf("%s hit %s bad %s err %s",
		p.green(fmt.Sprintf("%4d", s.Hits)),
		p.dim(fmt.Sprintf("%4d", s.Taken)),
		p.red(fmt.Sprintf("%3d", s.Errors)),
		p.dim(fmt.Sprintf("%5.1f/s", s.Rate)),
	))
	_ = pr.bar.Set(s.Checked)
}

func (pr *Progress) Finish() {
	_ = pr.bar.Finish()
	fmt.Fprintln(pr.p.out)
}

// Stop leaves the bar where it is, for interrupted runs.
func (pr *Progress) Stop() {
	_ = pr.bar.Exit()
	fmt.Fprintln(pr.p.out)
}

// Results prints the closing totals table.
func (p *Printer) Results(sum scan.Summary, resultsDir string) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.rule())
	fmt.Fprintln(p.out, p.bold("  RESULTS"))
	fmt.Fprintln(p.out, p.rule())

	table := tablewriter.NewWriter(p.out)
	table.Header("Outcome", "Count")
	_ = table.Append(p.green("available"), fmt.Sprint(sum.Hits))
	_ = table.Append(p.dim("taken"), fmt.Sprint(sum.Taken))
	_ = table.Append(p.red("errors"), fmt.Sprint(sum.Errors))
	if err := table.Render(); err != nil {
		p.Error("failed to render results table: " + err.Error())
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.dim(fmt.Sprintf("  Completed in %.2fs", sum.Elapsed.Round(10*time.Millisecond).Seconds())))
	fmt.Fprintln(p.out, p.dim(fmt.Sprintf("  Results saved to %s/", resultsDir)))
	fmt.Fprintln(p.out)
}
