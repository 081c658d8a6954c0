package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"
)

var ErrHelp = errors.New("help requested")

type Options struct {
	InputFile  string
	ConfigFile string
	ResultsDir string
	LogDir     string

	Endpoint string
	ProxyURL string
	Debug    bool
	NoColor  bool
}

const longHelp = `namecheck checks a list of usernames against the availability API in
parallel. Settings (threads, timeout, retries, retry_delay, debug) are read
from an optional JSON file; a missing or malformed file falls back to defaults.

Available names are written to <results>/available.txt, taken names to
<results>/taken.txt, and every run gets its own session log in <logs>/.`

// Parse reads args into Options. It returns ErrHelp after printing usage
// for -h/--help.
func Parse(args []string, stdout, stderr io.Writer) (Options, error) {
	var (
		opts Options
		ran  bool
	)

	cmd := &cobra.Command{
		Use:           "namecheck [flags]",
		Short:         "Check username availability in bulk",
		Long:          longHelp,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			ran = true
			return nil
		},
	}
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&opts.InputFile, "input", "i", "data/usernames.txt", "file with one username per line")
	f.StringVarP(&opts.ConfigFile, "config", "c", "config.json", "optional JSON settings file")
	f.StringVar(&opts.ResultsDir, "results", "result", "results output directory")
	f.StringVar(&opts.LogDir, "logs", "logs", "session log directory")
	f.StringVar(&opts.Endpoint, "endpoint", "", "availability URL template, {} is replaced by the username")
	f.StringVar(&opts.ProxyURL, "proxy", "", "SOCKS5 proxy URL (e.g. socks5://127.0.0.1:9050)")
	f.BoolVarP(&opts.Debug, "debug", "d", false, "write debug records to the session log")
	f.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	if err := cmd.Execute(); err != nil {
		return Options{}, err
	}
	if !ran {
		return Options{}, ErrHelp
	}
	return opts, nil
}
