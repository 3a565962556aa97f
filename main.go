package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"library-portal/config"
	"library-portal/pages"
	"library-portal/session"
	"library-portal/ui"
)

// errShown marks errors the page already printed.
var errShown = errors.New("already reported")

func shown(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errShown, err)
}

// cli carries the state shared by every command of one process.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// Replaced in tests.
	loadConfig       func() (*config.Config, error)
	store            session.Storage
	instantRedirects bool

	apiURL  string
	debug   bool
	inShell bool
	app     *app
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{in: in, out: out, errOut: errOut, loadConfig: config.Load}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "librarian",
		Short: "Library desk for the school management portal",
		Long: `librarian signs in to the school management portal and runs the
library pages: the dashboard, the catalogue, book requests, issues,
overdue returns with fines, and the librarian profile.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "backend base URL (overrides SMS_API_URL)")
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "log requests and page events to stderr")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.registerCmd(),
		c.whoamiCmd(),
		c.passwordCmd(),
		c.dashboardCmd(),
		c.booksCmd(),
		c.requestsCmd(),
		c.overdueCmd(),
		c.issuesCmd(),
		c.profileCmd(),
		c.shellCmd(),
	)
	return root
}

// setup builds the app on first use. Commands run from the shell reuse it.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.app != nil {
		return nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.APIBaseURL = strings.TrimRight(c.apiURL, "/")
	}
	if c.debug {
		cfg.Debug = true
	}
	a, err := newApp(cfg, c.store, c.in, c.out, c.errOut)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		fmt.Fprintf(c.errOut, "Error closing session store: %v\n", err)
	}
	c.app = nil
}

// execute runs one command line and prints errors the pages did not.
func (c *cli) execute(ctx context.Context, args []string) error {
	root := c.rootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	c.report(err)
	return err
}

func (c *cli) report(err error) {
	if err == nil || errors.Is(err, errShown) || errors.Is(err, context.Canceled) {
		return
	}
	ui.Banner(c.errOut, ui.Danger, "%v", err)
}

// redirects holds success redirects until the page has been printed, then
// waits them out so they finish before the command returns.
type redirects struct {
	ctx     context.Context
	instant bool
	pending []func()
}

func (c *cli) redirects(cmd *cobra.Command) *redirects {
	return &redirects{ctx: cmd.Context(), instant: c.instantRedirects}
}

func (r *redirects) AfterFunc(d time.Duration, f func()) {
	if r.instant {
		d = 0
	}
	r.pending = append(r.pending, func() { pages.BlockingScheduler{Ctx: r.ctx}.AfterFunc(d, f) })
}

func (r *redirects) flush() {
	pending := r.pending
	r.pending = nil
	for _, f := range pending {
		f()
	}
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", what, arg)
	}
	return id, nil
}

// ask fills *value from the prompt unless a flag already set it.
func (c *cli) ask(value *string, prompt string) error {
	if *value != "" {
		return nil
	}
	v, err := c.app.prompt.Line(prompt)
	if err != nil {
		return fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(prompt), ":"), err)
	}
	*value = v
	return nil
}

func (c *cli) askPassword(value *string, prompt string) error {
	v, err := c.app.prompt.Password(prompt)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	*value = v
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := newCLI(os.Stdin, os.Stdout, os.Stderr)
	err := c.execute(ctx, os.Args[1:])
	c.close()
	if err != nil {
		stop()
		os.Exit(1)
	}
}
