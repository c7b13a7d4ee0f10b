// Command aliceserver speaks DAP or GDB/MI on stdio (or, with --listen, a
// single WebSocket peer) and drives a ptrace-based Linux debuggee behind
// either protocol.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/alessio/shellescape"
	"github.com/briandowns/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dd86k/aliceserver/config"
	"github.com/dd86k/aliceserver/internal/adapter"
	"github.com/dd86k/aliceserver/internal/adapter/dap"
	"github.com/dd86k/aliceserver/internal/adapter/mi"
	"github.com/dd86k/aliceserver/internal/debugger"
	"github.com/dd86k/aliceserver/internal/dbgproto"
	"github.com/dd86k/aliceserver/internal/logging"
	"github.com/dd86k/aliceserver/internal/session"
	"github.com/dd86k/aliceserver/internal/transport"
)

// version is reported by --ver, --version, and MI's "show version".
const version = "0.6.0"

// Exit codes, exactly as the external interface names them.
const (
	exitOK         = 0
	exitCLIError   = 1
	exitFatalError = 2
)

// adapterDescriptions backs --list-adapters; order is the display order.
var adapterDescriptions = []struct{ name, desc string }{
	{"dap", "Debug Adapter Protocol (JSON over Content-Length framing)"},
	{"mi2", "GDB/MI version 2"},
	{"mi3", "GDB/MI version 3"},
	{"mi4", "GDB/MI version 4 (default MI dialect)"},
}

// cliError marks a failure that stems from user input (bad flags, bad
// adapter name, unreadable --logfile) rather than an internal one, so
// main can tell exit code 1 apart from exit code 2.
type cliError struct{ err error }

func (c cliError) Error() string { return c.err.Error() }
func (c cliError) Unwrap() error { return c.err }

type options struct {
	configPath  string
	adapterName string
	listAdapt   bool
	log         bool
	logfile     string
	loglevel    string
	listen      string
	printVer    bool
	printLong   bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := &options{}
	root := newRootCommand(opts)
	if err := root.Execute(); err != nil {
		var ce cliError
		if ok := asCLIError(err, &ce); ok {
			fmt.Fprintln(os.Stderr, "aliceserver:", ce.Error())
			return exitCLIError
		}
		fmt.Fprintln(os.Stderr, "aliceserver:", err)
		return exitFatalError
	}
	return exitOK
}

func asCLIError(err error, target *cliError) bool {
	ce, ok := err.(cliError)
	if ok {
		*target = ce
	}
	return ok
}

func newRootCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aliceserver [flags] [target] [args...]",
		Short: "DAP/GDB-MI debugger front-end",
		Long: heredoc.Doc(`
			aliceserver speaks the Debug Adapter Protocol or GDB/MI on its
			standard input and output (or, with --listen, a single
			WebSocket peer) and drives one ptrace-controlled Linux
			debuggee per session.

			An optional target executable and its arguments may be given
			as positional arguments; they pre-populate the session's
			target configuration ahead of the client's own launch/attach
			handshake.
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "load settings from this yaml/json/toml file")
	cmd.Flags().StringVarP(&opts.adapterName, "adapter", "a", "dap", "protocol adapter: dap|mi|mi2|mi3|mi4")
	cmd.Flags().BoolVar(&opts.listAdapt, "list-adapters", false, "list available adapters and exit")
	cmd.Flags().BoolVar(&opts.log, "log", false, "enable logging to stderr (or --logfile)")
	cmd.Flags().StringVar(&opts.logfile, "logfile", "", "write log output to this file instead of stderr")
	cmd.Flags().StringVar(&opts.loglevel, "loglevel", "info", "log level: debug|info|warn|error")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "serve the WebSocket transport on ADDR instead of stdio (bare --listen uses the config file's websocket.addr)")
	cmd.Flags().Lookup("listen").NoOptDefVal = listenUseConfig
	cmd.Flags().BoolVar(&opts.printVer, "ver", false, "print the version string and exit")
	cmd.Flags().BoolVar(&opts.printLong, "version", false, "print a multi-line version block and exit")

	return cmd
}

// listenUseConfig is --listen's NoOptDefVal: a bare "--listen" (no value)
// defers the bind address to the loaded config's websocket.addr instead of
// stdio, matching §6's "config supplies the --listen default" contract.
const listenUseConfig = "\x00config"

func runRoot(cmd *cobra.Command, args []string, opts *options) error {
	if opts.printVer {
		fmt.Fprintln(cmd.OutOrStdout(), version)
		return nil
	}
	if opts.printLong {
		fmt.Fprint(cmd.OutOrStdout(), versionBlock())
		return nil
	}
	if opts.listAdapt {
		printAdapterTable(os.Stdout)
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cliError{fmt.Errorf("--config %s: %w", opts.configPath, err)}
	}

	if !cmd.Flags().Changed("adapter") {
		opts.adapterName = cfg.Adapter
	}
	if !cmd.Flags().Changed("loglevel") {
		opts.loglevel = cfg.Logging.Level
	}
	if !cmd.Flags().Changed("logfile") && cfg.Logging.File != "" {
		opts.logfile = cfg.Logging.File
		opts.log = true
	}
	if opts.listen == listenUseConfig {
		opts.listen = cfg.WebSocket.Addr
	}

	logOpts := logging.Options{Enabled: opts.log, Level: opts.loglevel}
	if opts.logfile != "" {
		f, err := os.OpenFile(opts.logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return cliError{fmt.Errorf("cannot open --logfile: %w", err)}
		}
		defer f.Close()
		logOpts.Output = f
		logOpts.Enabled = true
	}
	logger := logging.New(logOpts)

	a, err := buildAdapter(opts.adapterName, logger)
	if err != nil {
		return cliError{err}
	}

	dbg := newSpinnerDebugger(debugger.New(logger.WithName("debugger")))
	eng := session.New(dbg, version, logger.WithName("session"))

	if len(args) > 0 {
		var target dbgproto.TargetConfig
		target.SetExecutable(args[0])
		target.SetArguments(args[1:])
		eng.SetTarget(target)
		logger.Info("target configured", "exec", shellescape.QuoteCommand(args))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	t, closeFn, err := buildTransport(ctx, opts.adapterName, opts.listen, cfg.WebSocket.IdleTimeout, logger)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	if err := eng.Run(ctx, a, t); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

// buildAdapter constructs the named protocol adapter. "mi" is accepted as
// an alias for the default MI dialect.
func buildAdapter(name string, log logr.Logger) (adapter.Adapter, error) {
	switch name {
	case "dap":
		return dap.New(log.WithName("dap")), nil
	case "mi":
		return mi.New(4, log.WithName("mi"))
	case "mi2":
		return mi.New(2, log.WithName("mi"))
	case "mi3":
		return mi.New(3, log.WithName("mi"))
	case "mi4":
		return mi.New(4, log.WithName("mi"))
	default:
		return nil, fmt.Errorf("unknown adapter %q (want dap|mi|mi2|mi3|mi4)", name)
	}
}

// buildTransport returns the stdio transport by default (Content-Length
// framed for dap, line-oriented for the MI adapters), or blocks until a
// single WebSocket peer upgrades at ws://addr/aliceserver when --listen is
// given. idleTimeout bounds how long it waits for that one peer; zero means
// wait indefinitely. The returned close func (non-nil only for --listen)
// releases the HTTP listener and the accepted connection.
func buildTransport(ctx context.Context, adapterName, addr string, idleTimeout time.Duration, log logr.Logger) (transport.Transport, func(), error) {
	if addr == "" {
		if adapterName == "dap" {
			return transport.NewHTTPStdio(os.Stdin, os.Stdout), nil, nil
		}
		return transport.NewLine(os.Stdin, os.Stdout), nil, nil
	}

	conn, srv, err := acceptOneWebSocketPeer(ctx, addr, idleTimeout, log)
	if err != nil {
		return nil, nil, fmt.Errorf("--listen %s: %w", addr, err)
	}
	return transport.NewWebSocket(conn), func() { conn.Close(); srv.Close() }, nil
}

// acceptOneWebSocketPeer mints a session id and serves a single upgrade at
// ws://addr/aliceserver?session=<uuid>, logging the URL so an operator can
// hand it to the client out of band. A peer that supplies its own ?session
// must match the minted id; unlike the hub fan-out a multi-client server
// would need, aliceserver is single-session, so the listener is torn down
// the moment one peer is in.
func acceptOneWebSocketPeer(ctx context.Context, addr string, idleTimeout time.Duration, log logr.Logger) (*websocket.Conn, *http.Server, error) {
	sessionID := uuid.New().String()
	log.Info("listening for websocket peer", "url", fmt.Sprintf("ws://%s/aliceserver?session=%s", addr, sessionID))

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	connCh := make(chan *websocket.Conn, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/aliceserver", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("session"); got != "" && got != sessionID {
			log.Info("rejecting websocket peer: unknown session id", "got", got)
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error(err, "websocket upgrade failed")
			return
		}
		log.Info("websocket peer connected", "session", sessionID)
		connCh <- conn
	})
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	waitCtx := ctx
	if idleTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, idleTimeout)
		defer cancel()
	}

	select {
	case conn := <-connCh:
		// Stop accepting further peers; the hijacked connection stays open.
		srv.Close()
		return conn, srv, nil
	case err := <-errCh:
		return nil, nil, err
	case <-waitCtx.Done():
		srv.Close()
		return nil, nil, fmt.Errorf("no websocket peer connected: %w", waitCtx.Err())
	}
}

func versionBlock() string {
	return heredoc.Docf(`
		aliceserver %s
		protocols: dap, mi2, mi3, mi4
		transports: stdio (line, http-stdio), websocket
	`, version)
}

func printAdapterTable(w *os.File) {
	if !term.IsTerminal(int(w.Fd())) {
		for _, a := range adapterDescriptions {
			fmt.Fprintf(w, "%s\t%s\n", a.name, a.desc)
		}
		return
	}

	headerStyle := lipgloss.NewStyle().Bold(true)
	cellStyle := lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ADAPTER", "DESCRIPTION").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, a := range adapterDescriptions {
		t = t.Row(a.name, a.desc)
	}
	fmt.Fprintln(w, t.Render())
}

// newSpinnerDebugger wraps dbg so Launch/Attach show a stderr-only
// spinner while blocked on the initial ptrace stop. stdout/stdin carry
// the wire protocol and must never see incidental output.
func newSpinnerDebugger(dbg debugger.Debugger) debugger.Debugger {
	return &spinnerDebugger{Debugger: dbg}
}

type spinnerDebugger struct {
	debugger.Debugger
}

func (s *spinnerDebugger) Launch(ctx context.Context, exec string, args []string, cwd string) error {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = " waiting for initial stop"
	sp.Start()
	defer sp.Stop()
	return s.Debugger.Launch(ctx, exec, args, cwd)
}

func (s *spinnerDebugger) Attach(ctx context.Context, pid int) error {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = " waiting for initial stop"
	sp.Start()
	defer sp.Stop()
	return s.Debugger.Attach(ctx, pid)
}
