package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/pizzeria-pos/waiter/internal/common/httpclient"
	"github.com/pizzeria-pos/waiter/internal/common/logtrace"
	"github.com/pizzeria-pos/waiter/internal/config"
	"github.com/pizzeria-pos/waiter/internal/notice"
	"github.com/pizzeria-pos/waiter/internal/pos"
	"github.com/pizzeria-pos/waiter/internal/session"
	"github.com/pizzeria-pos/waiter/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds the flags and the components of one CLI invocation.
type app struct {
	configFile string
	jsonOutput bool
	verbose    bool

	cfg      *config.Config
	store    storage.Store
	client   *httpclient.HTTPClient
	bus      *notice.Bus
	notices  <-chan notice.Event
	unsub    func()
	sessions *session.Manager
	orders   *pos.Service
}

// skipsSetup reports whether cmd runs without a loaded config and session.
func skipsSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "config", "version", "help", "completion":
			return true
		}
	}
	return false
}

func (a *app) configPath() (string, error) {
	if a.configFile != "" {
		return a.configFile, nil
	}
	return config.GetDefaultConfigPath()
}

// setup loads the configuration, wires the components and restores the session.
func (a *app) setup(cmd *cobra.Command) error {
	file, err := a.configPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(file)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	logtrace.InitLoggerWithWriter(level, cmd.ErrOrStderr())

	a.store = storage.NewFileStore(cfg.StorageFile)
	a.client = httpclient.NewClient(cfg, httpclient.ClientOptions{
		DisableCertValidation: cfg.InsecureSkipVerify,
	})
	a.bus = notice.NewBus()
	a.notices, a.unsub = a.bus.Subscribe(64)
	a.sessions = session.NewManager(a.store, a.client, a.bus)
	a.orders = pos.NewService(a.store, a.client, a.bus)

	if _, err := a.sessions.Restore(cmdContext(cmd)); err != nil {
		return err
	}
	log.Debug().
		Str("command", cmd.CommandPath()).
		Str("session", a.sessions.State().String()).
		Msg("ready")
	return nil
}

// requireSession gates commands that need a signed-in user.
func (a *app) requireSession() error {
	if a.sessions == nil || !a.sessions.IsAuthenticated() {
		return ErrNotSignedIn
	}
	return nil
}

// flushNotices prints the notices published during the command and returns how many
// were failures.
func (a *app) flushNotices(w io.Writer) int {
	if a.bus == nil {
		return 0
	}
	failures := 0
	for _, ev := range notice.Drain(a.notices) {
		n := ev.Notice
		if n.Level == notice.LevelFailure {
			failures++
		}
		if a.jsonOutput {
			printJSON(w, n)
			continue
		}
		if n.Level == notice.LevelFailure {
			errorLabel.Fprintf(w, "✗ %s\n", n.Message)
		} else {
			fmt.Fprintf(w, "%s\n", n.Message)
		}
	}
	return failures
}

func (a *app) close() {
	if a.unsub != nil {
		a.unsub()
	}
	if a.bus != nil {
		a.bus.Shutdown()
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
