package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/coop-arena/internal/core"
	"github.com/vovakirdan/coop-arena/internal/gateway"
	"github.com/vovakirdan/coop-arena/internal/multiplayer"
	"github.com/vovakirdan/coop-arena/internal/platform/tui"
	"github.com/vovakirdan/coop-arena/internal/storage"
)

var (
	flagAddr        string
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
	flagTickRate    int
	flagSeed        int64
	flagConsole     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the arena server",
	Long: `Start the game server. Clients connect to /ws with a bearer token and
exchange join, input and state messages; transactional requests (damage,
kills, respawns, buffs, skills) go to the HTTP API under /api.

Player profiles and session results are stored in the --db database. If
the database cannot be opened the server runs without persistence.

Operator console:
  --ssh <addr>   serve the console over SSH (host key at ~/.arena/host_key
                 unless --host-key is given)
  --console      run the console on this terminal

Examples:
  arena serve --token-secret dev
  arena serve --addr :9000 --tick-rate 30
  arena serve --ssh :23234 --console`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8080", "HTTP/websocket listen address")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH console address (disabled when empty)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to SSH host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "SSH idle timeout in minutes")
	serveCmd.Flags().IntVar(&flagTickRate, "tick-rate", 20, "Simulation ticks per second")
	serveCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	serveCmd.Flags().BoolVar(&flagConsole, "console", false, "Run the operator console on this terminal")
}

func runServe(_ *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	if flagTokenSecret == "" {
		return errors.New("a token secret is required (--token-secret or ARENA_TOKEN_SECRET)")
	}
	if flagTickRate <= 0 {
		return fmt.Errorf("invalid tick rate %d", flagTickRate)
	}
	wc, err := loadWorld()
	if err != nil {
		return err
	}

	consoleFD := int(os.Stdout.Fd())
	if flagConsole && !term.IsTerminal(consoleFD) {
		return errors.New("--console needs an interactive terminal")
	}

	cfg := multiplayer.DefaultCoordinatorConfig()
	cfg.TickRate = flagTickRate
	cfg.Seed = flagSeed
	if wc.Combat.EmptySessionTTL > 0 {
		cfg.EmptySessionTTL = time.Duration(wc.Combat.EmptySessionTTL * float64(time.Second))
	}
	coord := multiplayer.NewCoordinator(cfg, &wc, logger)

	var results tui.ResultSource
	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open database, running without persistence", "path", flagDBPath, "error", err)
	} else {
		defer store.Close()
		coord.SetProfileStore(store)
		coord.SetResultSaver(store)
		results = store
	}

	gw := gateway.New(coord, gateway.NewHMACValidator([]byte(flagTokenSecret)), gateway.DefaultConfig(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord.Start()
	go gw.Run(ctx)

	errCh := make(chan error, 2)
	httpSrv := &http.Server{
		Addr:              flagAddr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting game server", "address", flagAddr, "tick_rate", flagTickRate)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	bounds := core.NewBounds(wc.World.Width, wc.World.Height)
	var sshSrv *tui.SSHServer
	if flagSSHAddr != "" {
		sshSrv, err = tui.NewSSHServer(tui.SSHServerConfig{
			Address:     flagSSHAddr,
			HostKeyPath: flagHostKey,
			IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		}, coord, results, bounds, logger)
		if err != nil {
			stop()
			shutdown(httpSrv, nil, coord)
			return err
		}
		go func() {
			if err := sshSrv.ListenAndServe(); err != nil {
				errCh <- fmt.Errorf("ssh server: %w", err)
			}
		}()
	}

	var runErr error
	if flagConsole {
		// The console owns the terminal.
		logger.SetOutput(io.Discard)
		w, h, sizeErr := term.GetSize(consoleFD)
		if sizeErr != nil {
			w, h = 100, 30
		}
		runErr = tui.Run(ctx, tui.NewModel(coord, results, bounds, w, h))
		logger.SetOutput(os.Stderr)
	} else {
		select {
		case <-ctx.Done():
		case runErr = <-errCh:
		}
	}

	logger.Info("shutting down...")
	stop()
	shutdown(httpSrv, sshSrv, coord)
	return runErr
}

func shutdown(httpSrv *http.Server, sshSrv *tui.SSHServer, coord *multiplayer.Coordinator) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctx) //nolint:errcheck // best-effort on exit
	if sshSrv != nil {
		_ = sshSrv.Shutdown(ctx) //nolint:errcheck // best-effort on exit
	}
	coord.Stop()
}
