package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/young1lin/groundsearch/internal/cli"
	"github.com/young1lin/groundsearch/internal/config"
	"github.com/young1lin/groundsearch/internal/handler"
	"github.com/young1lin/groundsearch/internal/i18n"
	"github.com/young1lin/groundsearch/internal/metrics"
	"github.com/young1lin/groundsearch/internal/models"
	"github.com/young1lin/groundsearch/internal/orchestrator"
	"github.com/young1lin/groundsearch/internal/presenter"
	"github.com/young1lin/groundsearch/internal/search"
	"github.com/young1lin/groundsearch/pkg/logger"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
)

var (
	cfgFile string
	port    int
	showVer bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "groundsearch",
	Short: "Web search answers grounded by Gemini and Google Search",
	Long: `A search page that sends each query to Gemini with Google Search
grounding and shows the answer next to the web sources it cites.
Without a subcommand it serves the page over HTTP.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVer {
			fmt.Printf("groundsearch %s (built %s)\n", Version, BuildDate)
			return nil
		}

		cfg, err := loadConfig("")
		if err != nil {
			return err
		}
		defer logger.Sync()

		// Override config with command line flags
		if port > 0 {
			cfg.Server.Port = port
		}

		logger.Info("starting server",
			zap.String("version", Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.String("model", cfg.Gemini.Model),
		)

		return startServer(cfg)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <query...>",
	Short: "Run one search and print the answer with its sources",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		term, cleanup, err := newTerminal(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		state, err := term.Ask(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if state.Status == models.StatusError {
			return errors.New("search failed")
		}
		return nil
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Search interactively from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
		defer stop()

		term, cleanup, err := newTerminal(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		return term.RunREPL(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ./config.yaml or ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log at the configured level in terminal commands")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	rootCmd.Flags().BoolVarP(&showVer, "version", "v", false, "show version")

	rootCmd.AddCommand(askCmd, replCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads and validates the configuration and starts the logger.
// level overrides the configured log level when not empty.
func loadConfig(level string) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if level == "" {
		level = cfg.Logging.Level
	}
	if err := logger.Init(level, cfg.Logging.Format); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newTerminal builds a controller for a terminal command. Logs stay quiet
// unless --verbose so they do not interleave with the rendered output.
func newTerminal(ctx context.Context) (*cli.Terminal, func(), error) {
	level := "error"
	if verbose {
		level = ""
	}
	cfg, err := loadConfig(level)
	if err != nil {
		return nil, nil, err
	}

	provider, err := search.NewGeminiProvider(ctx, &cfg.Gemini, nil)
	if err != nil {
		return nil, nil, err
	}

	tr, err := i18n.New(cfg.UI.Language)
	if err != nil {
		return nil, nil, err
	}

	ctrl := orchestrator.New(provider,
		orchestrator.WithLogger(logger.Named("cli")),
		orchestrator.WithContext(ctx),
	)
	term := cli.NewTerminal(ctrl, presenter.Options{
		Suggestions:   cfg.UI.Suggestions,
		TitleMaxRunes: cfg.UI.TitleMaxRunes,
		Translator:    tr,
	}, os.Stdout)

	return term, func() {
		ctrl.Close()
		logger.Sync()
	}, nil
}

func startServer(cfg *config.Config) error {
	provider, err := search.NewGeminiProvider(context.Background(), &cfg.Gemini, nil)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(Version)
	}

	h, err := handler.NewHandler(cfg, provider, m)
	if err != nil {
		return err
	}

	// ReadTimeout would also apply to hijacked websocket connections, so only
	// the header read is bounded.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	fmt.Printf(`
  groundsearch %s
  Page:    http://%s/
  Health:  http://%s/health
  Model:   %s

`, Version, srv.Addr, srv.Addr, cfg.Gemini.Model)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			return err
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down server...")

	// Graceful shutdown. Hijacked websockets are not tracked by Shutdown and
	// end with the process.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("server stopped")
	return nil
}
