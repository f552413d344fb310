package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"review-simulator/internal/backend"
	"review-simulator/internal/shared/config"
	"review-simulator/internal/shared/telemetry"
	"review-simulator/internal/tui"
	"review-simulator/internal/wizard"
)

var (
	apiURL   string
	apiToken string
	model    string
	timeout  time.Duration
	logLevel string
	logFile  string

	productURL string
	runAll     bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Simulate customer reviews for a product from the terminal",
	Long: `wizard walks a product through the review simulator:
analyze the product page, configure the reviewer population, generate
reviewer profiles and reviews, then read the analysis dashboard.

Run without arguments to start the interactive wizard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("api-url") {
			cfg.BackendURL = apiURL
		}
		if cmd.Flags().Changed("token") {
			cfg.BackendToken = apiToken
		}
		if cmd.Flags().Changed("model") {
			cfg.Model = model
		}
		if cmd.Flags().Changed("timeout") {
			cfg.BackendTimeout = timeout
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}

		// stdout belongs to the wizard, logs go elsewhere
		switch {
		case logFile != "":
			return telemetry.InitFile(cfg.LogLevel, logFile)
		case !cmd.HasParent():
			telemetry.SetLogger(zap.NewNop())
			return nil
		default:
			return telemetry.InitFile(cfg.LogLevel, "stderr")
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		telemetry.Sync()
	},
	RunE: runInteractive,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every phase without the interactive UI and print the dashboard",
	Long: `Runs the wizard headlessly against --url. By default each phase is
requested in turn; --all asks the backend for the whole pipeline in a
single call.

Example:
  wizard run --url https://shop.example.com/p/123
  wizard run --url https://shop.example.com/p/123 --all`,
	RunE: runHeadless,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "generation backend base URL (default from REVIEWSIM_API_URL)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "bearer token for the backend")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model name forwarded to the backend")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-request backend timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file")

	runCmd.Flags().StringVar(&productURL, "url", "", "product page URL")
	runCmd.Flags().BoolVar(&runAll, "all", false, "run the whole pipeline in one backend call")
	_ = runCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newController() (*wizard.Controller, error) {
	client, err := backend.NewHTTPClient(backend.Options{
		BaseURL: cfg.BackendURL,
		Token:   cfg.BackendToken,
		Timeout: cfg.BackendTimeout,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, err
	}
	return wizard.New(client), nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl, err := newController()
	if err != nil {
		return err
	}
	// an unreachable backend only means there is nothing to restore
	_ = ctrl.Hydrate(ctx)
	ctrl.DismissError()

	p := tea.NewProgram(tui.New(ctx, ctrl, tui.DefaultStyles()), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("wizard: %w", err)
	}
	return nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl, err := newController()
	if err != nil {
		return err
	}

	var steps []func(context.Context) error
	if runAll {
		steps = append(steps, func(ctx context.Context) error { return ctrl.RunAll(ctx, productURL) })
	} else {
		steps = append(steps,
			func(ctx context.Context) error { return ctrl.AnalyzeProduct(ctx, productURL) },
			ctrl.GenerateBots,
			ctrl.GenerateReviews,
			ctrl.GenerateAnalysis,
		)
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), tui.Report(ctrl.View()))
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.Report(ctrl.View()))
	return nil
}
