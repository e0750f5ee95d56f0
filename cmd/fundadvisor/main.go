// Fund Advisor — conversational mutual-fund advisory assistant.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jefftan83/ai-find-fund/internal/advisor"
	"github.com/jefftan83/ai-find-fund/internal/cache"
	"github.com/jefftan83/ai-find-fund/internal/config"
	"github.com/jefftan83/ai-find-fund/internal/fundata"
	"github.com/jefftan83/ai-find-fund/internal/infra"
	"github.com/jefftan83/ai-find-fund/internal/llm"
	"github.com/jefftan83/ai-find-fund/internal/news"
	"github.com/jefftan83/ai-find-fund/internal/providers"
	"github.com/jefftan83/ai-find-fund/internal/screener"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// navHistoryDays is how much NAV history the resolver keeps on hand for
// performance statistics. A year covers the annualized figures.
const navHistoryDays = 365

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fundadvisor",
	Short: "Conversational mutual-fund advisory assistant",
	Long: `Fund Advisor
A staged conversational assistant for Chinese open-end fund investing:
it collects your investment profile, assesses a risk tier, screens the
fund universe against that tier, and delivers a validated, allocation-
level recommendation you can question in follow-up turns.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
}

// newLogger builds the process logger from config, honoring the --log-level
// override.
func newLogger(cmd *cobra.Command) zerolog.Logger {
	levelName := cfg.Logging.Level
	if override, _ := cmd.Flags().GetString("log-level"); override != "" {
		levelName = override
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.Logging.Format == "console" {
		out := zerolog.ConsoleWriter{Out: os.Stderr}
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

// --- Start Command (interactive consultation) ---

var startCmd = &cobra.Command{
	Use:     "start",
	Aliases: []string{"chat"},
	Short:   "Start an interactive advisory consultation",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)

		store, err := cache.Open(cfg.Data.DBPath, log)
		if err != nil {
			return fmt.Errorf("open fund cache: %w", err)
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if days := cfg.Data.RetainHistoryDays; days > 0 {
			if n, err := store.PurgeOlderThan(ctx, days); err == nil && n > 0 {
				log.Debug().Int64("rows", n).Msg("purged old NAV history")
			}
		}

		sup := infra.NewSupervisor(log)
		resolver := fundata.New(store, providers.Build(cfg.Data, log), sup, cfg.Data, navHistoryDays, log)

		var generator llm.Provider
		if cfg.LLM.Configured() {
			opts := []llm.AnthropicOption{}
			if cfg.LLM.Model != "" {
				opts = append(opts, llm.WithAnthropicModel(cfg.LLM.Model))
			}
			if cfg.LLM.BaseURL != "" {
				opts = append(opts, llm.WithAnthropicBaseURL(cfg.LLM.BaseURL))
			}
			generator, err = llm.NewAnthropicProvider(cfg.LLM.AnthropicKey, opts...)
			if err != nil {
				return fmt.Errorf("build generator: %w", err)
			}
		} else {
			log.Warn().Msg("no Anthropic API key configured; conversation will be unavailable")
		}

		adv := advisor.New(advisor.Config{
			Provider:      generator,
			Resolver:      resolver,
			Screener:      screener.New(cfg.Advisor.ShortlistSize, log),
			News:          news.New(cfg.News.FeedURLs, log),
			MaxAttempts:   cfg.Advisor.MaxAttempts,
			HistoryWindow: cfg.Advisor.HistoryWindow,
			NewsItems:     cfg.News.MaxItems,
			Logger:        log,
		})

		fmt.Println("💬 Fund Advisor — type \"exit\" to quit, \"restart\" to start over")
		fmt.Println()
		fmt.Printf("advisor> %s\n", adv.Greeting())

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("you> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "exit" || line == "quit" {
				break
			}
			if ctx.Err() != nil {
				break
			}
			fmt.Printf("advisor> %s\n\n", adv.Process(ctx, line))
		}

		fmt.Println("\nGoodbye.")
		sup.Wait()
		return scanner.Err()
	},
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Fund Advisor %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and data-source status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  Fund Advisor — Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Model:          %s\n", cfg.LLM.Model)
		fmt.Printf("    Anthropic key:  %s\n", keyStatus(cfg.LLM.AnthropicKey))
		fmt.Printf("    Tushare token:  %s\n", keyStatus(cfg.Data.TushareToken))
		fmt.Printf("    Fund cache:     %s\n", cfg.Data.DBPath)
		fmt.Printf("    Providers:      %s\n", strings.Join(cfg.Data.Providers, ", "))
		fmt.Println()

		fmt.Println("  Staleness windows:")
		fmt.Printf("    NAV:            %dd\n", cfg.Data.NAVStaleDays)
		fmt.Printf("    Fund profile:   %dd\n", cfg.Data.BasicStaleDays)
		fmt.Printf("    Fund list:      %dh\n", cfg.Data.ListStaleHours)
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func keyStatus(key string) string {
	if key == "" {
		return "❌ not set"
	}
	masked := key
	if len(masked) > 8 {
		masked = masked[:4] + "…" + masked[len(masked)-4:]
	}
	return fmt.Sprintf("✅ set (%s)", masked)
}
