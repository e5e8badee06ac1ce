package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/lumira/internal/handler"
)

func main() {
	// A missing .env file is the normal case.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lumira",
		Short: "Tutoring bot that explains topics, tests and walks through problems",
	}

	serve := serveCmd()
	root.AddCommand(serve, chatCmd(), exportCmd(), hashTokenCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `lumira --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// addBotFlags registers the flags shared by every command that talks to the LLM.
func addBotFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("llm-provider", providerOpenAI, "LLM provider (openai, anthropic)")
	f.String("llm-url", "http://localhost:11434/v1", "LLM API base URL (empty for the provider default)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.Duration("llm-timeout", 60*time.Second, "Timeout of a single LLM call")
	f.Int("llm-retries", 2, "Retries for transient LLM failures")
	f.Int("history-limit", 10, "Tutor history entries sent per request")
	f.Int("max-steps", 3, "Maximum steps of a problem walkthrough")
	f.StringP("lang", "l", "ru", "Language of replies (ru, en)")
	f.String("db", ":memory:", "SQLite results journal path")
	f.String("prompts", "", "YAML file overriding built-in prompts")
	addLogFlags(cmd)
}

func addLogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and, with a token, the Telegram bot",
		RunE:  runServe,
	}
	addBotFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("telegram-token", "", "Telegram bot token (or set LUMIRA_TELEGRAM_TOKEN)")
	f.String("api-token-hash", "", "bcrypt hash of the /api bearer token (see hash-token)")
	return cmd
}

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot in the terminal",
		RunE:  runChat,
	}
	addBotFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the results journal as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "lumira.db", "SQLite results journal path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd)
	return cmd
}

func hashTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-token TOKEN",
		Short: "Print the bcrypt hash to pass as --api-token-hash",
		Args:  cobra.ExactArgs(1),
		RunE:  runHashToken,
	}
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("LUMIRA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("lumira")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/lumira")
	v.AddConfigPath("/etc/lumira")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runHashToken(_ *cobra.Command, args []string) error {
	hash, err := handler.HashToken(args[0])
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
