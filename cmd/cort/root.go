package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "cort",
	Short:   "Chain of Recursive Thoughts chat",
	Long:    "cort refines every response through rounds of self-generated alternatives and self-evaluation before answering.",
	Version: Version,
	RunE:    runChat,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.config/cort/config.yaml)")
	rootCmd.PersistentFlags().String("provider", "anthropic", "LLM provider (anthropic, openai, gemini, deepseek, openrouter, lmstudio)")
	rootCmd.PersistentFlags().String("model", "", "model name (provider default when empty)")
	rootCmd.PersistentFlags().Int("alternatives", 3, "alternatives generated per round")
	rootCmd.PersistentFlags().Int("rounds", 0, "force the round count 1-5 (0 lets the model decide)")
	rootCmd.PersistentFlags().Int("max-tokens", 4096, "token budget per backend call")
	rootCmd.PersistentFlags().Bool("stream", false, "stream responses as they arrive")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose progress output")
	rootCmd.PersistentFlags().String("log-dir", "", "directory for JSONL session logs (optional)")
	rootCmd.PersistentFlags().String("responses-dir", "responses", "directory for auto-saved markdown responses")
	rootCmd.PersistentFlags().String("api-url", "", "base URL for a local LM Studio server")

	for _, flag := range []string{
		"provider", "model", "alternatives", "rounds", "max-tokens",
		"stream", "verbose", "log-dir", "responses-dir", "api-url",
	} {
		_ = viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag))
	}
}

// initConfig merges the config file, CORT_* environment variables, and
// flags, flags winning.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "cort"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}
