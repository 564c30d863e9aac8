package main

import (
	"fmt"
	"os"

	"github.com/XiaoConstantine/cort-go/pkg/cort"
	"github.com/XiaoConstantine/cort-go/pkg/logger"
	"github.com/XiaoConstantine/cort-go/pkg/providers"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// buildEngine wires a provider client and an engine from the merged
// configuration. The returned logger is nil unless --log-dir is set; the
// caller owns closing it.
func buildEngine() (*cort.Engine, *logger.Logger, error) {
	provider := providers.Provider(viper.GetString("provider"))
	if !provider.Valid() {
		return nil, nil, fmt.Errorf("unknown provider: %s", provider)
	}

	model := viper.GetString("model")
	if model == "" {
		model = providers.DefaultModel(provider)
	}
	verbose := viper.GetBool("verbose")

	apiKey, err := resolveAPIKey(provider)
	if err != nil {
		return nil, nil, err
	}

	var client providers.Client
	if provider == providers.LMStudio {
		client = providers.NewLMStudioClient(viper.GetString("api-url"), model, verbose)
	} else {
		client, err = providers.New(provider, apiKey, model, verbose)
		if err != nil {
			return nil, nil, err
		}
	}

	var log *logger.Logger
	if dir := viper.GetString("log-dir"); dir != "" {
		log, err = logger.New(dir, logger.Config{
			Provider:        string(provider),
			Model:           model,
			NumAlternatives: viper.GetInt("alternatives"),
			MaxTokens:       viper.GetInt("max-tokens"),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create logger: %w", err)
		}
	}

	opts := []cort.Option{
		cort.WithNumAlternatives(viper.GetInt("alternatives")),
		cort.WithMaxTokens(viper.GetInt("max-tokens")),
		cort.WithVerbose(verbose),
	}
	if rounds := viper.GetInt("rounds"); rounds > 0 {
		opts = append(opts, cort.WithRounds(rounds))
	}
	if log != nil {
		opts = append(opts, cort.WithLogger(log))
	}
	if viper.GetBool("stream") {
		opts = append(opts,
			cort.WithStreaming(true),
			cort.WithStreamHandler(func(chunk string, done bool) error {
				if chunk != "" {
					fmt.Print(chunk)
				}
				if done {
					fmt.Println()
				}
				return nil
			}),
		)
	}

	return cort.New(client, opts...), log, nil
}

// resolveAPIKey reads the provider's key from its canonical environment
// variable, prompting on the terminal as a fallback. Keys never live in
// process-wide mutable state; they flow into the client constructor only.
func resolveAPIKey(p providers.Provider) (string, error) {
	envKey := p.EnvKey()
	if envKey == "" {
		return "", nil
	}
	if key := os.Getenv(envKey); key != "" {
		return key, nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintf(os.Stderr, "Enter %s: ", envKey)
		keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read api key: %w", err)
		}
		if len(keyBytes) > 0 {
			return string(keyBytes), nil
		}
	}

	return "", fmt.Errorf("%s environment variable not set", envKey)
}
