package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var askJSON bool

// askResult is the machine-readable output of a one-shot query.
type askResult struct {
	Response        string `json:"response"`
	PlannedRounds   int    `json:"planned_rounds"`
	CompletedRounds int    `json:"completed_rounds"`
	Truncated       bool   `json:"truncated"`
	Tokens          struct {
		Prompt     int `json:"prompt"`
		Completion int `json:"completion"`
		Total      int `json:"total"`
	} `json:"tokens"`
}

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Run a single query through the recursive-thinking loop",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, log, err := buildEngine()
		if err != nil {
			return err
		}
		if log != nil {
			defer func() { _ = log.Close() }()
		}

		query := strings.Join(args, " ")
		session, err := engine.ThinkAndRespond(context.Background(), query)
		if err != nil {
			return err
		}

		usage := engine.Usage()
		if askJSON {
			out := askResult{
				Response:        session.FinalResponse,
				PlannedRounds:   session.PlannedRounds,
				CompletedRounds: session.CompletedRounds(),
				Truncated:       session.Truncated,
			}
			out.Tokens.Prompt = usage.PromptTokens
			out.Tokens.Completion = usage.CompletionTokens
			out.Tokens.Total = usage.TotalTokens
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Rounds: %d/%d", session.CompletedRounds(), session.PlannedRounds)
			if session.Truncated {
				fmt.Fprint(os.Stderr, " (truncated)")
			}
			fmt.Fprintf(os.Stderr, "\nTokens: %d prompt + %d completion = %d total\n",
				usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
		}
		fmt.Println(session.FinalResponse)
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output result as JSON")
	rootCmd.AddCommand(askCmd)
}
