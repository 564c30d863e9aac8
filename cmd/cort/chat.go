package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/XiaoConstantine/cort-go/pkg/core"
	"github.com/XiaoConstantine/cort-go/pkg/export"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runChat is the interactive shell: free-text queries are dispatched to the
// engine, and save commands export the last completed session.
func runChat(cmd *cobra.Command, args []string) error {
	engine, log, err := buildEngine()
	if err != nil {
		return err
	}
	if log != nil {
		defer func() { _ = log.Close() }()
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Logging to: %s\n", log.Path())
		}
	}

	responsesDir := viper.GetString("responses-dir")

	fmt.Println("cort - Chain of Recursive Thoughts")
	fmt.Println("Type 'exit' to quit, 'save' for a compact log, 'save full' for the full log, 'save md' for markdown.")
	fmt.Printf("Alternatives per round: %d\n\n", viper.GetInt("alternatives"))

	var lastSession *core.Session

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			return scanner.Err()
		case "save":
			saveSession(lastSession, "compact")
			continue
		case "save full":
			saveSession(lastSession, "full")
			continue
		case "save md":
			saveMarkdown(lastSession, responsesDir)
			continue
		}

		session, err := engine.ThinkAndRespond(context.Background(), input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		lastSession = session

		fmt.Println("\n" + strings.Repeat("=", 50))
		fmt.Println(session.FinalResponse)
		fmt.Println(strings.Repeat("=", 50))
		if session.Truncated {
			fmt.Printf("(thinking ended early after %d of %d rounds)\n",
				session.CompletedRounds(), session.PlannedRounds)
		}
		fmt.Println()

		// Every response is also kept as markdown for later reading.
		saveMarkdown(session, responsesDir)
	}

	return scanner.Err()
}

// saveSession writes a compact or full JSON export of the session to the
// working directory.
func saveSession(s *core.Session, mode string) {
	if s == nil {
		fmt.Println("No response to save yet.")
		return
	}

	var data []byte
	var err error
	var prefix string
	if mode == "full" {
		data, err = export.Full(s)
		prefix = "full_thinking_log"
	} else {
		data, err = export.Compact(s)
		prefix = "chat_history"
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	filename := fmt.Sprintf("%s_%s.json", prefix, time.Now().Format("20060102_150405"))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", filename, err)
		return
	}
	fmt.Printf("Saved to %s\n", filename)
}

// saveMarkdown writes the session's thinking report into dir.
func saveMarkdown(s *core.Session, dir string) {
	if s == nil {
		fmt.Println("No response to save yet.")
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", dir, err)
		return
	}

	path := filepath.Join(dir, export.MarkdownFilename(s.Query, time.Now()))
	if err := os.WriteFile(path, export.Markdown(s), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
		return
	}
	fmt.Printf("Response saved as markdown to %s\n", path)
}
