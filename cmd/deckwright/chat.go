package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/deckwright/deckwright"
	"github.com/deckwright/deckwright/internal/presentation/tui"
	"github.com/deckwright/deckwright/pkg/workflow"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive outline-building session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		app, err := buildApp(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer app.Sessions.Flush()

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = "chat_" + uuid.NewString()[:8]
		}
		userID := os.Getenv("USER")
		if userID == "" {
			userID = "local"
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tui.PrintBanner(deckwright.Version)
		render := tui.NewRenderer()

		greeting, err := app.Machine.Greet(ctx, sessionID, userID)
		if err != nil {
			return fmt.Errorf("failed to open session: %w", err)
		}
		printArtifact(render, &greeting.Artifact)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "/quit" || line == "/exit" {
				return nil
			}

			res, err := app.Machine.AdvanceWithRetry(ctx, sessionID, userID, line)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			printArtifact(render, &res.Artifact)
		}
	},
}

func printArtifact(render func(string) (string, error), art *workflow.Artifact) {
	var md strings.Builder
	md.WriteString(art.Text + "\n")
	if art.SubTitle != "" {
		md.WriteString("\n*" + art.SubTitle + "*\n")
	}
	for _, item := range art.ListItems {
		md.WriteString("\n- " + item)
	}
	if len(art.ListItems) > 0 {
		md.WriteString("\n")
	}
	if art.Outline != nil {
		md.WriteString("\n" + tui.OutlineMarkdown(art.Outline, art.AffectedSlideIDs))
	}
	for _, c := range art.Choices {
		md.WriteString(fmt.Sprintf("\n`%s` %s", c.Value, c.Label))
	}

	out, err := render(md.String())
	if err != nil {
		out = md.String()
	}
	fmt.Print(out)
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("session", "", "Resume a named session instead of starting fresh")
}
