package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/foxseedlab/mensetsu/internal/backend"
	"github.com/foxseedlab/mensetsu/internal/chatlog"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/foxseedlab/mensetsu/internal/session"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var (
		interviewID    string
		showTranscript bool
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server progress and archived sessions for an interview",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mustLoadConfig()
			initLogger(cfg, os.Stderr)
			injector := setupDI(cfg)

			client, err := do.Invoke[backend.Client](injector)
			if err != nil {
				return fmt.Errorf("failed to resolve backend client: %w", err)
			}
			repo, err := do.Invoke[repository.Repository](injector)
			if err != nil {
				return fmt.Errorf("failed to resolve repository: %w", err)
			}
			// Only the read paths are needed, so no media or speech is resolved.
			manager := session.NewManager(session.OptionsFromConfig(cfg), session.Deps{Client: client, Repository: repo})

			st, err := manager.Status(cmd.Context(), interviewID)
			if err != nil {
				return err
			}
			history, err := manager.History(cmd.Context(), interviewID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printStatus(out, cfg, interviewID, st, history)
			if !showTranscript || len(history) == 0 {
				return nil
			}
			messages, err := manager.Transcript(cmd.Context(), history[0].ID)
			if err != nil {
				return err
			}
			printTranscript(out, cfg, messages)
			return nil
		},
	}
	cmd.Flags().StringVar(&interviewID, "interview", "", "interview id issued by the server")
	cmd.Flags().BoolVar(&showTranscript, "transcript", false, "print the chat of the most recent archived session")
	_ = cmd.MarkFlagRequired("interview")
	return cmd
}

func printStatus(w io.Writer, cfg *config.Config, interviewID string, st backend.Status, history []repository.Interview) {
	fmt.Fprintf(w, "interview %s: %s (%d/%d answered, report available: %t)\n",
		interviewID, st.Status, st.AnsweredQuestions, st.TotalQuestions, st.ReportAvailable)
	if len(history) == 0 {
		fmt.Fprintln(w, "no archived sessions")
		return
	}

	loc := session.OptionsFromConfig(cfg).Location
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STARTED", "ENDED", "STATUS", "REASON", "ANSWERED", "DURATION")
	for _, iv := range history {
		t.Row(
			iv.StartedAt.In(loc).Format("2006-01-02 15:04"),
			iv.EndedAt.In(loc).Format("15:04"),
			string(iv.Status),
			iv.EndReason,
			strconv.Itoa(iv.AnsweredQuestions)+"/"+strconv.Itoa(iv.TotalQuestions),
			strconv.FormatInt(iv.DurationSeconds, 10)+"s",
		)
	}
	fmt.Fprintln(w, t.String())
}

func printTranscript(w io.Writer, cfg *config.Config, messages []repository.ChatMessage) {
	loc := session.OptionsFromConfig(cfg).Location
	fmt.Fprintln(w)
	for _, m := range messages {
		msg := chatlog.Message{Role: chatlog.Role(m.Role), Text: m.Content, Timestamp: m.SentAt}
		fmt.Fprintln(w, chatlog.Format(msg, loc))
	}
}
