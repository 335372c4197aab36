package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/aman-churiwal/getyoursite/internal/models"
	"github.com/aman-churiwal/getyoursite/internal/repository"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const inboxPreviewLength = 60

func newInboxCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Print the most recent contact messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			postgres, err := openPostgres(cfg, logger)
			if err != nil {
				return err
			}
			defer postgres.Close()

			submissions, err := repository.NewSubmissionRepository(postgres).List(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderInbox(submissions))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", repository.DefaultListLimit, "maximum number of messages to show")
	return cmd
}

// renderInbox lays submissions out newest first, the order List returns.
func renderInbox(submissions []models.Submission) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Received", "From", "Subject", "Message", "Read"})

	unread := 0
	for _, s := range submissions {
		read := "yes"
		if !s.Read {
			read = "no"
			unread++
		}
		t.AppendRow(table.Row{
			s.CreatedAt.UTC().Format(time.DateTime),
			fmt.Sprintf("%s <%s>", s.Name, s.Email),
			s.Subject,
			preview(s.Message),
			read,
		})
	}

	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d messages, %d unread", len(submissions), unread), ""})
	return t.Render()
}

func preview(message string) string {
	flat := strings.Join(strings.Fields(message), " ")
	runes := []rune(flat)
	if len(runes) <= inboxPreviewLength {
		return flat
	}
	return string(runes[:inboxPreviewLength-3]) + "..."
}
