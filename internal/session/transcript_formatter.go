package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/foxseedlab/mensetsu/internal/chatlog"
	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/foxseedlab/mensetsu/internal/webhook"
)

const transcriptTimeLayout = "2006-01-02 15:04:05"

type transcriptMeta struct {
	InterviewID       string
	StartedAt         time.Time
	EndedAt           time.Time
	Timezone          string
	EndReason         EndReason
	TotalQuestions    int
	AnsweredQuestions int
	Completion        EndResult
	RecordingPath     string
}

func (m transcriptMeta) durationSeconds() int64 {
	d := int64(m.EndedAt.Sub(m.StartedAt).Seconds())
	if d < 0 {
		return 0
	}
	return d
}

func buildTranscriptText(meta transcriptMeta, loc *time.Location, messages []chatlog.Message) string {
	loc = safeLocation(loc)
	startText := meta.StartedAt.In(loc).Format(transcriptTimeLayout)
	endText := meta.EndedAt.In(loc).Format(transcriptTimeLayout)

	lines := []string{
		fmt.Sprintf("Interview: %s", meta.InterviewID),
		fmt.Sprintf("Period: %s ~ %s (%s)", startText, endText, meta.Timezone),
		fmt.Sprintf("Duration: %s", formatElapsedHMS(time.Duration(meta.durationSeconds())*time.Second)),
		fmt.Sprintf("End reason: %s", endReasonDetail(meta.EndReason)),
		fmt.Sprintf("Questions answered: %d/%d", meta.AnsweredQuestions, meta.TotalQuestions),
		"",
	}
	if len(messages) > 0 {
		lines = append(lines, strings.TrimRight(chatlog.FormatAll(messages, loc), "\n"))
	}
	return strings.Join(lines, "\n")
}

func buildTranscriptWebhookPayload(meta transcriptMeta, loc *time.Location, messages []chatlog.Message) webhook.TranscriptWebhookPayload {
	loc = safeLocation(loc)
	return webhook.TranscriptWebhookPayload{
		SchemaVersion:     webhook.TranscriptWebhookSchemaVersion,
		InterviewID:       meta.InterviewID,
		StartAt:           meta.StartedAt.In(loc).Format(time.RFC3339),
		EndAt:             meta.EndedAt.In(loc).Format(time.RFC3339),
		Timezone:          meta.Timezone,
		DurationSeconds:   meta.durationSeconds(),
		EndReason:         string(meta.EndReason),
		TotalQuestions:    meta.TotalQuestions,
		AnsweredQuestions: meta.AnsweredQuestions,
		CompletionMessage: meta.Completion.Message,
		RedirectURL:       meta.Completion.RedirectURL,
		RecordingPath:     meta.RecordingPath,
		MessageCount:      len(messages),
		Messages:          buildTranscriptWebhookMessages(messages, meta.StartedAt, loc),
		Transcript:        buildTranscriptText(meta, loc, messages),
	}
}

func buildTranscriptWebhookMessages(messages []chatlog.Message, startedAt time.Time, loc *time.Location) []webhook.TranscriptWebhookMessage {
	out := make([]webhook.TranscriptWebhookMessage, 0, len(messages))
	for i, m := range messages {
		elapsed := m.Timestamp.Sub(startedAt)
		if elapsed < 0 {
			elapsed = 0
		}
		out = append(out, webhook.TranscriptWebhookMessage{
			Index:          i,
			Role:           string(m.Role),
			SentAt:         m.Timestamp.In(loc).Format(time.RFC3339),
			ElapsedSeconds: int64(elapsed / time.Second),
			Text:           m.Text,
		})
	}
	return out
}

func buildArchiveMessages(messages []chatlog.Message) []repository.MessageInput {
	out := make([]repository.MessageInput, 0, len(messages))
	for _, m := range messages {
		out = append(out, repository.MessageInput{
			Role:    string(m.Role),
			Content: m.Text,
			SentAt:  m.Timestamp,
		})
	}
	return out
}

func formatElapsedHMS(d time.Duration) string {
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func safeLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
