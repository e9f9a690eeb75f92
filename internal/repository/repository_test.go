package repository

import (
	"context"
	"testing"
	"time"
)

func TestNopRepository_SaveInterviewEchoesInput(t *testing.T) {
	start := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	in := SaveInterviewInput{
		InterviewID:       "7",
		StartedAt:         start,
		EndedAt:           start.Add(20 * time.Minute),
		Status:            InterviewStatusCompleted,
		EndReason:         "time_up",
		DurationSeconds:   1200,
		TotalQuestions:    5,
		AnsweredQuestions: 4,
	}
	rec, err := NopRepository{}.SaveInterview(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.InterviewID != "7" || rec.AnsweredQuestions != 4 || rec.Status != InterviewStatusCompleted {
		t.Fatalf("unexpected record: %+v", rec)
	}
	list, err := NopRepository{}.ListInterviews(context.Background(), "7")
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v %v", list, err)
	}
}
