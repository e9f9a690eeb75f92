package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/foxseedlab/mensetsu/internal/backend"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg.BaseURL = server.URL
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	c, err := NewHTTPClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func kindOf(t *testing.T, err error) backend.ErrorKind {
	t.Helper()
	var e *backend.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected backend.Error, got %v", err)
	}
	return e.Kind
}

func TestStart_SendsCSRFAndSession(t *testing.T) {
	var gotPath, gotCSRF, gotSession, gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCSRF = r.Header.Get("X-CSRFToken")
		gotRequestID = r.Header.Get("X-Request-ID")
		if ck, err := r.Cookie("sessionid"); err == nil {
			gotSession = ck.Value
		}
		_, _ = w.Write([]byte(`{"success": true, "message": "AI interview started successfully"}`))
	}, Config{SessionCookie: "sess-1", CSRFToken: "tok-1"})

	if err := c.Start(context.Background(), "12"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if gotPath != "/api/ai-interview/start/12/" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotCSRF != "tok-1" || gotSession != "sess-1" {
		t.Fatalf("unexpected auth headers csrf=%q session=%q", gotCSRF, gotSession)
	}
	if gotRequestID == "" {
		t.Fatal("missing request id")
	}
}

func TestCSRF_PrefersCookieFromServer(t *testing.T) {
	var lastCSRF string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		lastCSRF = r.Header.Get("X-CSRFToken")
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "rotated", Path: "/"})
		_, _ = w.Write([]byte(`{"success": true}`))
	}, Config{CSRFToken: "configured"})

	if err := c.Start(context.Background(), "1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if lastCSRF != "configured" {
		t.Fatalf("expected configured token first, got %q", lastCSRF)
	}
	if err := c.SubmitAnswer(context.Background(), "1", 2, "answer"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if lastCSRF != "rotated" {
		t.Fatalf("expected rotated token, got %q", lastCSRF)
	}
}

func TestStart_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "Error starting interview: boom"}`))
	}, Config{})
	err := c.Start(context.Background(), "1")
	if kind := kindOf(t, err); kind != backend.KindServerRejected {
		t.Fatalf("expected rejected, got %s", kind)
	}
}

func TestQuestions_NotReady(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.Header.Get("X-CSRFToken") != "" {
			t.Errorf("GET must not carry csrf header")
		}
		_, _ = w.Write([]byte(`{"success": false, "message": "Questions are still being generated."}`))
	}, Config{CSRFToken: "tok"})
	res, err := c.Questions(context.Background(), "1")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if res.Ready || res.Message == "" {
		t.Fatalf("expected not ready with message, got %+v", res)
	}
}

func TestQuestions_Ready(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "questions": [
			{"id": 5, "type": "technical", "question": "Explain goroutines.", "answered": false},
			{"id": 6, "type": "non-technical", "question": "Describe a conflict.", "answered": true}
		]}`))
	}, Config{})
	res, err := c.Questions(context.Background(), "1")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if !res.Ready || len(res.Questions) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	q := res.Questions[0]
	if q.ID != 5 || q.Text != "Explain goroutines." || !q.Technical() || q.Answered {
		t.Fatalf("unexpected question %+v", q)
	}
	if !res.Questions[1].Answered {
		t.Fatal("expected second question answered")
	}
}

func TestSubmitAnswer_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   backend.ErrorKind
	}{
		{http.StatusBadRequest, backend.KindValidationFailed},
		{http.StatusUnprocessableEntity, backend.KindValidationFailed},
		{http.StatusNotFound, backend.KindServerRejected},
		{http.StatusForbidden, backend.KindServerRejected},
		{http.StatusInternalServerError, backend.KindTransportFailure},
		{http.StatusBadGateway, backend.KindTransportFailure},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"success": false, "message": "nope"}`))
		}, Config{})
		err := c.SubmitAnswer(context.Background(), "1", 2, "hello")
		if kind := kindOf(t, err); kind != tc.want {
			t.Errorf("status %d: expected %s, got %s", tc.status, tc.want, kind)
		}
	}
}

func TestSubmitAnswer_Body(t *testing.T) {
	var body map[string]string
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"success": true, "message": "Answer submitted successfully"}`))
	}, Config{})
	if err := c.SubmitAnswer(context.Background(), "7", 42, "My answer"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if path != "/api/ai-interview/answer/7/42/" || body["answer"] != "My answer" {
		t.Fatalf("unexpected request %s %v", path, body)
	}
}

func TestTransportFailure(t *testing.T) {
	c, err := NewHTTPClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = c.Questions(context.Background(), "1")
	if kind := kindOf(t, err); kind != backend.KindTransportFailure {
		t.Fatalf("expected transport failure, got %s", kind)
	}
}

func TestComplete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		_, _ = w.Write([]byte(`{"success": true, "message": "Interview completed successfully.", "redirect_url": "/reports/"}`))
	}, Config{})
	res, err := c.Complete(context.Background(), "3")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.RedirectURL != "/reports/" || res.Message == "" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestComplete_UnansweredQuestions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "There are 2 unanswered questions."}`))
	}, Config{})
	_, err := c.Complete(context.Background(), "3")
	var e *backend.Error
	if !errors.As(err, &e) || e.Kind != backend.KindServerRejected || e.UserMessage() != "There are 2 unanswered questions." {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ai-interview/status/3/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success": true, "status": "in_progress", "total_questions": 8, "answered_questions": 3, "report_available": false}`))
	}, Config{})
	st, err := c.Status(context.Background(), "3")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Status != "in_progress" || st.TotalQuestions != 8 || st.AnsweredQuestions != 3 || st.ReportAvailable {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestAnalyzeSnapshot(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analyze-snapshot/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"success": true, "result": {"emotion": "Neutral", "posture": "Upright"}}`))
	}, Config{})
	res, err := c.AnalyzeSnapshot(context.Background(), backend.SnapshotRequest{
		InterviewID:   "9",
		ImageDataURL:  "data:image/jpeg;base64,AAAA",
		EnableEmotion: true,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Emotion != "Neutral" || res.Posture != "Upright" {
		t.Fatalf("unexpected analysis %+v", res)
	}
	if got["interview_id"] != float64(9) || got["enable_emotion"] != true || got["enable_posture"] != false {
		t.Fatalf("unexpected body %v", got)
	}
}

func TestAnalyzeSnapshot_Error(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "error": "No image provided"}`))
	}, Config{})
	_, err := c.AnalyzeSnapshot(context.Background(), backend.SnapshotRequest{InterviewID: "9"})
	var e *backend.Error
	if !errors.As(err, &e) || e.Message != "No image provided" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSubmitAnswer_LoginRedirectIsRejected(t *testing.T) {
	var answerCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ai-interview/answer/7/1/", func(w http.ResponseWriter, r *http.Request) {
		answerCalls++
		http.Redirect(w, r, "/login/?next=/api/ai-interview/answer/7/1/", http.StatusFound)
	})
	mux.HandleFunc("/login/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>Sign in</body></html>"))
	})
	c := newTestClient(t, mux.ServeHTTP, Config{})

	err := c.SubmitAnswer(context.Background(), "7", 1, "hello")
	if err == nil {
		t.Fatal("expected error for login redirect")
	}
	if kind := kindOf(t, err); kind != backend.KindServerRejected {
		t.Fatalf("expected server rejected, got %s", kind)
	}
	if answerCalls != 1 {
		t.Fatalf("expected one answer request, got %d", answerCalls)
	}
}

func TestCall_NonJSONSuccessIsRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>Sign in</body></html>"))
	}, Config{})

	if err := c.Start(context.Background(), "7"); err == nil {
		t.Fatal("expected error for html response")
	} else if kind := kindOf(t, err); kind != backend.KindServerRejected {
		t.Fatalf("expected server rejected, got %s", kind)
	}
}

func TestCall_MissingSuccessFlagIsRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": "ok"}`))
	}, Config{})

	if err := c.SubmitAnswer(context.Background(), "7", 1, "hello"); err == nil {
		t.Fatal("expected error when success flag is absent")
	}
	if _, err := c.Complete(context.Background(), "7"); err == nil {
		t.Fatal("expected complete to fail when success flag is absent")
	}
}
