package analysis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"resumelens/internal/config"
	"resumelens/internal/errors"
)

type capturedRequest struct {
	Filename string
	Resume   string
	JDText   string
	HasJD    bool
	JobTitle string
	HasTitle bool
}

// newBackend serves the given JSON body with the given status and records
// what the client actually sent.
func newBackend(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("Backend could not parse multipart form: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if captured != nil {
			file, header, err := r.FormFile("resume")
			if err != nil {
				t.Errorf("Backend missing resume part: %v", err)
			} else {
				var sb strings.Builder
				if _, err := io.Copy(&sb, file); err != nil {
					t.Errorf("Reading resume part: %v", err)
				}
				_ = file.Close()
				captured.Filename = header.Filename
				captured.Resume = sb.String()
			}
			if vals, ok := r.MultipartForm.Value["jd_text"]; ok {
				captured.HasJD = true
				captured.JDText = vals[0]
			}
			if vals, ok := r.MultipartForm.Value["job_title"]; ok {
				captured.HasTitle = true
				captured.JobTitle = vals[0]
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func newTestClient(endpoint string) *Client {
	return NewClient(&config.BackendConfig{
		Endpoint:      endpoint,
		Timeout:       5 * time.Second,
		InflightGuard: true,
	}, errors.NewLogger(slog.LevelError))
}

func TestAnalyzeRejectsMissingResume(t *testing.T) {
	c := newTestClient("http://localhost:1/analyze-resume-vs-job/")

	_, err := c.Analyze(context.Background(), Request{
		SessionID: "s1",
		JobTitle:  "Engineer",
	})
	if err == nil {
		t.Fatal("Expected error without a file")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if appErr.Type != errors.ErrorTypeValidation {
		t.Errorf("Expected validation error, got %s", appErr.Type)
	}
	if appErr.Message != errors.MsgUploadResume {
		t.Errorf("Expected %q, got %q", errors.MsgUploadResume, appErr.Message)
	}
}

func TestAnalyzeRejectsMissingJobTarget(t *testing.T) {
	c := newTestClient("http://localhost:1/analyze-resume-vs-job/")

	tests := []struct {
		name  string
		title string
		jd    string
	}{
		{name: "both empty", title: "", jd: ""},
		{name: "whitespace only", title: "   ", jd: "\n\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Analyze(context.Background(), Request{
				SessionID:      "s1",
				Filename:       "resume.pdf",
				File:           strings.NewReader("resume body"),
				JobTitle:       tt.title,
				JobDescription: tt.jd,
			})
			if err == nil {
				t.Fatal("Expected error without title or description")
			}
			appErr, ok := err.(*errors.AppError)
			if !ok || appErr.Message != errors.MsgProvideTitleOrJD {
				t.Errorf("Expected %q, got %v", errors.MsgProvideTitleOrJD, err)
			}
		})
	}
}

func TestAnalyzeTitleOnly(t *testing.T) {
	var captured capturedRequest
	backend := newBackend(t, http.StatusOK,
		`{"match_score": 72.4, "ats_score": 65, "matched_skills": ["Go"], "missing_with_resources": []}`,
		&captured)
	defer backend.Close()

	c := newTestClient(backend.URL)
	result, err := c.Analyze(context.Background(), Request{
		SessionID: "s1",
		Filename:  "resume.pdf",
		File:      strings.NewReader("resume body"),
		JobTitle:  "  Backend Engineer  ",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if captured.Filename != "resume.pdf" || captured.Resume != "resume body" {
		t.Errorf("Resume part = %q/%q", captured.Filename, captured.Resume)
	}
	if !captured.HasTitle || captured.JobTitle != "Backend Engineer" {
		t.Errorf("job_title = %q (present=%t), want trimmed title", captured.JobTitle, captured.HasTitle)
	}
	if captured.HasJD {
		t.Error("jd_text must be omitted entirely when empty, not sent blank")
	}

	if result.MatchScore != 72 {
		t.Errorf("MatchScore = %d, want 72", result.MatchScore)
	}
	if result.ATSScore != 65 {
		t.Errorf("ATSScore = %d, want 65", result.ATSScore)
	}
	if len(result.RequiredSkills) != 0 {
		t.Errorf("RequiredSkills = %v, want empty without a description", result.RequiredSkills)
	}

	// Title without description produces the eligibility verdict, keyed
	// solely off the missing-skills count.
	if result.Eligibility == nil {
		t.Fatal("Expected eligibility verdict for title-only request")
	}
	if result.Eligibility.JobTitle != "Backend Engineer" {
		t.Errorf("Eligibility.JobTitle = %q", result.Eligibility.JobTitle)
	}
	if !result.Eligibility.Eligible {
		t.Error("No missing skills should mean eligible")
	}
}

func TestAnalyzeTitleOnlyNotEligible(t *testing.T) {
	backend := newBackend(t, http.StatusOK,
		`{"match_score": 40, "ats_score": 50, "missing_with_resources": ["Kubernetes"]}`,
		nil)
	defer backend.Close()

	c := newTestClient(backend.URL)
	result, err := c.Analyze(context.Background(), Request{
		SessionID: "s1",
		Filename:  "resume.pdf",
		File:      strings.NewReader("x"),
		JobTitle:  "SRE",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.Eligibility == nil || result.Eligibility.Eligible {
		t.Errorf("Missing skills should mean not eligible, got %+v", result.Eligibility)
	}
}

func TestAnalyzeWithJobDescription(t *testing.T) {
	var captured capturedRequest
	backend := newBackend(t, http.StatusOK,
		`{"match_score": 88, "ats_score": 77, "matched_skills": ["Python"], "missing_with_resources": [{"skill": "Docker", "resource": "https://docs.docker.com"}]}`,
		&captured)
	defer backend.Close()

	c := newTestClient(backend.URL)
	result, err := c.Analyze(context.Background(), Request{
		SessionID:      "s1",
		Filename:       "cv.docx",
		File:           strings.NewReader("x"),
		JobDescription: "Experience with Python and Docker.",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !captured.HasJD || captured.JDText != "Experience with Python and Docker." {
		t.Errorf("jd_text = %q (present=%t)", captured.JDText, captured.HasJD)
	}
	if captured.HasTitle {
		t.Error("job_title must be omitted when empty")
	}

	// The required-skills preview comes from the local scan, not the
	// backend response.
	wantRequired := []string{"Python", "Docker", "R"}
	if len(result.RequiredSkills) != len(wantRequired) {
		t.Fatalf("RequiredSkills = %v, want %v", result.RequiredSkills, wantRequired)
	}
	for i, skill := range wantRequired {
		if result.RequiredSkills[i] != skill {
			t.Errorf("RequiredSkills[%d] = %q, want %q", i, result.RequiredSkills[i], skill)
		}
	}

	// Description present means no eligibility verdict, even with no
	// missing skills.
	if result.Eligibility != nil {
		t.Errorf("Eligibility should be nil when a description was given, got %+v", result.Eligibility)
	}

	if len(result.MissingSkills) != 1 || result.MissingSkills[0].Skill != "Docker" {
		t.Errorf("MissingSkills = %+v", result.MissingSkills)
	}
}

func TestAnalyzeNilSlicesBecomeEmpty(t *testing.T) {
	backend := newBackend(t, http.StatusOK, `{"match_score": 10, "ats_score": 10}`, nil)
	defer backend.Close()

	c := newTestClient(backend.URL)
	result, err := c.Analyze(context.Background(), Request{
		SessionID: "s1",
		Filename:  "r.pdf",
		File:      strings.NewReader("x"),
		JobTitle:  "Dev",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.MatchedSkills == nil || result.MissingSkills == nil {
		t.Error("Skill slices must never be nil in the render model")
	}
}

func TestAnalyzeBackendErrorBody(t *testing.T) {
	backend := newBackend(t, http.StatusUnprocessableEntity,
		`{"error": "Could not parse the resume"}`, nil)
	defer backend.Close()

	c := newTestClient(backend.URL)
	_, err := c.Analyze(context.Background(), Request{
		SessionID: "s1",
		Filename:  "r.pdf",
		File:      strings.NewReader("x"),
		JobTitle:  "Dev",
	})
	if err == nil {
		t.Fatal("Expected error for non-2xx response")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if appErr.Type != errors.ErrorTypeTransport {
		t.Errorf("Expected transport error, got %s", appErr.Type)
	}
	if appErr.Message != "Could not parse the resume" {
		t.Errorf("Expected the backend's error field, got %q", appErr.Message)
	}
}

func TestAnalyzeBackendErrorNoBody(t *testing.T) {
	backend := newBackend(t, http.StatusInternalServerError, `not json`, nil)
	defer backend.Close()

	c := newTestClient(backend.URL)
	_, err := c.Analyze(context.Background(), Request{
		SessionID: "s1",
		Filename:  "r.pdf",
		File:      strings.NewReader("x"),
		JobTitle:  "Dev",
	})
	if err == nil {
		t.Fatal("Expected error for non-2xx response")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Message != errors.MsgBackendError {
		t.Errorf("Expected %q, got %v", errors.MsgBackendError, err)
	}
}

func TestAnalyzeBackendUnreachable(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := backend.URL
	backend.Close() // nothing listens here anymore

	c := newTestClient(endpoint)
	_, err := c.Analyze(context.Background(), Request{
		SessionID: "s1",
		Filename:  "r.pdf",
		File:      strings.NewReader("x"),
		JobTitle:  "Dev",
	})
	if err == nil {
		t.Fatal("Expected error for unreachable backend")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if appErr.Type != errors.ErrorTypeTransport {
		t.Errorf("Expected transport error, got %s", appErr.Type)
	}
	if appErr.Message != errors.MsgBackendDown {
		t.Errorf("Expected %q, got %q", errors.MsgBackendDown, appErr.Message)
	}
}

func TestAnalyzeInflightGuard(t *testing.T) {
	release := make(chan struct{})
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"match_score": 50, "ats_score": 50})
	}))
	defer backend.Close()

	c := newTestClient(backend.URL)

	var wg sync.WaitGroup
	wg.Add(1)
	firstDone := make(chan error, 1)
	go func() {
		defer wg.Done()
		_, err := c.Analyze(context.Background(), Request{
			SessionID: "s1",
			Filename:  "r.pdf",
			File:      strings.NewReader("x"),
			JobTitle:  "Dev",
		})
		firstDone <- err
	}()

	// Wait until the first request holds the guard.
	deadline := time.After(2 * time.Second)
	for {
		c.mu.Lock()
		held := c.inflight["s1"]
		c.mu.Unlock()
		if held {
			break
		}
		select {
		case <-deadline:
			t.Fatal("First request never acquired the in-flight guard")
		case <-time.After(5 * time.Millisecond):
		}
	}

	_, err := c.Analyze(context.Background(), Request{
		SessionID: "s1",
		Filename:  "r.pdf",
		File:      strings.NewReader("x"),
		JobTitle:  "Dev",
	})
	if err == nil {
		t.Fatal("Second concurrent request for the same session should be rejected")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeRequestInFlight {
		t.Errorf("Expected %s, got %v", errors.ErrCodeRequestInFlight, err)
	}

	// A different session is unaffected by s1's guard.
	c.mu.Lock()
	otherHeld := c.inflight["s2"]
	c.mu.Unlock()
	if otherHeld {
		t.Error("Other sessions must not be marked in flight")
	}

	close(release)
	wg.Wait()
	if err := <-firstDone; err != nil {
		t.Errorf("First request failed: %v", err)
	}

	// Guard released after completion.
	_, err = c.Analyze(context.Background(), Request{
		SessionID: "s1",
		Filename:  "r.pdf",
		File:      strings.NewReader("x"),
		JobTitle:  "Dev",
	})
	if err != nil {
		t.Errorf("Request after release failed: %v", err)
	}
}
