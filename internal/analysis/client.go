// Package analysis is the client for the external résumé analysis service.
// It packages the selected file plus the optional job title and description
// into one multipart request, and turns the JSON response into the render
// model the front end displays. The scoring itself is the backend's
// business; nothing here re-derives it.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"resumelens/internal/config"
	"resumelens/internal/errors"
	"resumelens/internal/skills"
	"resumelens/internal/types"
)

// Request carries one analyze invocation.
type Request struct {
	SessionID string

	Filename string
	File     io.Reader

	JobTitle       string
	JobDescription string
}

// Client talks to the analysis backend.
type Client struct {
	endpoint      string
	httpClient    *http.Client
	breaker       *BackendCircuitBreaker
	inflightGuard bool
	logger        *errors.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// NewClient builds a client from backend configuration. The HTTP transport
// is traced; the client timeout is whatever the config says (zero means
// none, matching the original front end).
func NewClient(cfg *config.BackendConfig, logger *errors.Logger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker:       NewBackendCircuitBreaker(cfg, logger),
		inflightGuard: cfg.InflightGuard,
		logger:        logger,
		inflight:      make(map[string]bool),
	}
}

// Breaker exposes the circuit breaker for health and stats reporting.
func (c *Client) Breaker() *BackendCircuitBreaker { return c.breaker }

// Analyze validates the request, runs the local skill scan when a job
// description is present, calls the backend, and builds the render model.
func (c *Client) Analyze(ctx context.Context, req Request) (types.AnalyzeResult, error) {
	title := strings.TrimSpace(req.JobTitle)
	jd := strings.TrimSpace(req.JobDescription)

	if req.File == nil {
		return types.AnalyzeResult{}, errors.NewValidationError(
			errors.ErrCodeMissingResume, errors.MsgUploadResume, nil)
	}
	if title == "" && jd == "" {
		return types.AnalyzeResult{}, errors.NewValidationError(
			errors.ErrCodeMissingJobTarget, errors.MsgProvideTitleOrJD, nil)
	}

	if c.inflightGuard {
		if !c.acquire(req.SessionID) {
			return types.AnalyzeResult{}, errors.NewValidationError(
				errors.ErrCodeRequestInFlight, "Analysis already in progress", nil)
		}
		defer c.release(req.SessionID)
	}

	// Local required-skills preview, independent of the backend response.
	required := []string{}
	if jd != "" {
		required = skills.Extract(jd).Skills
	}

	resp, err := c.post(ctx, req.Filename, req.File, title, jd)
	if err != nil {
		return types.AnalyzeResult{}, err
	}

	result := types.AnalyzeResult{
		MatchScore:     types.NewScore(resp.MatchScore),
		ATSScore:       types.NewScore(resp.ATSScore),
		MatchedSkills:  resp.MatchedSkills,
		MissingSkills:  resp.MissingWithResources,
		RequiredSkills: required,
		SuggestedJob:   resp.SuggestedJob,
	}
	if result.MatchedSkills == nil {
		result.MatchedSkills = []string{}
	}
	if result.MissingSkills == nil {
		result.MissingSkills = []types.MissingSkill{}
	}

	// The eligibility verdict only exists when a title was given without a
	// description, and is derived solely from the missing-skills count.
	if title != "" && jd == "" {
		result.Eligibility = &types.Eligibility{
			JobTitle: title,
			Eligible: len(result.MissingSkills) == 0,
		}
	}

	return result, nil
}

// post sends the multipart request and decodes the response. Optional text
// fields are omitted entirely when empty, never sent blank.
func (c *Client) post(ctx context.Context, filename string, file io.Reader, title, jd string) (*types.BackendResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("resume", filename)
	if err != nil {
		return nil, errors.NewInternalError("MULTIPART_FAILED",
			"Cannot build multipart request", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, errors.NewInternalError("MULTIPART_FAILED",
			"Cannot copy resume into request", err)
	}
	if jd != "" {
		if err := writer.WriteField("jd_text", jd); err != nil {
			return nil, errors.NewInternalError("MULTIPART_FAILED",
				"Cannot write jd_text field", err)
		}
	}
	if title != "" {
		if err := writer.WriteField("job_title", title); err != nil {
			return nil, errors.NewInternalError("MULTIPART_FAILED",
				"Cannot write job_title field", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, errors.NewInternalError("MULTIPART_FAILED",
			"Cannot finalize multipart request", err)
	}

	resp, err := c.breaker.Execute(func() (*types.BackendResponse, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body.Bytes()))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", writer.FormDataContentType())

		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := httpResp.Body.Close(); err != nil {
				c.logger.Warn("Failed to close response body", "error", err)
			}
		}()

		raw, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, err
		}

		var decoded types.BackendResponse
		decodeErr := json.Unmarshal(raw, &decoded)

		if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
			msg := errors.MsgBackendError
			if decodeErr == nil && decoded.Error != "" {
				msg = decoded.Error
			}
			return nil, errors.NewTransportError(errors.ErrCodeBackendFailed, msg, nil).
				WithContext("status_code", httpResp.StatusCode)
		}
		if decodeErr != nil {
			return nil, errors.NewTransportError(errors.ErrCodeBackendDecode,
				errors.MsgBackendError, decodeErr)
		}
		return &decoded, nil
	})
	if err != nil {
		// Transport failures are the one class that also goes to the log.
		c.logger.LogError(err, "Analysis backend request failed",
			"endpoint", c.endpoint)
		if _, ok := err.(*errors.AppError); ok {
			return nil, err
		}
		return nil, errors.NewTransportError(errors.ErrCodeBackendFailed,
			errors.MsgBackendDown, err)
	}
	return resp, nil
}

func (c *Client) acquire(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[sessionID] {
		return false
	}
	c.inflight[sessionID] = true
	return true
}

func (c *Client) release(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, sessionID)
}
