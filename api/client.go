// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"qnflow/models"
)

// defaultTimeout bounds every request; there is no retry layer, the flow
// engine reacts to the eventual result.
const defaultTimeout = 10 * time.Second

// StatusError reports a non-2xx response from the questionnaire API,
// carrying the server's error message when one was decodable.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Code)
}

// Client talks JSON to the questionnaire API. It owns no session state; the
// flow engine invokes it with copies.
type Client struct {
	base string
	hc   *http.Client
}

// New returns a client rooted at base with the default timeout.
func New(base string) *Client {
	return NewWithHTTPClient(base, &http.Client{Timeout: defaultTimeout})
}

// NewWithHTTPClient is for callers that need a custom transport or timeout.
func NewWithHTTPClient(base string, hc *http.Client) *Client {
	return &Client{base: strings.TrimRight(base, "/"), hc: hc}
}

// Passcodes fetches the available demo passcodes (non-production aid).
func (c *Client) Passcodes(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/questionnaire/passcodes", nil, &out)
	return out, err
}

// ValidatePasscode checks an access code against the server.
func (c *Client) ValidatePasscode(ctx context.Context, code string) (models.ValidatePasscodeResponse, error) {
	var out models.ValidatePasscodeResponse
	err := c.do(ctx, http.MethodPost, "/questionnaire/validate",
		models.ValidatePasscodeRequest{Passcode: code}, &out)
	return out, err
}

// StartSession submits respondent identity and opens (or resumes) a session.
func (c *Client) StartSession(ctx context.Context, identity models.Identity) (models.StartSessionResponse, error) {
	var out models.StartSessionResponse
	err := c.do(ctx, http.MethodPost, "/questionnaire/start", identity, &out)
	return out, err
}

// SaveProgress uploads the current answers and position.
func (c *Client) SaveProgress(ctx context.Context, sessionID string, answers models.AnswerMap, currentIndex int) (models.SaveProgressResponse, error) {
	var out models.SaveProgressResponse
	err := c.do(ctx, http.MethodPost, "/questionnaire/save", models.SaveProgressRequest{
		SessionID:    sessionID,
		Answers:      answers,
		CurrentIndex: currentIndex,
	}, &out)
	return out, err
}

// SubmitAnswers submits the final answers for a session.
func (c *Client) SubmitAnswers(ctx context.Context, sessionID string, answers models.AnswerMap) (models.SubmitAnswersResponse, error) {
	var out models.SubmitAnswersResponse
	err := c.do(ctx, http.MethodPost, "/questionnaire/submit", models.SubmitAnswersRequest{
		SessionID: sessionID,
		Answers:   answers,
	}, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr models.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &StatusError{Code: resp.StatusCode, Message: apiErr.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
