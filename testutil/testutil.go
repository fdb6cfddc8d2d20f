// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"qnflow/auth"
	"qnflow/cliparse"
	"qnflow/db"
	"qnflow/models"
	"qnflow/qdata"
)

// SetupTestDB creates a fresh in-memory sqlite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// The in-memory database lives and dies with one connection.
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3320,
		DatabaseURL:  ":memory:",
		DatabaseType: "sqlite",
		IdentitySalt: "test-identity-salt",
	}
}

// DemoDefinition returns the built-in demo questionnaire used as fixture
func DemoDefinition() qdata.Definition {
	return qdata.Demo()
}

// CreateTestSession inserts a session row and returns its id
func CreateTestSession(t *testing.T, conn *sql.DB, cfg cliparse.Config, def qdata.Definition, phone string) string {
	t.Helper()

	sessionID := uuid.NewString()
	identityHash := auth.HashIdentity(phone, "", cfg.IdentitySalt)
	_, err := conn.Exec(`
		INSERT INTO qn_session (id, questionnaire_id, identity_hash, name, remaining_seconds, started_at)
		VALUES ($1, $2, $3, 'Tester', $4, $5)
	`, sessionID, def.Meta.ID, identityHash, def.Meta.TimeLimitSeconds, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return sessionID
}

// CreateTestSubmission records a submission for a session
func CreateTestSubmission(t *testing.T, conn *sql.DB, cfg cliparse.Config, sessionID, phone string, answers models.AnswerMap) {
	t.Helper()

	raw, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("Failed to marshal answers: %v", err)
	}
	identityHash := auth.HashIdentity(phone, "", cfg.IdentitySalt)
	_, err = conn.Exec(`
		INSERT INTO qn_submission (session_id, identity_hash, answers, submitted_at)
		VALUES ($1, $2, $3, $4)
	`, sessionID, identityHash, string(raw), time.Now())
	if err != nil {
		t.Fatalf("Failed to create test submission: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// MemStore is an in-memory snapshot store for flow engine tests. It
// satisfies flow.SnapshotStore.
type MemStore struct {
	Snap    *models.Snapshot
	Saves   int
	Removes int
}

func (m *MemStore) Save(s models.Snapshot) {
	m.Snap = &s
	m.Saves++
}

func (m *MemStore) Load() (models.Snapshot, bool) {
	if m.Snap == nil {
		return models.Snapshot{}, false
	}
	return *m.Snap, true
}

func (m *MemStore) Remove() {
	m.Snap = nil
	m.Removes++
}

// StubRemote is a scriptable remote client for flow engine tests. Unset
// functions return zero-value successes. Call counters are safe to read
// after concurrent use.
type StubRemote struct {
	ValidateFn func(code string) (models.ValidatePasscodeResponse, error)
	StartFn    func(identity models.Identity) (models.StartSessionResponse, error)
	SaveFn     func(sessionID string, answers models.AnswerMap, currentIndex int) (models.SaveProgressResponse, error)
	SubmitFn   func(sessionID string, answers models.AnswerMap) (models.SubmitAnswersResponse, error)

	mu            sync.Mutex
	validateCalls int
	startCalls    int
	saveCalls     int
	submitCalls   int
}

func (s *StubRemote) ValidatePasscode(ctx context.Context, code string) (models.ValidatePasscodeResponse, error) {
	s.count(&s.validateCalls)
	if s.ValidateFn == nil {
		return models.ValidatePasscodeResponse{}, nil
	}
	return s.ValidateFn(code)
}

func (s *StubRemote) StartSession(ctx context.Context, identity models.Identity) (models.StartSessionResponse, error) {
	s.count(&s.startCalls)
	if s.StartFn == nil {
		return models.StartSessionResponse{}, nil
	}
	return s.StartFn(identity)
}

func (s *StubRemote) SaveProgress(ctx context.Context, sessionID string, answers models.AnswerMap, currentIndex int) (models.SaveProgressResponse, error) {
	s.count(&s.saveCalls)
	if s.SaveFn == nil {
		return models.SaveProgressResponse{}, nil
	}
	return s.SaveFn(sessionID, answers, currentIndex)
}

func (s *StubRemote) SubmitAnswers(ctx context.Context, sessionID string, answers models.AnswerMap) (models.SubmitAnswersResponse, error) {
	s.count(&s.submitCalls)
	if s.SubmitFn == nil {
		return models.SubmitAnswersResponse{Success: true}, nil
	}
	return s.SubmitFn(sessionID, answers)
}

func (s *StubRemote) count(field *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*field++
}

// Calls reports how many times each remote operation was invoked.
func (s *StubRemote) Calls() (validate, start, save, submit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateCalls, s.startCalls, s.saveCalls, s.submitCalls
}
