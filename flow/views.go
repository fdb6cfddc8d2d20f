// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package flow

import (
	"maps"
	"slices"
	"time"

	"qnflow/models"
)

// ProgressItem reports whether one ordered question has an answer.
type ProgressItem struct {
	QuestionID string `json:"questionId"`
	Answered   bool   `json:"answered"`
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Total is the number of questions in the session order.
func (e *Engine) Total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.orderedIDs)
}

// CurrentQuestion returns a copy of the question at the current position, or
// nil when the position is out of range or the id cannot be resolved.
func (e *Engine) CurrentQuestion() *models.Question {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.currentQuestionLocked()
	if q == nil {
		return nil
	}
	cp := *q
	return &cp
}

func (e *Engine) currentQuestionLocked() *models.Question {
	if e.currentIndex < 0 || e.currentIndex >= len(e.orderedIDs) {
		return nil
	}
	id := e.orderedIDs[e.currentIndex]
	for i := range e.questions {
		if e.questions[i].ID == id {
			return &e.questions[i]
		}
	}
	return nil
}

// Progress lists every ordered question with its answered flag.
func (e *Engine) Progress() []ProgressItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := make([]ProgressItem, len(e.orderedIDs))
	for i, id := range e.orderedIDs {
		_, answered := e.answers[id]
		items[i] = ProgressItem{QuestionID: id, Answered: answered}
	}
	return items
}

// AllAnswered reports whether every ordered question has an answer. It is
// false for an empty order. The presentation layer gates submission on it;
// Submit itself does not.
func (e *Engine) AllAnswered() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.orderedIDs) == 0 {
		return false
	}
	for _, id := range e.orderedIDs {
		if _, answered := e.answers[id]; !answered {
			return false
		}
	}
	return true
}

// SessionID returns the server-issued session token, empty when no session
// is active.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// IdentityKey returns the seed used for the question order.
func (e *Engine) IdentityKey() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.identityKey
}

// CurrentIndex returns the current position in the question order.
func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentIndex
}

// OrderedQuestionIDs returns a copy of the session's question order.
func (e *Engine) OrderedQuestionIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.orderedIDs)
}

// Answers returns a copy of the recorded answers.
func (e *Engine) Answers() models.AnswerMap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.answers)
}

// Questionnaire returns a copy of the stored metadata, or nil before
// validation.
func (e *Engine) Questionnaire() *models.QuestionnaireMeta {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.questionnaire == nil {
		return nil
	}
	cp := *e.questionnaire
	return &cp
}

// RemainingSeconds returns the server-reported time budget, 0 when none.
func (e *Engine) RemainingSeconds() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remainingSeconds
}

// StartedAt returns when the session started, nil before any session.
func (e *Engine) StartedAt() *time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startedAt
}
