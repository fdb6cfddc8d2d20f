// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package flow

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"qnflow/models"
	"qnflow/shuffle"
)

// State is the engine lifecycle state. The only backward transition is
// Reset, which returns to Idle unconditionally.
type State int

const (
	Idle State = iota
	Validated
	SessionActive
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validated:
		return "validated"
	case SessionActive:
		return "session_active"
	case Completed:
		return "completed"
	}
	return "unknown"
}

// Result is the outcome of a user-level operation. Failures carry a
// user-facing message; the engine never panics and never lets raw errors
// cross to the presentation layer.
type Result struct {
	Success bool
	Message string
}

// User-facing failure messages, kept verbatim from the product copy.
const (
	msgInactive       = "问卷未生效或已截止，无法进入下一步。"
	msgValidateFail   = "验证失败，请稍后重试"
	msgStartFail      = "启动会话失败，请稍后重试"
	msgServiceError   = "服务异常"
	msgAlreadyDone    = "该用户已答题"
	msgInvalidSession = "会话无效"
	msgSubmitFail     = "提交失败，请稍后重试"
)

func ok() Result { return Result{Success: true} }

func fail(msg string) Result { return Result{Message: msg} }

// RemoteClient is the engine's view of the questionnaire API. *api.Client
// satisfies it. Implementations report failures as errors; they must never
// panic across this boundary.
type RemoteClient interface {
	ValidatePasscode(ctx context.Context, code string) (models.ValidatePasscodeResponse, error)
	StartSession(ctx context.Context, identity models.Identity) (models.StartSessionResponse, error)
	SaveProgress(ctx context.Context, sessionID string, answers models.AnswerMap, currentIndex int) (models.SaveProgressResponse, error)
	SubmitAnswers(ctx context.Context, sessionID string, answers models.AnswerMap) (models.SubmitAnswersResponse, error)
}

// SnapshotStore persists session state across reloads. Implementations never
// fail: a broken store degrades to a no-op / empty result. *store.Store
// satisfies it.
type SnapshotStore interface {
	Save(models.Snapshot)
	Load() (models.Snapshot, bool)
	Remove()
}

// endIndex is the sentinel nextIndexLocked returns when a jump rule ends the
// questionnaire early.
const endIndex = -1

// Engine owns all state for one respondent session and is its only mutation
// path. Construct one per respondent with New; there is no package-level
// instance. A mutex keeps the single-flight guards race-free even when the
// caller is not strictly single-threaded.
type Engine struct {
	client RemoteClient
	store  SnapshotStore
	log    *slog.Logger

	// now is swappable in tests.
	now func() time.Time

	mu sync.Mutex

	state            State
	questionnaire    *models.QuestionnaireMeta
	questions        []models.Question
	orderedIDs       []string
	answers          models.AnswerMap
	sessionID        string
	identityKey      string
	remainingSeconds int
	startedAt        *time.Time
	currentIndex     int

	// single-flight guards
	saving     bool
	submitting bool
}

// New builds an engine around a remote client and a snapshot store. The
// store may be nil, in which case local persistence is a no-op.
func New(client RemoteClient, store SnapshotStore, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		client:  client,
		store:   store,
		log:     log,
		now:     time.Now,
		answers: models.AnswerMap{},
	}
}

// ValidatePasscode checks the access code and, from Idle, moves to Validated
// when the server accepts it and the questionnaire is active.
func (e *Engine) ValidatePasscode(ctx context.Context, code string) Result {
	resp, err := e.client.ValidatePasscode(ctx, code)
	if err != nil {
		e.log.Warn("passcode validation failed", "error", err)
		return fail(msgValidateFail)
	}

	if !resp.Valid || resp.Questionnaire == nil || !resp.Questionnaire.Active {
		return fail(msgInactive)
	}

	e.mu.Lock()
	meta := *resp.Questionnaire
	e.questionnaire = &meta
	if e.state == Idle {
		e.state = Validated
	}
	e.mu.Unlock()
	return ok()
}

// StartSession submits respondent identity and activates the session. It
// requires Validated. A rejected identity (already answered) leaves the
// engine in Validated with no session entities created.
func (e *Engine) StartSession(ctx context.Context, identity models.Identity) Result {
	e.mu.Lock()
	// SessionActive is allowed so a locally restored session can reconnect;
	// the stored order survives when the server hands back the same id.
	if e.state != Validated && e.state != SessionActive {
		e.mu.Unlock()
		return fail(msgStartFail)
	}
	e.mu.Unlock()

	resp, err := e.client.StartSession(ctx, identity)
	if err != nil {
		e.log.Warn("failed to start session", "error", err)
		return fail(msgStartFail)
	}
	if resp.AlreadyAnswered {
		return fail(msgAlreadyDone)
	}
	if resp.SessionID == "" {
		return fail(msgServiceError)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	restoredSession := e.sessionID
	e.sessionID = resp.SessionID
	if identity.Phone != "" {
		e.identityKey = identity.Phone
	} else {
		e.identityKey = resp.SessionID
	}
	if resp.RemainingSeconds > 0 {
		e.remainingSeconds = resp.RemainingSeconds
	}
	if resp.Payload != nil {
		meta := resp.Payload.Meta
		e.questionnaire = &meta
		e.questions = resp.Payload.Questions
	}
	if len(e.questions) == 0 {
		// Payload-less resume with nothing restored locally: nothing to show.
		e.sessionID = ""
		return fail(msgServiceError)
	}

	// A restored snapshot for the same session keeps its stored order and
	// position; anything else starts fresh.
	if restoredSession != resp.SessionID || len(e.orderedIDs) == 0 {
		e.orderedIDs = shuffle.QuestionIDs(e.questions, e.identityKey)
		e.currentIndex = 0
		now := e.now()
		e.startedAt = &now
	}

	e.state = SessionActive
	return ok()
}

// AnswerCurrent records the selected option for the current question.
// Reanswering overwrites; outside an active session it is a no-op.
func (e *Engine) AnswerCurrent(optionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != SessionActive {
		return
	}
	q := e.currentQuestionLocked()
	if q == nil {
		return
	}
	e.answers[q.ID] = optionID
}

// nextIndexLocked resolves branching for the current question given the
// selected option. Precedence: end rule > explicit target > linear advance.
// A dangling target falls back to linear advance.
func (e *Engine) nextIndexLocked(selected string) int {
	q := e.currentQuestionLocked()
	if q == nil || len(q.JumpRules) == 0 || selected == "" {
		return e.currentIndex + 1
	}

	for _, rule := range q.JumpRules {
		if rule.OptionID != selected {
			continue
		}
		if rule.End {
			return endIndex
		}
		if rule.TargetQuestionID != "" {
			if idx := slices.Index(e.orderedIDs, rule.TargetQuestionID); idx >= 0 {
				return idx
			}
		}
		return e.currentIndex + 1
	}
	return e.currentIndex + 1
}

// GoNext advances using the recorded answer for the current question. An end
// rule lands on the last slide; anything past the end is discarded.
func (e *Engine) GoNext() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != SessionActive {
		return
	}

	selected := ""
	if q := e.currentQuestionLocked(); q != nil {
		selected = e.answers[q.ID]
	}

	next := e.nextIndexLocked(selected)
	total := len(e.orderedIDs)
	if next == endIndex {
		e.currentIndex = total - 1
		return
	}
	if next < total {
		e.currentIndex = next
	}
}

// GoPrev steps back one question, floored at 0. Recorded answers stay.
func (e *Engine) GoPrev() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.currentIndex > 0 {
		e.currentIndex--
	}
}

// GoToIndex jumps directly to i. Out-of-range values are silently ignored.
func (e *Engine) GoToIndex(i int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i >= 0 && i < len(e.orderedIDs) {
		e.currentIndex = i
	}
}

// SaveLocal writes the current snapshot to the local store.
func (e *Engine) SaveLocal() {
	if e.store == nil {
		return
	}
	e.mu.Lock()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.store.Save(snap)
}

// RestoreLocal replays the last saved snapshot. It never recomputes the
// shuffle order; fields absent in storage keep their zero values. A snapshot
// with a usable session reactivates the engine directly.
func (e *Engine) RestoreLocal() {
	if e.store == nil {
		return
	}
	snap, found := e.store.Load()
	if !found {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.questionnaire = snap.Questionnaire
	e.questions = snap.Questions
	e.orderedIDs = snap.OrderedQuestionIDs
	if snap.Answers != nil {
		e.answers = snap.Answers
	} else {
		e.answers = models.AnswerMap{}
	}
	e.sessionID = snap.SessionID
	e.remainingSeconds = snap.RemainingSeconds
	e.currentIndex = snap.CurrentIndex
	if e.currentIndex < 0 {
		e.currentIndex = 0
	}
	e.startedAt = snap.StartedAt

	if e.sessionID != "" && len(e.orderedIDs) > 0 && len(e.questions) > 0 {
		e.state = SessionActive
	}
}

func (e *Engine) snapshotLocked() models.Snapshot {
	return models.Snapshot{
		Questionnaire:      e.questionnaire,
		Questions:          slices.Clone(e.questions),
		OrderedQuestionIDs: slices.Clone(e.orderedIDs),
		Answers:            maps.Clone(e.answers),
		SessionID:          e.sessionID,
		RemainingSeconds:   e.remainingSeconds,
		CurrentIndex:       e.currentIndex,
		StartedAt:          e.startedAt,
	}
}

// SaveRemote uploads progress best-effort. Without a session, or while a
// save is already in flight, it is a no-op; failures are logged, never
// surfaced.
func (e *Engine) SaveRemote(ctx context.Context) {
	e.mu.Lock()
	if e.sessionID == "" || e.saving {
		e.mu.Unlock()
		return
	}
	e.saving = true
	sessionID := e.sessionID
	answers := maps.Clone(e.answers)
	index := e.currentIndex
	e.mu.Unlock()

	_, err := e.client.SaveProgress(ctx, sessionID, answers, index)

	e.mu.Lock()
	e.saving = false
	e.mu.Unlock()

	if err != nil {
		e.log.Warn("failed to save remote progress", "error", err)
	}
}

// Submit sends the final answers. Without a session, or while a submission
// is already in flight, it fails immediately without a network call. Success
// purges the local snapshot and completes the session; failure is retryable
// and the session stays active.
func (e *Engine) Submit(ctx context.Context) Result {
	e.mu.Lock()
	if e.sessionID == "" || e.submitting {
		e.mu.Unlock()
		return fail(msgInvalidSession)
	}
	e.submitting = true
	sessionID := e.sessionID
	answers := maps.Clone(e.answers)
	e.mu.Unlock()

	resp, err := e.client.SubmitAnswers(ctx, sessionID, answers)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitting = false

	if err != nil || !resp.Success {
		if err != nil {
			e.log.Warn("submission failed", "error", err)
		}
		return fail(msgSubmitFail)
	}

	if e.store != nil {
		e.store.Remove()
	}
	e.state = Completed
	return ok()
}

// Reset clears all session entities and returns to Idle. Persisted local
// storage is untouched; purging it is the caller's decision.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = Idle
	e.questionnaire = nil
	e.questions = nil
	e.orderedIDs = nil
	e.answers = models.AnswerMap{}
	e.sessionID = ""
	e.identityKey = ""
	e.remainingSeconds = 0
	e.startedAt = nil
	e.currentIndex = 0
	e.saving = false
	e.submitting = false
}
