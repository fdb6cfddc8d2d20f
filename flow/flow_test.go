package flow

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"qnflow/models"
	"qnflow/qdata"
	"qnflow/shuffle"
	"qnflow/testutil"
)

const testPhone = "13800138000"

func activeMeta() *models.QuestionnaireMeta {
	return &models.QuestionnaireMeta{ID: "q_1001", Title: "员工问卷（演示）", Active: true, TimeLimitSeconds: 300}
}

func demoQuestions() []models.Question {
	return qdata.Demo().Questions
}

func okValidate(code string) (models.ValidatePasscodeResponse, error) {
	return models.ValidatePasscodeResponse{Valid: true, Questionnaire: activeMeta()}, nil
}

func okStart(questions []models.Question) func(models.Identity) (models.StartSessionResponse, error) {
	return func(identity models.Identity) (models.StartSessionResponse, error) {
		return models.StartSessionResponse{
			SessionID:        "sess_test_1",
			QuestionnaireID:  "q_1001",
			RemainingSeconds: 300,
			Payload: &models.QuestionnairePayload{
				Meta:      *activeMeta(),
				Questions: questions,
			},
		}, nil
	}
}

// startedEngine returns an engine in SessionActive over the demo questions.
func startedEngine(t *testing.T) (*Engine, *testutil.StubRemote, *testutil.MemStore) {
	t.Helper()

	remote := &testutil.StubRemote{
		ValidateFn: okValidate,
		StartFn:    okStart(demoQuestions()),
	}
	store := &testutil.MemStore{}
	engine := New(remote, store, nil)

	if res := engine.ValidatePasscode(context.Background(), "DEMO-2025"); !res.Success {
		t.Fatalf("ValidatePasscode failed: %s", res.Message)
	}
	res := engine.StartSession(context.Background(), models.Identity{Phone: testPhone, Name: "测试"})
	if !res.Success {
		t.Fatalf("StartSession failed: %s", res.Message)
	}
	return engine, remote, store
}

// indexOf fails the test when id is not part of the session order.
func indexOf(t *testing.T, engine *Engine, questionID string) int {
	t.Helper()
	idx := slices.Index(engine.OrderedQuestionIDs(), questionID)
	if idx < 0 {
		t.Fatalf("Question %s not in order %v", questionID, engine.OrderedQuestionIDs())
	}
	return idx
}

func TestValidatePasscode(t *testing.T) {
	tests := []struct {
		name        string
		fn          func(string) (models.ValidatePasscodeResponse, error)
		wantSuccess bool
		wantMessage string
		wantState   State
	}{
		{
			name:        "valid and active",
			fn:          okValidate,
			wantSuccess: true,
			wantState:   Validated,
		},
		{
			name: "invalid passcode",
			fn: func(code string) (models.ValidatePasscodeResponse, error) {
				return models.ValidatePasscodeResponse{Valid: false}, nil
			},
			wantMessage: msgInactive,
			wantState:   Idle,
		},
		{
			name: "inactive questionnaire",
			fn: func(code string) (models.ValidatePasscodeResponse, error) {
				meta := activeMeta()
				meta.Active = false
				return models.ValidatePasscodeResponse{Valid: true, Questionnaire: meta}, nil
			},
			wantMessage: msgInactive,
			wantState:   Idle,
		},
		{
			name: "transport error",
			fn: func(code string) (models.ValidatePasscodeResponse, error) {
				return models.ValidatePasscodeResponse{}, errors.New("timeout")
			},
			wantMessage: msgValidateFail,
			wantState:   Idle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := New(&testutil.StubRemote{ValidateFn: tt.fn}, &testutil.MemStore{}, nil)
			res := engine.ValidatePasscode(context.Background(), "DEMO-2025")

			if res.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v (message %q)", res.Success, tt.wantSuccess, res.Message)
			}
			if res.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", res.Message, tt.wantMessage)
			}
			if engine.State() != tt.wantState {
				t.Errorf("State = %v, want %v", engine.State(), tt.wantState)
			}
		})
	}
}

func TestStartSessionRequiresValidation(t *testing.T) {
	remote := &testutil.StubRemote{StartFn: okStart(demoQuestions())}
	engine := New(remote, &testutil.MemStore{}, nil)

	res := engine.StartSession(context.Background(), models.Identity{Phone: testPhone})
	if res.Success {
		t.Fatal("Expected StartSession to fail from Idle")
	}

	if _, start, _, _ := remote.Calls(); start != 0 {
		t.Errorf("Expected no network call, got %d", start)
	}
}

func TestStartSessionAlreadyAnswered(t *testing.T) {
	remote := &testutil.StubRemote{
		ValidateFn: okValidate,
		StartFn: func(identity models.Identity) (models.StartSessionResponse, error) {
			return models.StartSessionResponse{QuestionnaireID: "q_1001", AlreadyAnswered: true}, nil
		},
	}
	engine := New(remote, &testutil.MemStore{}, nil)
	engine.ValidatePasscode(context.Background(), "DEMO-2025")

	res := engine.StartSession(context.Background(), models.Identity{Phone: testPhone})
	if res.Success || res.Message != msgAlreadyDone {
		t.Errorf("Expected %q failure, got %+v", msgAlreadyDone, res)
	}
	if engine.State() != Validated {
		t.Errorf("State = %v, want Validated", engine.State())
	}
	if engine.SessionID() != "" || engine.Total() != 0 {
		t.Error("Expected no session entities after an alreadyAnswered rejection")
	}
}

func TestStartSessionSuccess(t *testing.T) {
	engine, _, _ := startedEngine(t)

	if engine.State() != SessionActive {
		t.Fatalf("State = %v, want SessionActive", engine.State())
	}
	if engine.SessionID() != "sess_test_1" {
		t.Errorf("SessionID = %q", engine.SessionID())
	}
	if engine.Total() != 5 || engine.CurrentIndex() != 0 {
		t.Errorf("Total = %d, CurrentIndex = %d", engine.Total(), engine.CurrentIndex())
	}
	if engine.RemainingSeconds() != 300 {
		t.Errorf("RemainingSeconds = %d", engine.RemainingSeconds())
	}
	if engine.StartedAt() == nil {
		t.Error("Expected StartedAt to be set")
	}

	// The order is the phone-seeded shuffle, not the definition order.
	want := shuffle.QuestionIDs(demoQuestions(), testPhone)
	if !slices.Equal(engine.OrderedQuestionIDs(), want) {
		t.Errorf("Order = %v, want %v", engine.OrderedQuestionIDs(), want)
	}
	if engine.IdentityKey() != testPhone {
		t.Errorf("IdentityKey = %q, want the phone", engine.IdentityKey())
	}
}

func TestStartSessionFallsBackToSessionSeed(t *testing.T) {
	remote := &testutil.StubRemote{
		ValidateFn: okValidate,
		StartFn:    okStart(demoQuestions()),
	}
	engine := New(remote, &testutil.MemStore{}, nil)
	engine.ValidatePasscode(context.Background(), "DEMO-2025")

	res := engine.StartSession(context.Background(), models.Identity{Name: "无手机号"})
	if !res.Success {
		t.Fatalf("StartSession failed: %s", res.Message)
	}
	if engine.IdentityKey() != "sess_test_1" {
		t.Errorf("IdentityKey = %q, want the session id", engine.IdentityKey())
	}
}

func TestStartSessionNoPayload(t *testing.T) {
	remote := &testutil.StubRemote{
		ValidateFn: okValidate,
		StartFn: func(identity models.Identity) (models.StartSessionResponse, error) {
			return models.StartSessionResponse{SessionID: "sess_resume"}, nil
		},
	}
	engine := New(remote, &testutil.MemStore{}, nil)
	engine.ValidatePasscode(context.Background(), "DEMO-2025")

	res := engine.StartSession(context.Background(), models.Identity{Phone: testPhone})
	if res.Success || res.Message != msgServiceError {
		t.Errorf("Expected %q failure, got %+v", msgServiceError, res)
	}
	if engine.SessionID() != "" {
		t.Error("Expected no session to be kept without questions")
	}
}

func TestAnswerCurrentOverwrites(t *testing.T) {
	engine, _, _ := startedEngine(t)

	q := engine.CurrentQuestion()
	if q == nil {
		t.Fatal("Expected a current question")
	}

	engine.AnswerCurrent(q.Options[0].ID)
	engine.AnswerCurrent(q.Options[1].ID)

	if got := engine.Answers()[q.ID]; got != q.Options[1].ID {
		t.Errorf("Answer = %q, want the latest selection %q", got, q.Options[1].ID)
	}
	if len(engine.Answers()) != 1 {
		t.Errorf("Expected exactly one recorded answer, got %d", len(engine.Answers()))
	}
}

func TestAnswerCurrentOutsideSession(t *testing.T) {
	engine := New(&testutil.StubRemote{}, &testutil.MemStore{}, nil)
	engine.AnswerCurrent("q1_a")
	if len(engine.Answers()) != 0 {
		t.Error("Expected no answers to be recorded outside a session")
	}
}

func TestGoNextLinearAdvance(t *testing.T) {
	engine, _, _ := startedEngine(t)

	// q1 has no jump rules: plain +1 regardless of the answer.
	idx := indexOf(t, engine, "q1")
	engine.GoToIndex(idx)
	engine.AnswerCurrent("q1_a")
	engine.GoNext()
	if engine.CurrentIndex() != idx+1 {
		t.Errorf("CurrentIndex = %d, want %d", engine.CurrentIndex(), idx+1)
	}
}

func TestGoNextUnansweredAdvances(t *testing.T) {
	engine, _, _ := startedEngine(t)

	// Even on a question with rules, no selection means linear advance.
	engine.GoToIndex(indexOf(t, engine, "q2"))
	before := engine.CurrentIndex()
	engine.GoNext()
	if engine.CurrentIndex() != before+1 {
		t.Errorf("CurrentIndex = %d, want %d", engine.CurrentIndex(), before+1)
	}
}

func TestGoNextClampsAtLastIndex(t *testing.T) {
	engine, _, _ := startedEngine(t)

	last := engine.Total() - 1
	engine.GoToIndex(last)
	engine.GoNext()
	if engine.CurrentIndex() != last {
		t.Errorf("CurrentIndex = %d, want to stay at %d", engine.CurrentIndex(), last)
	}
}

func TestGoNextEndRule(t *testing.T) {
	engine, _, _ := startedEngine(t)

	// q2's 不满意 option carries an end rule: the flow lands on the last
	// slide, not on the next question.
	engine.GoToIndex(indexOf(t, engine, "q2"))
	engine.AnswerCurrent("q2_c")
	engine.GoNext()

	if want := engine.Total() - 1; engine.CurrentIndex() != want {
		t.Errorf("CurrentIndex = %d, want last index %d", engine.CurrentIndex(), want)
	}
}

func TestGoNextEndRuleBeatsTarget(t *testing.T) {
	questions := []models.Question{
		{ID: "qa", Options: []models.Option{{ID: "qa_1", Text: "一"}},
			JumpRules: []models.JumpRule{{OptionID: "qa_1", TargetQuestionID: "qc", End: true}}},
		{ID: "qb", Options: []models.Option{{ID: "qb_1", Text: "一"}}},
		{ID: "qc", Options: []models.Option{{ID: "qc_1", Text: "一"}}},
		{ID: "qd", Options: []models.Option{{ID: "qd_1", Text: "一"}}},
	}
	engine := New(&testutil.StubRemote{ValidateFn: okValidate, StartFn: okStart(questions)}, &testutil.MemStore{}, nil)
	engine.ValidatePasscode(context.Background(), "DEMO-2025")
	engine.StartSession(context.Background(), models.Identity{Phone: testPhone})

	engine.GoToIndex(indexOf(t, engine, "qa"))
	engine.AnswerCurrent("qa_1")
	engine.GoNext()

	if want := engine.Total() - 1; engine.CurrentIndex() != want {
		t.Errorf("CurrentIndex = %d, want %d: end must win over the target", engine.CurrentIndex(), want)
	}
}

func TestGoNextExplicitTarget(t *testing.T) {
	questions := []models.Question{
		{ID: "qa", Options: []models.Option{{ID: "qa_1", Text: "一"}, {ID: "qa_2", Text: "二"}},
			JumpRules: []models.JumpRule{{OptionID: "qa_2", TargetQuestionID: "qd"}}},
		{ID: "qb", Options: []models.Option{{ID: "qb_1", Text: "一"}}},
		{ID: "qc", Options: []models.Option{{ID: "qc_1", Text: "一"}}},
		{ID: "qd", Options: []models.Option{{ID: "qd_1", Text: "一"}}},
	}
	engine := New(&testutil.StubRemote{ValidateFn: okValidate, StartFn: okStart(questions)}, &testutil.MemStore{}, nil)
	engine.ValidatePasscode(context.Background(), "DEMO-2025")
	engine.StartSession(context.Background(), models.Identity{Phone: testPhone})

	engine.GoToIndex(indexOf(t, engine, "qa"))
	engine.AnswerCurrent("qa_2")
	engine.GoNext()

	if want := indexOf(t, engine, "qd"); engine.CurrentIndex() != want {
		t.Errorf("CurrentIndex = %d, want qd at %d", engine.CurrentIndex(), want)
	}
}

func TestGoNextDanglingTargetFallsBack(t *testing.T) {
	questions := []models.Question{
		{ID: "qa", Options: []models.Option{{ID: "qa_1", Text: "一"}},
			JumpRules: []models.JumpRule{{OptionID: "qa_1", TargetQuestionID: "q_gone"}}},
		{ID: "qb", Options: []models.Option{{ID: "qb_1", Text: "一"}}},
		{ID: "qc", Options: []models.Option{{ID: "qc_1", Text: "一"}}},
	}
	engine := New(&testutil.StubRemote{ValidateFn: okValidate, StartFn: okStart(questions)}, &testutil.MemStore{}, nil)
	engine.ValidatePasscode(context.Background(), "DEMO-2025")
	engine.StartSession(context.Background(), models.Identity{Phone: testPhone})

	idx := indexOf(t, engine, "qa")
	engine.GoToIndex(idx)
	engine.AnswerCurrent("qa_1")
	engine.GoNext()

	want := idx + 1
	if want >= engine.Total() {
		want = idx // clamped
	}
	if engine.CurrentIndex() != want {
		t.Errorf("CurrentIndex = %d, want linear advance to %d", engine.CurrentIndex(), want)
	}
}

func TestGoPrevFloorsAtZero(t *testing.T) {
	engine, _, _ := startedEngine(t)

	engine.GoPrev()
	if engine.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex = %d, want 0", engine.CurrentIndex())
	}

	engine.GoToIndex(2)
	engine.GoPrev()
	if engine.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex = %d, want 1", engine.CurrentIndex())
	}
}

func TestGoPrevKeepsAnswers(t *testing.T) {
	engine, _, _ := startedEngine(t)

	q := engine.CurrentQuestion()
	engine.AnswerCurrent(q.Options[0].ID)
	engine.GoNext()
	engine.GoPrev()

	if engine.Answers()[q.ID] != q.Options[0].ID {
		t.Error("Expected the answer to survive going back")
	}
}

func TestGoToIndexBounds(t *testing.T) {
	engine, _, _ := startedEngine(t)

	engine.GoToIndex(3)
	if engine.CurrentIndex() != 3 {
		t.Errorf("CurrentIndex = %d, want 3", engine.CurrentIndex())
	}

	engine.GoToIndex(-1)
	engine.GoToIndex(engine.Total())
	if engine.CurrentIndex() != 3 {
		t.Errorf("Out-of-range jumps must be ignored, got %d", engine.CurrentIndex())
	}
}

func TestProgressAndAllAnswered(t *testing.T) {
	engine, _, _ := startedEngine(t)

	if engine.AllAnswered() {
		t.Error("Expected AllAnswered false with no answers")
	}

	order := engine.OrderedQuestionIDs()
	for i := range order[:len(order)-1] {
		engine.GoToIndex(i)
		q := engine.CurrentQuestion()
		engine.AnswerCurrent(q.Options[0].ID)
	}

	progress := engine.Progress()
	if len(progress) != engine.Total() {
		t.Fatalf("Progress has %d items, want %d", len(progress), engine.Total())
	}
	answered := 0
	for _, p := range progress {
		if p.Answered {
			answered++
		}
	}
	if answered != engine.Total()-1 {
		t.Errorf("Answered = %d, want %d", answered, engine.Total()-1)
	}
	if engine.AllAnswered() {
		t.Error("Expected AllAnswered false with one question open")
	}

	engine.GoToIndex(engine.Total() - 1)
	q := engine.CurrentQuestion()
	engine.AnswerCurrent(q.Options[0].ID)
	if !engine.AllAnswered() {
		t.Error("Expected AllAnswered true with every question answered")
	}
}

func TestAllAnsweredEmptyEngine(t *testing.T) {
	engine := New(&testutil.StubRemote{}, &testutil.MemStore{}, nil)
	if engine.AllAnswered() {
		t.Error("Expected AllAnswered false with zero questions")
	}
}

func TestCurrentQuestionOutOfRange(t *testing.T) {
	engine := New(&testutil.StubRemote{}, &testutil.MemStore{}, nil)
	if engine.CurrentQuestion() != nil {
		t.Error("Expected nil current question before a session")
	}
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	engine, remote, store := startedEngine(t)

	q := engine.CurrentQuestion()
	engine.AnswerCurrent(q.Options[0].ID)
	engine.GoNext()
	engine.SaveLocal()

	restored := New(remote, store, nil)
	restored.RestoreLocal()

	if restored.State() != SessionActive {
		t.Fatalf("State = %v, want SessionActive after restore", restored.State())
	}
	if restored.SessionID() != engine.SessionID() {
		t.Errorf("SessionID = %q, want %q", restored.SessionID(), engine.SessionID())
	}
	if !slices.Equal(restored.OrderedQuestionIDs(), engine.OrderedQuestionIDs()) {
		t.Error("Expected the stored order to be replayed")
	}
	if restored.CurrentIndex() != engine.CurrentIndex() {
		t.Errorf("CurrentIndex = %d, want %d", restored.CurrentIndex(), engine.CurrentIndex())
	}
	if restored.Answers()[q.ID] != q.Options[0].ID {
		t.Error("Expected answers to be replayed")
	}
}

func TestRestoreNeverRecomputesOrder(t *testing.T) {
	// The stored order is deliberately NOT what the shuffler would produce
	// for this identity; restore must replay it verbatim.
	storedOrder := []string{"q5", "q4", "q3", "q2", "q1"}
	store := &testutil.MemStore{Snap: &models.Snapshot{
		Questionnaire:      activeMeta(),
		Questions:          demoQuestions(),
		OrderedQuestionIDs: storedOrder,
		Answers:            models.AnswerMap{"q5": "q5_a"},
		SessionID:          "sess_test_1",
		CurrentIndex:       1,
	}}

	engine := New(&testutil.StubRemote{}, store, nil)
	engine.RestoreLocal()

	if !slices.Equal(engine.OrderedQuestionIDs(), storedOrder) {
		t.Errorf("Order = %v, want stored %v", engine.OrderedQuestionIDs(), storedOrder)
	}
	if engine.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex = %d, want 1", engine.CurrentIndex())
	}
}

func TestRestoreDefaultsAbsentFields(t *testing.T) {
	store := &testutil.MemStore{Snap: &models.Snapshot{}}
	engine := New(&testutil.StubRemote{}, store, nil)
	engine.RestoreLocal()

	if engine.State() != Idle {
		t.Errorf("State = %v, want Idle for an empty snapshot", engine.State())
	}
	if engine.CurrentIndex() != 0 || engine.Total() != 0 || len(engine.Answers()) != 0 {
		t.Error("Expected zero-value defaults for absent fields")
	}
	if engine.StartedAt() != nil {
		t.Error("Expected nil StartedAt")
	}
}

func TestReconnectKeepsStoredOrder(t *testing.T) {
	storedOrder := []string{"q5", "q4", "q3", "q2", "q1"}
	store := &testutil.MemStore{Snap: &models.Snapshot{
		Questionnaire:      activeMeta(),
		Questions:          demoQuestions(),
		OrderedQuestionIDs: storedOrder,
		SessionID:          "sess_test_1",
		CurrentIndex:       2,
	}}
	remote := &testutil.StubRemote{
		ValidateFn: okValidate,
		StartFn: func(identity models.Identity) (models.StartSessionResponse, error) {
			// Same session, no payload: a resume.
			return models.StartSessionResponse{SessionID: "sess_test_1", RemainingSeconds: 120}, nil
		},
	}

	engine := New(remote, store, nil)
	engine.RestoreLocal()
	res := engine.StartSession(context.Background(), models.Identity{Phone: testPhone})
	if !res.Success {
		t.Fatalf("StartSession failed: %s", res.Message)
	}

	if !slices.Equal(engine.OrderedQuestionIDs(), storedOrder) {
		t.Errorf("Order = %v, want stored %v", engine.OrderedQuestionIDs(), storedOrder)
	}
	if engine.CurrentIndex() != 2 {
		t.Errorf("CurrentIndex = %d, want the restored position 2", engine.CurrentIndex())
	}
	if engine.RemainingSeconds() != 120 {
		t.Errorf("RemainingSeconds = %d, want the refreshed 120", engine.RemainingSeconds())
	}
}

func TestSaveRemoteSingleFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	remote := &testutil.StubRemote{
		ValidateFn: okValidate,
		StartFn:    okStart(demoQuestions()),
		SaveFn: func(sessionID string, answers models.AnswerMap, currentIndex int) (models.SaveProgressResponse, error) {
			close(entered)
			<-release
			return models.SaveProgressResponse{SavedAt: time.Now()}, nil
		},
	}
	engine := New(remote, &testutil.MemStore{}, nil)
	engine.ValidatePasscode(context.Background(), "DEMO-2025")
	engine.StartSession(context.Background(), models.Identity{Phone: testPhone})

	done := make(chan struct{})
	go func() {
		engine.SaveRemote(context.Background())
		close(done)
	}()

	<-entered
	// While the first save is in flight, further saves are silent no-ops.
	engine.SaveRemote(context.Background())
	close(release)
	<-done

	if _, _, saves, _ := remote.Calls(); saves != 1 {
		t.Errorf("Expected exactly 1 network save, got %d", saves)
	}
}

func TestSaveRemoteWithoutSession(t *testing.T) {
	remote := &testutil.StubRemote{}
	engine := New(remote, &testutil.MemStore{}, nil)

	engine.SaveRemote(context.Background())

	if _, _, saves, _ := remote.Calls(); saves != 0 {
		t.Errorf("Expected no network call without a session, got %d", saves)
	}
}

func TestSaveRemoteFailureIsSwallowed(t *testing.T) {
	remote := &testutil.StubRemote{
		ValidateFn: okValidate,
		StartFn:    okStart(demoQuestions()),
		SaveFn: func(sessionID string, answers models.AnswerMap, currentIndex int) (models.SaveProgressResponse, error) {
			return models.SaveProgressResponse{}, errors.New("network down")
		},
	}
	engine := New(remote, &testutil.MemStore{}, nil)
	engine.ValidatePasscode(context.Background(), "DEMO-2025")
	engine.StartSession(context.Background(), models.Identity{Phone: testPhone})

	engine.SaveRemote(context.Background()) // must not panic or change state

	if engine.State() != SessionActive {
		t.Errorf("State = %v, want SessionActive after a failed autosave", engine.State())
	}

	// The guard must have been cleared: a later save goes through.
	engine.SaveRemote(context.Background())
	if _, _, saves, _ := remote.Calls(); saves != 2 {
		t.Errorf("Expected the guard to clear after failure, got %d saves", saves)
	}
}

func TestSubmitSuccess(t *testing.T) {
	engine, _, store := startedEngine(t)
	engine.SaveLocal()

	res := engine.Submit(context.Background())
	if !res.Success {
		t.Fatalf("Submit failed: %s", res.Message)
	}
	if engine.State() != Completed {
		t.Errorf("State = %v, want Completed", engine.State())
	}
	if store.Snap != nil || store.Removes != 1 {
		t.Error("Expected the local snapshot to be purged on success")
	}
}

func TestSubmitNotGatedOnAllAnswered(t *testing.T) {
	// Submission is permitted even with open questions; gating on
	// AllAnswered is the presentation layer's policy choice.
	engine, _, _ := startedEngine(t)
	if engine.AllAnswered() {
		t.Fatal("Precondition: not all answered")
	}
	if res := engine.Submit(context.Background()); !res.Success {
		t.Errorf("Expected permissive submit, got %+v", res)
	}
}

func TestSubmitFailureIsRetryable(t *testing.T) {
	failing := true
	remote := &testutil.StubRemote{
		ValidateFn: okValidate,
		StartFn:    okStart(demoQuestions()),
		SubmitFn: func(sessionID string, answers models.AnswerMap) (models.SubmitAnswersResponse, error) {
			if failing {
				return models.SubmitAnswersResponse{}, errors.New("timeout")
			}
			return models.SubmitAnswersResponse{Success: true}, nil
		},
	}
	store := &testutil.MemStore{}
	engine := New(remote, store, nil)
	engine.ValidatePasscode(context.Background(), "DEMO-2025")
	engine.StartSession(context.Background(), models.Identity{Phone: testPhone})
	engine.SaveLocal()

	res := engine.Submit(context.Background())
	if res.Success || res.Message != msgSubmitFail {
		t.Errorf("Expected %q failure, got %+v", msgSubmitFail, res)
	}
	if engine.State() != SessionActive {
		t.Errorf("State = %v, want SessionActive after a failed submit", engine.State())
	}
	if store.Snap == nil {
		t.Error("Expected the local snapshot to survive a failed submit")
	}

	failing = false
	if res := engine.Submit(context.Background()); !res.Success {
		t.Errorf("Expected the retry to succeed, got %+v", res)
	}
}

func TestSubmitUnsuccessfulResponse(t *testing.T) {
	remote := &testutil.StubRemote{
		ValidateFn: okValidate,
		StartFn:    okStart(demoQuestions()),
		SubmitFn: func(sessionID string, answers models.AnswerMap) (models.SubmitAnswersResponse, error) {
			return models.SubmitAnswersResponse{Success: false}, nil
		},
	}
	engine := New(remote, &testutil.MemStore{}, nil)
	engine.ValidatePasscode(context.Background(), "DEMO-2025")
	engine.StartSession(context.Background(), models.Identity{Phone: testPhone})

	if res := engine.Submit(context.Background()); res.Success || res.Message != msgSubmitFail {
		t.Errorf("Expected %q failure for success=false, got %+v", msgSubmitFail, res)
	}
}

func TestSubmitWithoutSession(t *testing.T) {
	remote := &testutil.StubRemote{}
	engine := New(remote, &testutil.MemStore{}, nil)

	res := engine.Submit(context.Background())
	if res.Success || res.Message != msgInvalidSession {
		t.Errorf("Expected %q failure, got %+v", msgInvalidSession, res)
	}
	if _, _, _, submits := remote.Calls(); submits != 0 {
		t.Errorf("Expected no network call, got %d", submits)
	}
}

func TestSubmitSingleFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	remote := &testutil.StubRemote{
		ValidateFn: okValidate,
		StartFn:    okStart(demoQuestions()),
		SubmitFn: func(sessionID string, answers models.AnswerMap) (models.SubmitAnswersResponse, error) {
			close(entered)
			<-release
			return models.SubmitAnswersResponse{Success: true}, nil
		},
	}
	engine := New(remote, &testutil.MemStore{}, nil)
	engine.ValidatePasscode(context.Background(), "DEMO-2025")
	engine.StartSession(context.Background(), models.Identity{Phone: testPhone})

	first := make(chan Result, 1)
	go func() { first <- engine.Submit(context.Background()) }()

	<-entered
	// A second submit while one is in flight fails fast, no second request.
	second := engine.Submit(context.Background())
	if second.Success || second.Message != msgInvalidSession {
		t.Errorf("Expected %q rejection, got %+v", msgInvalidSession, second)
	}

	close(release)
	if res := <-first; !res.Success {
		t.Errorf("Expected the first submit to succeed, got %+v", res)
	}
	if _, _, _, submits := remote.Calls(); submits != 1 {
		t.Errorf("Expected exactly 1 network submit, got %d", submits)
	}
}

func TestReset(t *testing.T) {
	engine, _, store := startedEngine(t)

	q := engine.CurrentQuestion()
	engine.AnswerCurrent(q.Options[0].ID)
	engine.SaveLocal()
	engine.Reset()

	if engine.State() != Idle {
		t.Errorf("State = %v, want Idle", engine.State())
	}
	if engine.SessionID() != "" || engine.Total() != 0 || len(engine.Answers()) != 0 {
		t.Error("Expected all session entities cleared")
	}
	if engine.Questionnaire() != nil || engine.StartedAt() != nil {
		t.Error("Expected meta and timestamps cleared")
	}

	// Reset never touches persisted storage; purging is the caller's call.
	if store.Snap == nil {
		t.Error("Expected the persisted snapshot to survive Reset")
	}
}

func TestNilStoreIsHarmless(t *testing.T) {
	remote := &testutil.StubRemote{ValidateFn: okValidate, StartFn: okStart(demoQuestions())}
	engine := New(remote, nil, nil)
	engine.ValidatePasscode(context.Background(), "DEMO-2025")
	engine.StartSession(context.Background(), models.Identity{Phone: testPhone})

	engine.SaveLocal()
	engine.RestoreLocal()
	if res := engine.Submit(context.Background()); !res.Success {
		t.Errorf("Submit with nil store failed: %+v", res)
	}
}
