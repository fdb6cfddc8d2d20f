package models

import "time"

// Question type constants
const (
	TypeSingle = "single"
)

// Domain types

type QuestionnaireMeta struct {
	ID               string     `json:"id" yaml:"id"`
	Title            string     `json:"title" yaml:"title"`
	LogoURL          string     `json:"logoUrl,omitempty" yaml:"logoUrl,omitempty"`
	Active           bool       `json:"active" yaml:"active"`
	StartAt          *time.Time `json:"startAt,omitempty" yaml:"startAt,omitempty"`
	EndAt            *time.Time `json:"endAt,omitempty" yaml:"endAt,omitempty"`
	TimeLimitSeconds int        `json:"timeLimitSeconds,omitempty" yaml:"timeLimitSeconds,omitempty"`
}

type Option struct {
	ID       string `json:"id" yaml:"id"`
	Text     string `json:"text" yaml:"text"`
	ImageURL string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

// JumpRule redirects the flow when its option is selected.
// End takes precedence over TargetQuestionID when both are set.
type JumpRule struct {
	OptionID         string `json:"optionId" yaml:"optionId"`
	TargetQuestionID string `json:"targetQuestionId,omitempty" yaml:"targetQuestionId,omitempty"`
	End              bool   `json:"end,omitempty" yaml:"end,omitempty"`
}

type Question struct {
	ID          string     `json:"id" yaml:"id"`
	Type        string     `json:"type" yaml:"type"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Options     []Option   `json:"options" yaml:"options"`
	JumpRules   []JumpRule `json:"jumpRules,omitempty" yaml:"jumpRules,omitempty"`
}

type QuestionnairePayload struct {
	Meta      QuestionnaireMeta `json:"meta"`
	Questions []Question        `json:"questions"`
}

type Identity struct {
	Phone  string `json:"phone"`
	Name   string `json:"name"`
	IDCard string `json:"idCard"`
}

// AnswerMap maps a question id to the selected option id.
// An absent entry means the question is unanswered.
type AnswerMap map[string]string

// Snapshot is the locally persisted subset of session state, stored as one
// JSON blob under a fixed key. Absent fields default to zero values on
// restore.
type Snapshot struct {
	Questionnaire      *QuestionnaireMeta `json:"questionnaire,omitempty"`
	Questions          []Question         `json:"questions,omitempty"`
	OrderedQuestionIDs []string           `json:"orderedQuestionIds,omitempty"`
	Answers            AnswerMap          `json:"answers,omitempty"`
	SessionID          string             `json:"sessionId,omitempty"`
	RemainingSeconds   int                `json:"remainingSeconds,omitempty"`
	CurrentIndex       int                `json:"currentIndex,omitempty"`
	StartedAt          *time.Time         `json:"startedAt,omitempty"`
}

// Request types

type ValidatePasscodeRequest struct {
	Passcode string `json:"passcode"`
}

type SaveProgressRequest struct {
	SessionID    string    `json:"sessionId"`
	Answers      AnswerMap `json:"answers"`
	CurrentIndex int       `json:"currentIndex"`
}

type SubmitAnswersRequest struct {
	SessionID string    `json:"sessionId"`
	Answers   AnswerMap `json:"answers"`
}

// Response types

type ValidatePasscodeResponse struct {
	Valid         bool               `json:"valid"`
	Questionnaire *QuestionnaireMeta `json:"questionnaire"`
}

type StartSessionResponse struct {
	SessionID        string                `json:"sessionId"`
	QuestionnaireID  string                `json:"questionnaireId"`
	AlreadyAnswered  bool                  `json:"alreadyAnswered,omitempty"`
	RemainingSeconds int                   `json:"remainingSeconds,omitempty"`
	Payload          *QuestionnairePayload `json:"payload,omitempty"`
}

type SaveProgressResponse struct {
	SavedAt time.Time `json:"savedAt"`
}

type SubmitAnswersResponse struct {
	Success bool `json:"success"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
