// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"qnflow/auth"
	"qnflow/cliparse"
	"qnflow/middleware"
	"qnflow/models"
	"qnflow/qdata"
)

type QuestionnaireHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	def qdata.Definition

	// now is swappable in tests.
	now func() time.Time
}

func NewQuestionnaireHandler(db *sql.DB, cfg cliparse.Config, def qdata.Definition) *QuestionnaireHandler {
	return &QuestionnaireHandler{db: db, cfg: cfg, def: def, now: time.Now}
}

// Passcodes handles GET /questionnaire/passcodes
// Lists the available demo codes; a non-production aid.
func (h *QuestionnaireHandler) Passcodes(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, h.def.Passcodes)
}

// Validate handles POST /questionnaire/validate
func (h *QuestionnaireHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req models.ValidatePasscodeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if !h.def.HasPasscode(req.Passcode) {
		middleware.JSONResponse(w, http.StatusOK, models.ValidatePasscodeResponse{
			Valid:         false,
			Questionnaire: nil,
		})
		return
	}

	// Active is recomputed against the validity window; the client refuses
	// entry when it is false.
	meta := h.def.MetaAt(h.now())
	middleware.JSONResponse(w, http.StatusOK, models.ValidatePasscodeResponse{
		Valid:         true,
		Questionnaire: &meta,
	})
}

// Start handles POST /questionnaire/start
// An identity that already submitted gets alreadyAnswered and may not
// proceed. An identity with an open session gets the same session id back
// without the payload; only a first start carries meta and questions.
func (h *QuestionnaireHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req models.Identity
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Phone == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "phone is required")
		return
	}

	now := h.now()
	if !h.def.ActiveAt(now) {
		middleware.ErrorResponse(w, http.StatusConflict, "Questionnaire is not open")
		return
	}

	identityHash := auth.HashIdentity(req.Phone, req.IDCard, h.cfg.IdentitySalt)

	// Terminal rejection: this identity already submitted.
	var submitted bool
	err := h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM qn_submission WHERE identity_hash = $1
		)
	`, identityHash).Scan(&submitted)
	if err != nil {
		slog.Error("failed to check submissions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if submitted {
		middleware.JSONResponse(w, http.StatusOK, models.StartSessionResponse{
			QuestionnaireID: h.def.Meta.ID,
			AlreadyAnswered: true,
		})
		return
	}

	// Resume an open session without resending the payload.
	var sessionID string
	var startedAt time.Time
	var initialSeconds sql.NullInt64
	err = h.db.QueryRow(`
		SELECT id, started_at, remaining_seconds FROM qn_session
		WHERE questionnaire_id = $1 AND identity_hash = $2
		ORDER BY started_at DESC LIMIT 1
	`, h.def.Meta.ID, identityHash).Scan(&sessionID, &startedAt, &initialSeconds)

	if err != nil && err != sql.ErrNoRows {
		slog.Error("failed to query sessions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err == nil {
		remaining := 0
		if initialSeconds.Valid && initialSeconds.Int64 > 0 {
			remaining = int(initialSeconds.Int64) - int(now.Sub(startedAt).Seconds())
			if remaining < 0 {
				remaining = 0
			}
		}

		slog.Info("session resumed", "session_id", sessionID)
		middleware.JSONResponse(w, http.StatusOK, models.StartSessionResponse{
			SessionID:        sessionID,
			QuestionnaireID:  h.def.Meta.ID,
			RemainingSeconds: remaining,
		})
		return
	}

	// First start: issue a session and send the full payload.
	sessionID = uuid.NewString()
	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.IdentitySalt)
	userAgent := r.UserAgent()

	_, err = h.db.Exec(`
		INSERT INTO qn_session (id, questionnaire_id, identity_hash, name, ip_hash, user_agent, remaining_seconds, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, sessionID, h.def.Meta.ID, identityHash, req.Name, ipHash, userAgent, h.def.Meta.TimeLimitSeconds, now)
	if err != nil {
		slog.Error("failed to insert session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	slog.Info("session started", "session_id", sessionID)

	middleware.JSONResponse(w, http.StatusOK, models.StartSessionResponse{
		SessionID:        sessionID,
		QuestionnaireID:  h.def.Meta.ID,
		RemainingSeconds: h.def.Meta.TimeLimitSeconds,
		Payload: &models.QuestionnairePayload{
			Meta:      h.def.MetaAt(now),
			Questions: h.def.Questions,
		},
	})
}

// Save handles POST /questionnaire/save
// Upserts the autosaved progress for a session.
func (h *QuestionnaireHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req models.SaveProgressRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.SessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if req.CurrentIndex < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "currentIndex must not be negative")
		return
	}

	if !h.sessionExists(w, req.SessionID) {
		return
	}

	answers, err := json.Marshal(req.Answers)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid answers")
		return
	}

	savedAt := h.now()
	_, err = h.db.Exec(`
		INSERT INTO qn_progress (session_id, answers, current_index, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE SET answers = $2, current_index = $3, saved_at = $4
	`, req.SessionID, string(answers), req.CurrentIndex, savedAt)
	if err != nil {
		slog.Error("failed to save progress", "error", err, "session_id", req.SessionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save progress")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SaveProgressResponse{SavedAt: savedAt})
}

// Submit handles POST /questionnaire/submit
// Records the final answers, once per session.
func (h *QuestionnaireHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitAnswersRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.SessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	var identityHash string
	err := h.db.QueryRow(`
		SELECT identity_hash FROM qn_session WHERE id = $1
	`, req.SessionID).Scan(&identityHash)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	answers, err := json.Marshal(req.Answers)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid answers")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM qn_submission WHERE session_id = $1)
	`, req.SessionID).Scan(&exists)
	if err != nil {
		slog.Error("failed to check submission", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists {
		middleware.ErrorResponse(w, http.StatusConflict, "Session already submitted")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO qn_submission (session_id, identity_hash, answers, submitted_at)
		VALUES ($1, $2, $3, $4)
	`, req.SessionID, identityHash, string(answers), h.now())
	if err != nil {
		slog.Error("failed to insert submission", "error", err, "session_id", req.SessionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit answers")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit answers")
		return
	}

	slog.Info("answers submitted", "session_id", req.SessionID)

	middleware.JSONResponse(w, http.StatusOK, models.SubmitAnswersResponse{Success: true})
}

// sessionExists writes the error response itself when the session is missing
// or the lookup fails.
func (h *QuestionnaireHandler) sessionExists(w http.ResponseWriter, sessionID string) bool {
	var exists bool
	err := h.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM qn_session WHERE id = $1)
	`, sessionID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return false
	}
	return true
}
