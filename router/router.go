// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"qnflow/cliparse"
	"qnflow/handlers"
	"qnflow/middleware"
	"qnflow/qdata"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, def qdata.Definition) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	qn := handlers.NewQuestionnaireHandler(db, cfg, def)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Questionnaire flow
	mux.HandleFunc("GET /questionnaire/passcodes", middleware.WithLogging(qn.Passcodes))
	mux.HandleFunc("POST /questionnaire/validate", middleware.WithLogging(qn.Validate))
	mux.HandleFunc("POST /questionnaire/start", middleware.WithLogging(qn.Start))
	mux.HandleFunc("POST /questionnaire/save", middleware.WithLogging(qn.Save))
	mux.HandleFunc("POST /questionnaire/submit", middleware.WithLogging(qn.Submit))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("qnflow API v1"))
	})

	return mux
}
