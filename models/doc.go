// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the questionnaire data model and the wire types shared
by the flow engine, the API client, and the mock server.

# Domain Types

  - QuestionnaireMeta: id, title, validity window, time budget
  - Question: single-choice question with options and optional jump rules
  - Option: one selectable answer
  - JumpRule: conditional branch attached to an option (end or redirect)
  - Identity: respondent identity submitted at session start
  - AnswerMap: question id -> selected option id
  - Snapshot: the locally persisted subset of session state

# Wire Types

Request/response pairs for the five questionnaire endpoints:

  - ValidatePasscodeRequest / ValidatePasscodeResponse
  - Identity / StartSessionResponse
  - SaveProgressRequest / SaveProgressResponse
  - SubmitAnswersRequest / SubmitAnswersResponse
  - ErrorResponse: error, message

Domain structs carry yaml tags as well so questionnaire definitions can be
authored as YAML files (see package qdata).
*/
package models
