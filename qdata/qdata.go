// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package qdata

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"qnflow/models"
)

// Definition is one questionnaire instance: its metadata, question set, and
// the passcodes that gate entry. The server holds exactly one per process.
type Definition struct {
	Passcodes []string                 `yaml:"passcodes" json:"passcodes"`
	Meta      models.QuestionnaireMeta `yaml:"meta" json:"meta"`
	Questions []models.Question        `yaml:"questions" json:"questions"`
}

// Load reads and validates a definition from a YAML file.
func Load(path string) (Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to read definition: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return Definition{}, fmt.Errorf("failed to parse definition: %w", err)
	}

	if err := def.Validate(); err != nil {
		return Definition{}, fmt.Errorf("invalid definition %s: %w", path, err)
	}
	return def, nil
}

// Validate checks structural invariants: unique question and option ids, at
// most one jump rule per option, and rule references that resolve.
func (d Definition) Validate() error {
	if d.Meta.ID == "" {
		return errors.New("questionnaire id is required")
	}
	if len(d.Passcodes) == 0 {
		return errors.New("at least one passcode is required")
	}
	if len(d.Questions) == 0 {
		return errors.New("at least one question is required")
	}

	questionIDs := make(map[string]bool, len(d.Questions))
	for _, q := range d.Questions {
		if q.ID == "" {
			return errors.New("question id is required")
		}
		if questionIDs[q.ID] {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		questionIDs[q.ID] = true
	}

	for _, q := range d.Questions {
		if q.Type != "" && q.Type != models.TypeSingle {
			return fmt.Errorf("question %q has unsupported type %q", q.ID, q.Type)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("question %q has no options", q.ID)
		}

		optionIDs := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if o.ID == "" {
				return fmt.Errorf("question %q has an option without an id", q.ID)
			}
			if optionIDs[o.ID] {
				return fmt.Errorf("duplicate option id %q in question %q", o.ID, q.ID)
			}
			optionIDs[o.ID] = true
		}

		ruled := make(map[string]bool, len(q.JumpRules))
		for _, r := range q.JumpRules {
			if !optionIDs[r.OptionID] {
				return fmt.Errorf("jump rule in question %q references unknown option %q", q.ID, r.OptionID)
			}
			if ruled[r.OptionID] {
				return fmt.Errorf("question %q has multiple jump rules for option %q", q.ID, r.OptionID)
			}
			ruled[r.OptionID] = true
			if !r.End && r.TargetQuestionID != "" && !questionIDs[r.TargetQuestionID] {
				return fmt.Errorf("jump rule in question %q targets unknown question %q", q.ID, r.TargetQuestionID)
			}
		}
	}
	return nil
}

// HasPasscode reports whether code (trimmed) matches one of the passcodes.
func (d Definition) HasPasscode(code string) bool {
	return slices.Contains(d.Passcodes, strings.TrimSpace(code))
}

// ActiveAt reports whether the questionnaire accepts respondents at t: the
// active flag must be set and t must fall inside the validity window.
func (d Definition) ActiveAt(t time.Time) bool {
	if !d.Meta.Active {
		return false
	}
	if d.Meta.StartAt != nil && t.Before(*d.Meta.StartAt) {
		return false
	}
	if d.Meta.EndAt != nil && t.After(*d.Meta.EndAt) {
		return false
	}
	return true
}

// MetaAt returns the metadata with Active recomputed against the validity
// window at t. This is what validate responses carry.
func (d Definition) MetaAt(t time.Time) models.QuestionnaireMeta {
	m := d.Meta
	m.Active = d.ActiveAt(t)
	return m
}

// Demo returns the built-in demonstration questionnaire: three passcodes and
// five single-choice questions, one of which ends the flow early on a
// dissatisfied answer.
func Demo() Definition {
	startAt := time.Now().Add(-24 * time.Hour)
	endAt := time.Now().Add(30 * 24 * time.Hour)

	return Definition{
		Passcodes: []string{"DEMO-2025", "SURVEY-A", "SURVEY-B"},
		Meta: models.QuestionnaireMeta{
			ID:               "q_1001",
			Title:            "员工问卷（演示）",
			LogoURL:          "/favicon.ico",
			Active:           true,
			StartAt:          &startAt,
			EndAt:            &endAt,
			TimeLimitSeconds: 300,
		},
		Questions: []models.Question{
			{
				ID: "q1", Type: models.TypeSingle, Title: "您最常使用的设备是？",
				Options: []models.Option{
					{ID: "q1_a", Text: "手机"},
					{ID: "q1_b", Text: "平板"},
					{ID: "q1_c", Text: "电脑"},
					{ID: "q1_d", Text: "其他"},
				},
			},
			{
				ID: "q2", Type: models.TypeSingle, Title: "您对当前系统满意吗？",
				Options: []models.Option{
					{ID: "q2_a", Text: "非常满意"},
					{ID: "q2_b", Text: "一般"},
					{ID: "q2_c", Text: "不满意"},
				},
				JumpRules: []models.JumpRule{
					{OptionID: "q2_c", End: true},
				},
			},
			{
				ID: "q3", Type: models.TypeSingle, Title: "您最关注哪方面的体验？",
				Options: []models.Option{
					{ID: "q3_a", Text: "性能"},
					{ID: "q3_b", Text: "外观"},
					{ID: "q3_c", Text: "功能"},
					{ID: "q3_d", Text: "稳定性"},
				},
			},
			{
				ID: "q4", Type: models.TypeSingle, Title: "您使用的频率是？",
				Options: []models.Option{
					{ID: "q4_a", Text: "每天"},
					{ID: "q4_b", Text: "每周"},
					{ID: "q4_c", Text: "偶尔"},
				},
			},
			{
				ID: "q5", Type: models.TypeSingle, Title: "您是否愿意推荐给他人？",
				Options: []models.Option{
					{ID: "q5_a", Text: "愿意"},
					{ID: "q5_b", Text: "不一定"},
				},
			},
		},
	}
}
