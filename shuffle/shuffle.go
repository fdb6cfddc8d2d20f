// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package shuffle

import "qnflow/models"

// LCG parameters (glibc constants). Predictability is fine here: the seed is
// respondent identity material, not a security boundary.
const (
	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
)

// Seed folds a seed string into a 32-bit state: s = s*31 + codepoint.
func Seed(seed string) uint32 {
	var s uint32
	for _, r := range seed {
		s = s*31 + uint32(r)
	}
	return s
}

// QuestionIDs returns a permutation of the question ids determined entirely
// by seed: the same seed always yields the same order, so a respondent sees
// a stable order across reloads. The input slice is never mutated.
func QuestionIDs(questions []models.Question, seed string) []string {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	s := Seed(seed)
	for i := len(ids) - 1; i > 0; i-- {
		s = lcgMultiplier*s + lcgIncrement
		j := int(s % uint32(i+1))
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids
}
