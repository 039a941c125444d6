// Package scoring implements the PHQ-9 and GAD-7 questionnaire scoring tables.
// Both scorers are pure functions: the only failure mode is a violated input
// contract (wrong answer count, value outside 0-3), which is rejected rather
// than clamped.
package scoring

import (
	"fmt"

	"github.com/voicescreen/voicescreen/internal/platform/apperr"
)

const (
	// PHQ9Items is the number of answers a PHQ-9 submission must carry.
	PHQ9Items = 9
	// GAD7Items is the number of answers a GAD-7 submission must carry.
	GAD7Items = 7

	// MinAnswer and MaxAnswer bound each item's value.
	MinAnswer = 0
	MaxAnswer = 3
)

// PHQ9Result holds the derived depression score, severity label and the
// recommended clinical action.
type PHQ9Result struct {
	Score    int    `json:"score"`
	Severity string `json:"severity"`
	Action   string `json:"action"`
}

// GAD7Result holds the derived anxiety score and severity label.
type GAD7Result struct {
	Score    int    `json:"score"`
	Severity string `json:"severity"`
}

// ScorePHQ9 sums the nine answers and maps the total onto the published
// PHQ-9 severity/action table. Thresholds are inclusive upper bounds and are
// applied in order.
func ScorePHQ9(answers []int) (PHQ9Result, error) {
	if err := checkAnswers("phq9_answers", answers, PHQ9Items); err != nil {
		return PHQ9Result{}, err
	}

	score := sum(answers)
	var severity, action string
	switch {
	case score <= 4:
		severity = "None-minimal"
		action = "None"
	case score <= 9:
		severity = "Mild"
		action = "Watchful waiting; repeat PHQ-9 at follow-up"
	case score <= 14:
		severity = "Moderate"
		action = "Treatment plan, considering counseling, follow-up and/or pharmacotherapy"
	case score <= 19:
		severity = "Moderately Severe"
		action = "Active treatment with pharmacotherapy and/or psychotherapy"
	default:
		severity = "Severe"
		action = "Immediate initiation of pharmacotherapy and expedited referral to mental health specialist"
	}

	return PHQ9Result{Score: score, Severity: severity, Action: action}, nil
}

// ScoreGAD7 sums the seven answers and maps the total onto the published
// GAD-7 severity table.
func ScoreGAD7(answers []int) (GAD7Result, error) {
	if err := checkAnswers("gad7_answers", answers, GAD7Items); err != nil {
		return GAD7Result{}, err
	}

	score := sum(answers)
	var severity string
	switch {
	case score <= 4:
		severity = "Minimal anxiety"
	case score <= 9:
		severity = "Mild anxiety"
	case score <= 14:
		severity = "Moderate anxiety"
	default:
		severity = "Severe anxiety"
	}

	return GAD7Result{Score: score, Severity: severity}, nil
}

func checkAnswers(field string, answers []int, want int) error {
	if len(answers) != want {
		return apperr.Validation(fmt.Sprintf("%s: expected %d answers, got %d", field, want, len(answers)))
	}
	for i, a := range answers {
		if a < MinAnswer || a > MaxAnswer {
			return apperr.Validation(fmt.Sprintf("%s[%d]: value %d out of range [%d,%d]", field, i, a, MinAnswer, MaxAnswer))
		}
	}
	return nil
}

func sum(answers []int) int {
	total := 0
	for _, a := range answers {
		total += a
	}
	return total
}
