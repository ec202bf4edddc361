package models

import (
	"fmt"
	"strings"
)

// Verdict is the evaluator's bottom line
type Verdict struct {
	AssessedGrade   Grade                `json:"assessed_grade"`
	Recommendation  HiringRecommendation `json:"recommendation"`
	ConfidenceScore int                  `json:"confidence_score"`
}

// TechnicalReview summarizes confirmed skills and gaps
type TechnicalReview struct {
	ConfirmedSkills []string       `json:"confirmed_skills"`
	KnowledgeGaps   []KnowledgeGap `json:"knowledge_gaps"`
}

// SoftSkillsReview grades communication during the interview
type SoftSkillsReview struct {
	Clarity           ClarityLevel `json:"clarity"`
	ClarityDetails    string       `json:"clarity_details,omitempty"`
	Honesty           string       `json:"honesty,omitempty"`
	EngagementDetails string       `json:"engagement_details,omitempty"`
}

// RoadmapItem is one prioritized study recommendation
type RoadmapItem struct {
	Priority  int      `json:"priority"`
	Topic     string   `json:"topic"`
	Reason    string   `json:"reason,omitempty"`
	Resources []string `json:"resources,omitempty"`
}

// Feedback is the evaluator's final structured report
type Feedback struct {
	Verdict          Verdict          `json:"verdict"`
	TechnicalReview  TechnicalReview  `json:"technical_review"`
	SoftSkillsReview SoftSkillsReview `json:"soft_skills_review"`
	PersonalRoadmap  []RoadmapItem    `json:"personal_roadmap"`
	GeneralComments  string           `json:"general_comments,omitempty"`
}

// DecodeFeedback builds a Feedback from the evaluator's JSON output.
// Missing or null nested objects decode to their zero values with enum
// defaults applied; the confidence score is clamped to [0, 100].
func DecodeFeedback(raw map[string]any) *Feedback {
	f := &Feedback{}

	verdict := getMap(raw, "verdict")
	f.Verdict = Verdict{
		AssessedGrade:   ParseAssessedGrade(getString(verdict, "assessed_grade")),
		Recommendation:  ParseHiringRecommendation(getString(verdict, "recommendation")),
		ConfidenceScore: clampScore(getFloat(verdict, "confidence_score", 0)),
	}

	tech := getMap(raw, "technical_review")
	f.TechnicalReview = TechnicalReview{
		ConfirmedSkills: dedupe(getStringSlice(tech, "confirmed_skills")),
	}
	if gaps, ok := tech["knowledge_gaps"].([]any); ok {
		for _, g := range gaps {
			gap, ok := g.(map[string]any)
			if !ok {
				continue
			}
			f.TechnicalReview.KnowledgeGaps = append(f.TechnicalReview.KnowledgeGaps, KnowledgeGap{
				Topic:         getString(gap, "topic"),
				UserAnswer:    getString(gap, "user_answer"),
				CorrectAnswer: getString(gap, "correct_answer"),
			})
		}
	}

	soft := getMap(raw, "soft_skills_review")
	f.SoftSkillsReview = SoftSkillsReview{
		Clarity:           ParseClarityLevel(getString(soft, "clarity")),
		ClarityDetails:    getString(soft, "clarity_details"),
		Honesty:           getString(soft, "honesty"),
		EngagementDetails: getString(soft, "engagement_details"),
	}

	if items, ok := raw["personal_roadmap"].([]any); ok {
		for _, item := range items {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			f.PersonalRoadmap = append(f.PersonalRoadmap, RoadmapItem{
				Priority:  int(getFloat(entry, "priority", 0)),
				Topic:     getString(entry, "topic"),
				Reason:    getString(entry, "reason"),
				Resources: getStringSlice(entry, "resources"),
			})
		}
	}

	f.GeneralComments = getString(raw, "general_comments")
	return f
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

// FormatString renders the feedback as the human-readable report stored
// in the summary log.
func (f *Feedback) FormatString() string {
	var b strings.Builder

	b.WriteString("=== INTERVIEW FEEDBACK ===\n\n")
	fmt.Fprintf(&b, "Assessed grade: %s\n", f.Verdict.AssessedGrade)
	fmt.Fprintf(&b, "Recommendation: %s\n", f.Verdict.Recommendation)
	fmt.Fprintf(&b, "Confidence: %d/100\n", f.Verdict.ConfidenceScore)

	if len(f.TechnicalReview.ConfirmedSkills) > 0 {
		b.WriteString("\nConfirmed skills:\n")
		for _, skill := range f.TechnicalReview.ConfirmedSkills {
			fmt.Fprintf(&b, "  + %s\n", skill)
		}
	}
	if len(f.TechnicalReview.KnowledgeGaps) > 0 {
		b.WriteString("\nKnowledge gaps:\n")
		for _, gap := range f.TechnicalReview.KnowledgeGaps {
			fmt.Fprintf(&b, "  - %s", gap.Topic)
			if gap.CorrectAnswer != "" {
				fmt.Fprintf(&b, " (correct: %s)", gap.CorrectAnswer)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nCommunication clarity: %s\n", f.SoftSkillsReview.Clarity)
	if f.SoftSkillsReview.ClarityDetails != "" {
		fmt.Fprintf(&b, "  %s\n", f.SoftSkillsReview.ClarityDetails)
	}
	if f.SoftSkillsReview.Honesty != "" {
		fmt.Fprintf(&b, "Honesty: %s\n", f.SoftSkillsReview.Honesty)
	}
	if f.SoftSkillsReview.EngagementDetails != "" {
		fmt.Fprintf(&b, "Engagement: %s\n", f.SoftSkillsReview.EngagementDetails)
	}

	if len(f.PersonalRoadmap) > 0 {
		b.WriteString("\nPersonal roadmap:\n")
		for _, item := range f.PersonalRoadmap {
			fmt.Fprintf(&b, "  %d. %s", item.Priority, item.Topic)
			if item.Reason != "" {
				fmt.Fprintf(&b, " (%s)", item.Reason)
			}
			b.WriteString("\n")
			for _, res := range item.Resources {
				fmt.Fprintf(&b, "     * %s\n", res)
			}
		}
	}

	if f.GeneralComments != "" {
		fmt.Fprintf(&b, "\n%s\n", f.GeneralComments)
	}
	return b.String()
}

// FallbackFeedback is returned when the evaluator cannot produce a
// parseable report after all retries.
func FallbackFeedback(state *InterviewState) *Feedback {
	skills := make([]string, len(state.ConfirmedSkills))
	copy(skills, state.ConfirmedSkills)
	gaps := make([]KnowledgeGap, len(state.KnowledgeGaps))
	copy(gaps, state.KnowledgeGaps)

	return &Feedback{
		Verdict: Verdict{
			AssessedGrade:   GradeJunior,
			Recommendation:  RecommendHire,
			ConfidenceScore: 0,
		},
		TechnicalReview: TechnicalReview{
			ConfirmedSkills: skills,
			KnowledgeGaps:   gaps,
		},
		SoftSkillsReview: SoftSkillsReview{
			Clarity: ClarityAverage,
		},
		GeneralComments: "Automatic evaluation was unavailable; the report was assembled from the recorded interview state.",
	}
}
