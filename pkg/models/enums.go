package models

import "strings"

// Grade is the seniority level the candidate targets
type Grade string

const (
	// GradeIntern is an internship-level candidate
	GradeIntern Grade = "intern"
	// GradeJunior is a junior-level candidate
	GradeJunior Grade = "junior"
	// GradeMiddle is a mid-level candidate
	GradeMiddle Grade = "middle"
	// GradeSenior is a senior-level candidate
	GradeSenior Grade = "senior"
	// GradeLead is a lead-level candidate
	GradeLead Grade = "lead"
)

// IsValid checks if the grade is valid
func (g Grade) IsValid() bool {
	switch g {
	case GradeIntern, GradeJunior, GradeMiddle, GradeSenior, GradeLead:
		return true
	default:
		return false
	}
}

// ParseGrade maps a free-form string to a Grade, defaulting to junior
// for anything unrecognized.
func ParseGrade(s string) Grade {
	g := Grade(strings.ToLower(strings.TrimSpace(s)))
	if g.IsValid() {
		return g
	}
	return GradeJunior
}

// Difficulty is the current question difficulty, totally ordered 1..4
type Difficulty int

const (
	// DifficultyBasic is the easiest level
	DifficultyBasic Difficulty = iota + 1
	// DifficultyIntermediate is the second level
	DifficultyIntermediate
	// DifficultyAdvanced is the third level
	DifficultyAdvanced
	// DifficultyExpert is the hardest level
	DifficultyExpert
)

// IsValid checks if the difficulty is within the ordered range
func (d Difficulty) IsValid() bool {
	return d >= DifficultyBasic && d <= DifficultyExpert
}

// String returns the lowercase difficulty name
func (d Difficulty) String() string {
	switch d {
	case DifficultyBasic:
		return "basic"
	case DifficultyIntermediate:
		return "intermediate"
	case DifficultyAdvanced:
		return "advanced"
	case DifficultyExpert:
		return "expert"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the difficulty as its name
func (d Difficulty) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a difficulty name, defaulting to basic
func (d *Difficulty) UnmarshalJSON(data []byte) error {
	*d = ParseDifficulty(strings.Trim(string(data), `"`))
	return nil
}

// ParseDifficulty maps a difficulty name to its level, defaulting to basic
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intermediate":
		return DifficultyIntermediate
	case "advanced":
		return DifficultyAdvanced
	case "expert":
		return DifficultyExpert
	default:
		return DifficultyBasic
	}
}

// InitialDifficultyFor seeds the starting difficulty from the declared grade
func InitialDifficultyFor(g Grade) Difficulty {
	switch g {
	case GradeMiddle:
		return DifficultyIntermediate
	case GradeSenior:
		return DifficultyAdvanced
	case GradeLead:
		return DifficultyExpert
	default:
		return DifficultyBasic
	}
}

// ResponseType classifies a candidate reply
type ResponseType string

const (
	// ResponseIntroduction is the candidate introducing themselves
	ResponseIntroduction ResponseType = "introduction"
	// ResponseNormal is an ordinary attempted answer
	ResponseNormal ResponseType = "normal"
	// ResponseExcellent is an outstanding answer
	ResponseExcellent ResponseType = "excellent"
	// ResponseIncomplete is a partial answer
	ResponseIncomplete ResponseType = "incomplete"
	// ResponseHallucination is a factually invented answer
	ResponseHallucination ResponseType = "hallucination"
	// ResponseOffTopic is unrelated to the active question
	ResponseOffTopic ResponseType = "off_topic"
	// ResponseQuestion is a role reversal, the candidate asking a question
	ResponseQuestion ResponseType = "question"
	// ResponseStopCommand is a request to end the interview
	ResponseStopCommand ResponseType = "stop_command"
)

// IsValid checks if the response type is valid
func (r ResponseType) IsValid() bool {
	switch r {
	case ResponseIntroduction, ResponseNormal, ResponseExcellent,
		ResponseIncomplete, ResponseHallucination, ResponseOffTopic,
		ResponseQuestion, ResponseStopCommand:
		return true
	default:
		return false
	}
}

// ParseResponseType maps a free-form string to a ResponseType,
// defaulting to normal.
func ParseResponseType(s string) ResponseType {
	r := ResponseType(strings.ToLower(strings.TrimSpace(s)))
	if r.IsValid() {
		return r
	}
	return ResponseNormal
}

// Quality grades how good an attempted answer was
type Quality string

const (
	// QualityExcellent is a complete, precise answer
	QualityExcellent Quality = "excellent"
	// QualityGood is a correct answer with minor omissions
	QualityGood Quality = "good"
	// QualityAcceptable is a passable answer
	QualityAcceptable Quality = "acceptable"
	// QualityPoor is a weak answer
	QualityPoor Quality = "poor"
	// QualityWrong is an incorrect answer
	QualityWrong Quality = "wrong"
)

// IsValid checks if the quality is valid
func (q Quality) IsValid() bool {
	switch q {
	case QualityExcellent, QualityGood, QualityAcceptable, QualityPoor, QualityWrong:
		return true
	default:
		return false
	}
}

// ParseQuality maps a free-form string to a Quality, defaulting to acceptable
func ParseQuality(s string) Quality {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if q.IsValid() {
		return q
	}
	return QualityAcceptable
}

// ClarityLevel grades communication clarity in the final report
type ClarityLevel string

const (
	// ClarityExcellent is consistently clear communication
	ClarityExcellent ClarityLevel = "excellent"
	// ClarityGood is mostly clear communication
	ClarityGood ClarityLevel = "good"
	// ClarityAverage is mixed clarity
	ClarityAverage ClarityLevel = "average"
	// ClarityPoor is unclear communication
	ClarityPoor ClarityLevel = "poor"
)

// IsValid checks if the clarity level is valid
func (c ClarityLevel) IsValid() bool {
	switch c {
	case ClarityExcellent, ClarityGood, ClarityAverage, ClarityPoor:
		return true
	default:
		return false
	}
}

// ParseClarityLevel maps a free-form string to a ClarityLevel,
// defaulting to average.
func ParseClarityLevel(s string) ClarityLevel {
	c := ClarityLevel(strings.ToLower(strings.TrimSpace(s)))
	if c.IsValid() {
		return c
	}
	return ClarityAverage
}

// HiringRecommendation is the final hiring verdict
type HiringRecommendation string

const (
	// RecommendStrongHire is an unambiguous yes
	RecommendStrongHire HiringRecommendation = "strong_hire"
	// RecommendHire is a yes
	RecommendHire HiringRecommendation = "hire"
	// RecommendNoHire is a no
	RecommendNoHire HiringRecommendation = "no_hire"
)

// IsValid checks if the recommendation is valid
func (h HiringRecommendation) IsValid() bool {
	return h == RecommendStrongHire || h == RecommendHire || h == RecommendNoHire
}

// ParseHiringRecommendation maps a free-form string to a recommendation.
// Strings containing "strong" map to strong_hire, strings containing "no"
// map to no_hire, everything else to hire.
func ParseHiringRecommendation(s string) HiringRecommendation {
	h := HiringRecommendation(strings.ToLower(strings.TrimSpace(s)))
	if h.IsValid() {
		return h
	}
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "strong"):
		return RecommendStrongHire
	case strings.Contains(lower, "no"):
		return RecommendNoHire
	default:
		return RecommendHire
	}
}

// ParseAssessedGrade maps a free-form string to the grade the evaluator
// assessed, defaulting to junior.
func ParseAssessedGrade(s string) Grade {
	return ParseGrade(s)
}
