package models

// Analysis is the observer's verdict on one candidate reply
type Analysis struct {
	ResponseType         ResponseType `json:"response_type"`
	Quality              Quality      `json:"quality"`
	IsFactuallyCorrect   bool         `json:"is_factually_correct"`
	IsGibberish          bool         `json:"is_gibberish"`
	AnsweredLastQuestion bool         `json:"answered_last_question"`
	// AnsweredProvided records whether the LM emitted the boolean itself,
	// as opposed to it being derived from the response type.
	AnsweredProvided         bool           `json:"-"`
	DetectedTopics           []string       `json:"detected_topics,omitempty"`
	Recommendation           string         `json:"recommendation,omitempty"`
	ShouldSimplify           bool           `json:"should_simplify"`
	ShouldIncreaseDifficulty bool           `json:"should_increase_difficulty"`
	CorrectAnswer            string         `json:"correct_answer,omitempty"`
	ExtractedInfo            *CandidateInfo `json:"extracted_info,omitempty"`
	DemonstratedLevel        string         `json:"demonstrated_level,omitempty"`
	Thought                  string         `json:"thought,omitempty"`
}

// DecodeAnalysis builds an Analysis from the observer's JSON output.
// Unknown enum strings fall back to defined defaults; the result is
// returned already normalized.
func DecodeAnalysis(raw map[string]any) *Analysis {
	a := &Analysis{
		ResponseType:             ParseResponseType(getString(raw, "response_type")),
		Quality:                  ParseQuality(getString(raw, "quality")),
		IsFactuallyCorrect:       getBool(raw, "is_factually_correct", true),
		IsGibberish:              getBool(raw, "is_gibberish", false),
		DetectedTopics:           dedupe(getStringSlice(raw, "detected_topics")),
		Recommendation:           getString(raw, "recommendation"),
		ShouldSimplify:           getBool(raw, "should_simplify", false),
		ShouldIncreaseDifficulty: getBool(raw, "should_increase_difficulty", false),
		CorrectAnswer:            getString(raw, "correct_answer"),
		DemonstratedLevel:        getString(raw, "demonstrated_level"),
		Thought:                  getString(raw, "reasoning"),
	}
	if answered, ok := lookupBool(raw, "answered_last_question"); ok {
		a.AnsweredLastQuestion = answered
		a.AnsweredProvided = true
	}
	if info := getMap(raw, "extracted_info"); info != nil {
		a.ExtractedInfo = &CandidateInfo{
			Name:         getString(info, "name"),
			Position:     getString(info, "position"),
			Experience:   getString(info, "experience"),
			Technologies: dedupe(getStringSlice(info, "technologies")),
		}
		if g := getString(info, "grade"); g != "" {
			a.ExtractedInfo.TargetGrade = ParseGrade(g)
		}
	}
	a.Normalize()
	return a
}

// Normalize applies the derived-field rules that are never trusted
// from the LM:
//   - gibberish input cannot have answered the question;
//   - when the LM did not emit answered_last_question, it is derived
//     from the response type (off-topic, role reversal and stop commands
//     do not answer; a hallucination may be an on-topic attempt);
//   - an unanswered question freezes difficulty in both directions.
func (a *Analysis) Normalize() {
	if a.IsGibberish {
		a.AnsweredLastQuestion = false
	} else if !a.AnsweredProvided {
		switch a.ResponseType {
		case ResponseOffTopic, ResponseQuestion, ResponseStopCommand:
			a.AnsweredLastQuestion = false
		default:
			a.AnsweredLastQuestion = true
		}
	}
	if !a.AnsweredLastQuestion {
		a.ShouldSimplify = false
		a.ShouldIncreaseDifficulty = false
	}
}
