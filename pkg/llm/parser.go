package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// LM output decoration varies by model and prompt: some wrap JSON in
// result tags, some fence it, some embed it in prose. The parser tries
// each shape in fixed priority order so prompt churn never breaks
// extraction.

var (
	resultShortRe  = regexp.MustCompile(`(?s)<r>(.*?)</r>`)
	resultLongRe   = regexp.MustCompile(`(?s)<result>(.*?)</result>`)
	fencedJSONRe   = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	fencedPlainRe  = regexp.MustCompile("(?s)```\\s*(.*?)```")
	reasoningTagRe = regexp.MustCompile(`(?s)<reasoning>(.*?)</reasoning>`)
)

// ExtractJSON extracts a JSON object record from free-form LM text.
// Accepted shapes, in priority order: an <r> block, a <result> block,
// a fenced code block, or a raw balanced object embedded in the text.
func ExtractJSON(text string) (map[string]any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewParseError("empty input", text)
	}

	for _, re := range []*regexp.Regexp{resultShortRe, resultLongRe, fencedJSONRe, fencedPlainRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if record, ok := tryObject(m[1]); ok {
				return record, nil
			}
		}
	}

	if record, ok := extractRawObject(text); ok {
		return record, nil
	}
	return nil, NewParseError("no JSON object found", text)
}

// ExtractReasoning returns the contents of a <reasoning> block, if any
func ExtractReasoning(text string) (string, bool) {
	if m := reasoningTagRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

func tryObject(candidate string) (map[string]any, bool) {
	candidate = strings.TrimSpace(candidate)
	var record map[string]any
	if err := json.Unmarshal([]byte(candidate), &record); err != nil || record == nil {
		return nil, false
	}
	return record, true
}

// extractRawObject finds a balanced {...} object inside arbitrary text.
// It first tries the widest span from the first { to the last }, then
// falls back to a depth scan that respects string literals and
// backslash escapes.
func extractRawObject(text string) (map[string]any, bool) {
	first := strings.IndexByte(text, '{')
	if first < 0 {
		return nil, false
	}
	if last := strings.LastIndexByte(text, '}'); last > first {
		if record, ok := tryObject(text[first : last+1]); ok {
			return record, true
		}
	}

	for start := first; start >= 0 && start < len(text); {
		if end, ok := scanBalanced(text, start); ok {
			if record, ok := tryObject(text[start : end+1]); ok {
				return record, true
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += 1 + next
	}
	return nil, false
}

// scanBalanced walks from the opening brace at start and returns the
// index of its matching closing brace.
func scanBalanced(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
