package models

// CandidateInfo is what the interview has learned about the candidate.
// Fields move from unset to set exactly once; later extractions never
// overwrite earlier ones. Technologies accumulate in insertion order
// without duplicates.
type CandidateInfo struct {
	Name         string   `json:"name,omitempty"`
	Position     string   `json:"position,omitempty"`
	TargetGrade  Grade    `json:"target_grade,omitempty"`
	Experience   string   `json:"experience,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// Merge accretes newly extracted fields into the record. Set fields are
// never overwritten; technologies are appended with de-duplication.
// Idempotent, so a retried turn may apply the same extraction twice.
func (c *CandidateInfo) Merge(extracted *CandidateInfo) {
	if extracted == nil {
		return
	}
	if c.Name == "" && extracted.Name != "" {
		c.Name = extracted.Name
	}
	if c.Position == "" && extracted.Position != "" {
		c.Position = extracted.Position
	}
	if c.TargetGrade == "" && extracted.TargetGrade != "" {
		c.TargetGrade = extracted.TargetGrade
	}
	if c.Experience == "" && extracted.Experience != "" {
		c.Experience = extracted.Experience
	}
	for _, t := range extracted.Technologies {
		c.AddTechnology(t)
	}
}

// AddTechnology appends a technology if not already present
func (c *CandidateInfo) AddTechnology(tech string) {
	if tech == "" {
		return
	}
	for _, t := range c.Technologies {
		if t == tech {
			return
		}
	}
	c.Technologies = append(c.Technologies, tech)
}
