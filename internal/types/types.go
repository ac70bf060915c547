package types

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
)

// Score is a display score: clamped to [0,100] and rounded, mirroring the
// front end's setScore helper. Absent backend values decode as 0.
type Score int

// NewScore clamps and rounds a raw backend value into a display score.
func NewScore(raw float64) Score {
	v := math.Round(raw)
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return Score(v)
}

// Percent renders the score the way the progress bar label shows it.
func (s Score) Percent() string {
	return fmt.Sprintf("%d%%", int(s))
}

// MissingSkill pairs a missing skill with a learning resource link.
type MissingSkill struct {
	Skill    string `json:"skill"`
	Resource string `json:"resource"`
}

// UnmarshalJSON accepts both shapes the backend is known to emit: a bare
// string, or an object keyed skill/name and resource/link.
func (m *MissingSkill) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.Skill = s
		m.Resource = SearchResourceURL(s)
		return nil
	}

	var obj struct {
		Skill    string `json:"skill"`
		Name     string `json:"name"`
		Resource string `json:"resource"`
		Link     string `json:"link"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	m.Skill = obj.Skill
	if m.Skill == "" {
		m.Skill = obj.Name
	}
	if m.Skill == "" {
		m.Skill = "?"
	}
	m.Resource = obj.Resource
	if m.Resource == "" {
		m.Resource = obj.Link
	}
	if m.Resource == "" {
		m.Resource = "#"
	}
	return nil
}

// SearchResourceURL builds the fallback search-engine link used when the
// backend supplies a skill name without a resource.
func SearchResourceURL(skill string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(skill+" course")
}

// BackendResponse is the JSON shape consumed from the external analysis
// service. Every field is optional; absence defaults to empty/zero.
type BackendResponse struct {
	MatchScore           float64        `json:"match_score"`
	ATSScore             float64        `json:"ats_score"`
	MatchedSkills        []string       `json:"matched_skills"`
	MissingWithResources []MissingSkill `json:"missing_with_resources"`
	SuggestedJob         string         `json:"suggested_job"`
	Error                string         `json:"error"`
}

// Eligibility is the verdict block shown when only a job title was given.
// Eligible is derived solely from whether the missing-skills list is empty.
type Eligibility struct {
	JobTitle string `json:"jobTitle"`
	Eligible bool   `json:"eligible"`
}

// AnalyzeResult is the render model built from a successful backend call.
type AnalyzeResult struct {
	MatchScore     Score          `json:"matchScore"`
	ATSScore       Score          `json:"atsScore"`
	MatchedSkills  []string       `json:"matchedSkills"`
	MissingSkills  []MissingSkill `json:"missingSkills"`
	RequiredSkills []string       `json:"requiredSkills"`
	Eligibility    *Eligibility   `json:"eligibility,omitempty"`
	SuggestedJob   string         `json:"suggestedJob,omitempty"`
}

// ATSIssue is one advisory item in the local ATS checklist.
type ATSIssue struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// ATSReport is the output of the local, filename-only ATS heuristic.
type ATSReport struct {
	Filename string     `json:"filename"`
	Score    Score      `json:"score"`
	Issues   []ATSIssue `json:"issues"`
	Tip      string     `json:"tip"`
}

// SkillScan is the output of the fixed-vocabulary JD keyword scan.
type SkillScan struct {
	Skills []string `json:"skills"`
}
