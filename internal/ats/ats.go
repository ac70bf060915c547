// Package ats implements the local, network-free ATS check. It is a
// deterministic stub keyed off the filename only.
package ats

import (
	"strings"

	"resumelens/internal/types"
)

const baseScore = 70

// The checks are independent substring matches on the lowercased filename,
// not mutually exclusive and not extension parses.
const (
	pdfPenalty = 10
	docxBonus  = 5
)

var issues = []types.ATSIssue{
	{Title: "Use standard section headings (Experience, Education, Skills)", Detail: "Helps ATS parsing"},
	{Title: "Avoid images, text boxes and tables", Detail: "ATS can skip non-text elements"},
	{Title: "Use single-column layout", Detail: "Improves parser accuracy"},
	{Title: "Include role-specific keywords", Detail: "Match JD wording"},
}

const tip = "Tip: Use common fonts (Arial/Calibri), 10–12pt, and avoid headers/footers for contact info."

// Check scores a résumé by filename and returns the fixed advisory report.
func Check(filename string) types.ATSReport {
	name := strings.ToLower(filename)

	score := baseScore
	if strings.Contains(name, "pdf") {
		score -= pdfPenalty
	}
	if strings.Contains(name, "docx") {
		score += docxBonus
	}

	report := types.ATSReport{
		Filename: filename,
		Score:    types.NewScore(float64(score)),
		Issues:   make([]types.ATSIssue, len(issues)),
		Tip:      tip,
	}
	copy(report.Issues, issues)
	return report
}
