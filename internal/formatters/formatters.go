package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumelens/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalyzeResult", &AnalyzeTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalyzeResult", &AnalyzeMarkdownFormatter{})
	registry.RegisterFormatter("text", "ATSReport", &ATSReportTextFormatter{})
	registry.RegisterFormatter("markdown", "ATSReport", &ATSReportMarkdownFormatter{})
	registry.RegisterFormatter("text", "SkillScan", &SkillScanTextFormatter{})
	registry.RegisterFormatter("markdown", "SkillScan", &SkillScanMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalyzeResult:
		return "AnalyzeResult"
	case types.ATSReport:
		return "ATSReport"
	case types.SkillScan:
		return "SkillScan"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalyzeTextFormatter handles text formatting for analysis results
type AnalyzeTextFormatter struct{}

func (atf *AnalyzeTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalyzeResult)
	if !ok {
		return "", fmt.Errorf("expected AnalyzeResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ANALYSIS RESULT ===\n\n")
	output.WriteString(fmt.Sprintf("Match Score: %s\n", result.MatchScore.Percent()))
	output.WriteString(fmt.Sprintf("ATS Score: %s\n\n", result.ATSScore.Percent()))

	output.WriteString("Matched Skills:\n")
	if len(result.MatchedSkills) == 0 {
		output.WriteString("  (none)\n")
	}
	for _, skill := range result.MatchedSkills {
		output.WriteString(fmt.Sprintf("  - %s\n", skill))
	}
	output.WriteString("\n")

	output.WriteString("Missing Skills:\n")
	if len(result.MissingSkills) == 0 {
		output.WriteString("  (none)\n")
	}
	for _, skill := range result.MissingSkills {
		output.WriteString(fmt.Sprintf("  - %s (%s)\n", skill.Skill, skill.Resource))
	}
	output.WriteString("\n")

	if len(result.RequiredSkills) > 0 {
		output.WriteString("Required Skills (from job description):\n")
		for _, skill := range result.RequiredSkills {
			output.WriteString(fmt.Sprintf("  - %s\n", skill))
		}
		output.WriteString("\n")
	}

	if result.Eligibility != nil {
		output.WriteString(fmt.Sprintf("Eligibility for %q: ", result.Eligibility.JobTitle))
		if result.Eligibility.Eligible {
			output.WriteString("Eligible\n")
		} else {
			output.WriteString("Not Eligible\n")
		}
		output.WriteString("\n")
	}

	if result.SuggestedJob != "" {
		output.WriteString(fmt.Sprintf("Suggested Job: %s\n", result.SuggestedJob))
	}

	return output.String(), nil
}

func (atf *AnalyzeTextFormatter) SupportedType() string {
	return "AnalyzeResult"
}

// AnalyzeMarkdownFormatter handles markdown formatting for analysis results
type AnalyzeMarkdownFormatter struct{}

func (amf *AnalyzeMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalyzeResult)
	if !ok {
		return "", fmt.Errorf("expected AnalyzeResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Analysis Result\n\n")
	output.WriteString(fmt.Sprintf("**Match Score:** %s\n\n", result.MatchScore.Percent()))
	output.WriteString(fmt.Sprintf("**ATS Score:** %s\n\n", result.ATSScore.Percent()))

	output.WriteString("## Matched Skills\n\n")
	if len(result.MatchedSkills) == 0 {
		output.WriteString("_None_\n")
	}
	for _, skill := range result.MatchedSkills {
		output.WriteString(fmt.Sprintf("- %s\n", skill))
	}
	output.WriteString("\n")

	output.WriteString("## Missing Skills\n\n")
	if len(result.MissingSkills) == 0 {
		output.WriteString("_None_\n")
	}
	for _, skill := range result.MissingSkills {
		output.WriteString(fmt.Sprintf("- [%s](%s)\n", skill.Skill, skill.Resource))
	}
	output.WriteString("\n")

	if len(result.RequiredSkills) > 0 {
		output.WriteString("## Required Skills\n\n")
		for _, skill := range result.RequiredSkills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	}

	if result.Eligibility != nil {
		verdict := "Not Eligible"
		if result.Eligibility.Eligible {
			verdict = "Eligible"
		}
		output.WriteString(fmt.Sprintf("## Eligibility\n\n**%s**: %s\n\n", result.Eligibility.JobTitle, verdict))
	}

	if result.SuggestedJob != "" {
		output.WriteString(fmt.Sprintf("## Suggested Job\n\n%s\n", result.SuggestedJob))
	}

	return output.String(), nil
}

func (amf *AnalyzeMarkdownFormatter) SupportedType() string {
	return "AnalyzeResult"
}

// ATSReportTextFormatter handles text formatting for ATS reports
type ATSReportTextFormatter struct{}

func (rtf *ATSReportTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.ATSReport)
	if !ok {
		return "", fmt.Errorf("expected ATSReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ATS COMPATIBILITY REPORT ===\n\n")
	output.WriteString(fmt.Sprintf("File: %s\n", report.Filename))
	output.WriteString(fmt.Sprintf("Score: %s\n\n", report.Score.Percent()))

	output.WriteString("Issues:\n")
	for _, issue := range report.Issues {
		output.WriteString(fmt.Sprintf("  - %s: %s\n", issue.Title, issue.Detail))
	}
	output.WriteString("\n")

	output.WriteString("Tip:\n")
	output.WriteString(report.Tip)
	output.WriteString("\n")

	return output.String(), nil
}

func (rtf *ATSReportTextFormatter) SupportedType() string {
	return "ATSReport"
}

// ATSReportMarkdownFormatter handles markdown formatting for ATS reports
type ATSReportMarkdownFormatter struct{}

func (rmf *ATSReportMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.ATSReport)
	if !ok {
		return "", fmt.Errorf("expected ATSReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# ATS Compatibility Report\n\n")
	output.WriteString(fmt.Sprintf("**File:** %s\n\n", report.Filename))
	output.WriteString(fmt.Sprintf("**Score:** %s\n\n", report.Score.Percent()))

	output.WriteString("## Issues\n\n")
	for _, issue := range report.Issues {
		output.WriteString(fmt.Sprintf("- **%s:** %s\n", issue.Title, issue.Detail))
	}
	output.WriteString("\n")

	output.WriteString("## Tip\n\n")
	output.WriteString(report.Tip)
	output.WriteString("\n")

	return output.String(), nil
}

func (rmf *ATSReportMarkdownFormatter) SupportedType() string {
	return "ATSReport"
}

// SkillScanTextFormatter handles text formatting for skill scans
type SkillScanTextFormatter struct{}

func (stf *SkillScanTextFormatter) Format(data any) (string, error) {
	scan, ok := data.(types.SkillScan)
	if !ok {
		return "", fmt.Errorf("expected SkillScan, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== SKILLS FOUND ===\n\n")
	if len(scan.Skills) == 0 {
		output.WriteString("No known skills found.\n")
		return output.String(), nil
	}
	for _, skill := range scan.Skills {
		output.WriteString(fmt.Sprintf("  - %s\n", skill))
	}

	return output.String(), nil
}

func (stf *SkillScanTextFormatter) SupportedType() string {
	return "SkillScan"
}

// SkillScanMarkdownFormatter handles markdown formatting for skill scans
type SkillScanMarkdownFormatter struct{}

func (smf *SkillScanMarkdownFormatter) Format(data any) (string, error) {
	scan, ok := data.(types.SkillScan)
	if !ok {
		return "", fmt.Errorf("expected SkillScan, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Skills Found\n\n")
	if len(scan.Skills) == 0 {
		output.WriteString("_No known skills found._\n")
		return output.String(), nil
	}
	for _, skill := range scan.Skills {
		output.WriteString(fmt.Sprintf("- %s\n", skill))
	}

	return output.String(), nil
}

func (smf *SkillScanMarkdownFormatter) SupportedType() string {
	return "SkillScan"
}

// Global formatter registry instance
var GlobalRegistry = NewFormatterRegistry()
