// Package skills implements the fixed-vocabulary keyword scan used to show
// required skills from a job description before the backend answers.
package skills

import (
	"strings"

	"resumelens/internal/types"
)

// Vocabulary is the fixed skill list the scan matches against. Order is
// preserved in results.
var Vocabulary = []string{
	"JavaScript", "TypeScript", "React", "Angular", "Vue", "HTML", "CSS",
	"Tailwind", "Node.js", "Express", "Python", "Django", "Flask", "Java",
	"Spring", "C++", "C#", "SQL", "MongoDB", "PostgreSQL", "AWS", "Azure",
	"GCP", "Docker", "Kubernetes", "Git", "CI/CD", "REST", "GraphQL",
	"Microservices", "Testing", "Jest", "Cypress", "Tableau", "Power BI",
	"Machine Learning", "NLP", "R", "Excel", "Agile", "Scrum",
}

// Extract returns every vocabulary entry contained in text, matched
// case-insensitively as a substring. Empty text yields an empty list.
func Extract(text string) types.SkillScan {
	t := strings.ToLower(text)
	var found []string
	for _, s := range Vocabulary {
		if strings.Contains(t, strings.ToLower(s)) {
			found = append(found, s)
		}
	}
	if found == nil {
		found = []string{}
	}
	return types.SkillScan{Skills: found}
}
