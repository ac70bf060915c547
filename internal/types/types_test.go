package types

import (
	"encoding/json"
	"testing"
)

func TestNewScore(t *testing.T) {
	tests := []struct {
		name     string
		raw      float64
		expected Score
	}{
		{name: "negative clamps to zero", raw: -5, expected: 0},
		{name: "over 100 clamps to 100", raw: 150, expected: 100},
		{name: "rounds up", raw: 55.6, expected: 56},
		{name: "rounds half away from zero", raw: 72.5, expected: 73},
		{name: "zero stays zero", raw: 0, expected: 0},
		{name: "exact value passes through", raw: 70, expected: 70},
		{name: "boundary 100", raw: 100, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewScore(tt.raw)
			if got != tt.expected {
				t.Errorf("NewScore(%v) = %d, want %d", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestScorePercent(t *testing.T) {
	if got := NewScore(64).Percent(); got != "64%" {
		t.Errorf("Percent() = %q, want %q", got, "64%")
	}
	if got := NewScore(0).Percent(); got != "0%" {
		t.Errorf("Percent() = %q, want %q", got, "0%")
	}
}

func TestMissingSkillUnmarshal(t *testing.T) {
	tests := []struct {
		name             string
		json             string
		expectedSkill    string
		expectedResource string
	}{
		{
			name:             "bare string gets search link",
			json:             `"Kubernetes"`,
			expectedSkill:    "Kubernetes",
			expectedResource: "https://www.google.com/search?q=Kubernetes+course",
		},
		{
			name:             "object with skill and resource",
			json:             `{"skill":"Docker","resource":"https://example.com/docker"}`,
			expectedSkill:    "Docker",
			expectedResource: "https://example.com/docker",
		},
		{
			name:             "object with name and link aliases",
			json:             `{"name":"GraphQL","link":"https://example.com/gql"}`,
			expectedSkill:    "GraphQL",
			expectedResource: "https://example.com/gql",
		},
		{
			name:             "empty object falls back to placeholders",
			json:             `{}`,
			expectedSkill:    "?",
			expectedResource: "#",
		},
		{
			name:             "skill wins over name",
			json:             `{"skill":"React","name":"ignored"}`,
			expectedSkill:    "React",
			expectedResource: "#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m MissingSkill
			if err := json.Unmarshal([]byte(tt.json), &m); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if m.Skill != tt.expectedSkill {
				t.Errorf("Skill = %q, want %q", m.Skill, tt.expectedSkill)
			}
			if m.Resource != tt.expectedResource {
				t.Errorf("Resource = %q, want %q", m.Resource, tt.expectedResource)
			}
		})
	}
}

func TestMissingSkillUnmarshalRejectsInvalid(t *testing.T) {
	var m MissingSkill
	if err := json.Unmarshal([]byte(`42`), &m); err == nil {
		t.Error("Expected error for numeric missing skill, got none")
	}
}

func TestBackendResponseDecode(t *testing.T) {
	raw := `{
		"match_score": 82.4,
		"ats_score": 61,
		"matched_skills": ["Go", "SQL"],
		"missing_with_resources": ["Kubernetes", {"skill": "Docker", "resource": "https://d"}],
		"suggested_job": "Backend Engineer"
	}`

	var resp BackendResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if resp.MatchScore != 82.4 {
		t.Errorf("MatchScore = %v, want 82.4", resp.MatchScore)
	}
	if len(resp.MissingWithResources) != 2 {
		t.Fatalf("Expected 2 missing skills, got %d", len(resp.MissingWithResources))
	}
	if resp.MissingWithResources[0].Skill != "Kubernetes" {
		t.Errorf("First missing skill = %q, want Kubernetes", resp.MissingWithResources[0].Skill)
	}
	if resp.MissingWithResources[1].Resource != "https://d" {
		t.Errorf("Second missing resource = %q, want https://d", resp.MissingWithResources[1].Resource)
	}
	if resp.SuggestedJob != "Backend Engineer" {
		t.Errorf("SuggestedJob = %q", resp.SuggestedJob)
	}
}

func TestBackendResponseEmptyDecode(t *testing.T) {
	var resp BackendResponse
	if err := json.Unmarshal([]byte(`{}`), &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if resp.MatchScore != 0 || resp.ATSScore != 0 {
		t.Error("Absent scores should decode as zero")
	}
	if resp.MatchedSkills != nil {
		t.Error("Absent matched_skills should decode as nil")
	}
}
