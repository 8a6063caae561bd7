package llm

import (
	"encoding/json"
	"strings"
)

// BuildSystemPrompt composes the system message: the parser persona plus
// the formatting rules the validator depends on.
func BuildSystemPrompt() string {
	parts := []string{
		"You are an expert resume parser AI. Your task is to extract structured information from resumes accurately.",
		"Follow these guidelines strictly:",
		`1. Extract all available information that matches the required JSON schema`,
		`2. Look for patterns that indicate section headers like "EXPERIENCE", "EDUCATION", "SKILLS", etc.`,
		`3. For missing information, use "Not provided" for strings and empty arrays for lists`,
		`4. Make reasonable inferences when information is implicit`,
		`5. Return only valid JSON that matches the schema exactly`,
	}
	return strings.Join(parts, "\n")
}

// BuildUserPrompt embeds the target shape, the resume text, and any
// caller instructions.
func BuildUserPrompt(text, query string) string {
	var b strings.Builder
	b.WriteString("Parse the following resume text and return a clean, structured JSON object exactly matching this schema:\n")
	b.WriteString(mustJSON(resumeTemplate()))
	b.WriteString("\n\nResume Text:\n")
	b.WriteString(text)
	if q := strings.TrimSpace(query); q != "" {
		b.WriteString("\n\nAdditional instructions from the caller:\n")
		b.WriteString(q)
	}
	b.WriteString("\n\nReturn ONLY the JSON object with no additional text or explanation.")
	return b.String()
}

// resumeTemplate is the empty shape shown to the model. Struct marshaling
// keeps the field order stable across calls, which keeps prompts, and
// therefore cache keys upstream, deterministic.
func resumeTemplate() ResumeData {
	return ResumeData{
		Skills: Skills{
			Languages:               []string{},
			FrameworksLibraries:     []string{},
			CloudDatabasesTechStack: []string{},
			Tools:                   []string{},
		},
		Education:      []Education{{}},
		WorkExperience: []WorkExperience{{Description: []string{}}},
		Projects:       []Project{{Technologies: []string{}}},
		Certifications: []string{},
		Languages:      []string{},
	}
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
