package llm

// BuildResumeJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We validate every model response against it locally before
// trusting the payload.
func BuildResumeJSONSchema() map[string]any {
	stringList := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}

	skills := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"languages":                  stringList,
			"frameworks_libraries":       stringList,
			"cloud_databases_tech_stack": stringList,
			"tools":                      stringList,
		},
	}

	education := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"institution": map[string]any{"type": "string"},
				"degree":      map[string]any{"type": "string"},
				"major":       map[string]any{"type": "string"},
				"score":       map[string]any{"type": "string"},
				"years":       map[string]any{"type": "string"},
			},
		},
	}

	workExperience := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"role":        map[string]any{"type": "string"},
				"company":     map[string]any{"type": "string"},
				"location":    map[string]any{"type": "string"},
				"duration":    map[string]any{"type": "string"},
				"description": stringList,
			},
		},
	}

	projects := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":         map[string]any{"type": "string"},
				"description":  map[string]any{"type": "string"},
				"technologies": stringList,
				"url":          map[string]any{"type": "string"},
			},
		},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":            map[string]any{"type": "string"},
			"email":           map[string]any{"type": "string"},
			"phone":           map[string]any{"type": "string"},
			"linkedin":        map[string]any{"type": "string"},
			"github":          map[string]any{"type": "string"},
			"portfolio":       map[string]any{"type": "string"},
			"skills":          skills,
			"education":       education,
			"work_experience": workExperience,
			"projects":        projects,
			"certifications":  stringList,
			"languages":       stringList,
		},
	}
}
