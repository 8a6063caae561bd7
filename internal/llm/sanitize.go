package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var trailingCommas = regexp.MustCompile(`,\s*([}\]])`)

// ExtractJSON recovers the JSON object from a chat completion. Models
// occasionally wrap the payload in a code fence or lead with prose, so we
// cut from the first '{' to the last '}'.
func ExtractJSON(content string) ([]byte, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in content (%d bytes)", len(content))
	}
	return []byte(s[start : end+1]), nil
}

// SanitizeResume repairs the common ways models bend the schema without
// discarding the whole response:
//   - trailing commas before a closing brace or bracket are removed
//   - null fields are dropped (defaults are refilled after decode)
//   - numeric contact fields (phone as a number) become strings
//   - a bare string where a string list belongs is wrapped in a list
//   - a non-object "skills" value is dropped
//
// Returns the cleaned document and a label per applied fix.
func SanitizeResume(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var fixes []string
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		// Strip trailing commas only once strict parsing has failed, so
		// well-formed strings containing ",}" are never rewritten.
		repaired := trailingCommas.ReplaceAll(raw, []byte("$1"))
		if json.Unmarshal(repaired, &m) != nil {
			return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
		}
		fixes = append(fixes, "document(commas)")
	}
	for k, v := range m {
		if v == nil {
			delete(m, k)
			fixes = append(fixes, k+"(null)")
			continue
		}
		m[k] = dropNulls(v, k+".", &fixes)
	}

	for _, k := range []string{"name", "email", "phone", "linkedin", "github", "portfolio"} {
		if v, ok := m[k].(float64); ok {
			m[k] = strconv.FormatFloat(v, 'f', -1, 64)
			fixes = append(fixes, k+"(number)")
		}
	}

	for _, k := range []string{"certifications", "languages"} {
		if v, ok := m[k].(string); ok {
			m[k] = []any{v}
			fixes = append(fixes, k+"(scalar)")
		}
	}

	if v, ok := m["skills"]; ok {
		if _, isObj := v.(map[string]any); !isObj {
			delete(m, "skills")
			fixes = append(fixes, "skills(type)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fixes, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(fixes) > 0 {
		logger.Warn("llm.sanitize.applied", "fixes", fixes)
	}
	return out, fixes, nil
}

// dropNulls removes null values from maps and lists, recursively, and
// returns the cleaned value.
func dropNulls(v any, path string, fixes *[]string) any {
	switch t := v.(type) {
	case map[string]any:
		for k, mv := range t {
			if mv == nil {
				delete(t, k)
				*fixes = append(*fixes, path+k+"(null)")
				continue
			}
			t[k] = dropNulls(mv, path+k+".", fixes)
		}
		return t
	case []any:
		kept := make([]any, 0, len(t))
		for _, e := range t {
			if e == nil {
				*fixes = append(*fixes, path+"[](null)")
				continue
			}
			kept = append(kept, dropNulls(e, path, fixes))
		}
		return kept
	}
	return v
}
