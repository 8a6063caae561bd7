package llm

import "context"

// Skills buckets a candidate's technical skills.
type Skills struct {
	Languages               []string `json:"languages"`
	FrameworksLibraries     []string `json:"frameworks_libraries"`
	CloudDatabasesTechStack []string `json:"cloud_databases_tech_stack"`
	Tools                   []string `json:"tools"`
}

type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Major       string `json:"major"`
	Score       string `json:"score"`
	Years       string `json:"years"`
}

type WorkExperience struct {
	Role        string   `json:"role"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Duration    string   `json:"duration"`
	Description []string `json:"description"`
}

type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url"`
}

// ResumeData is the normalized shape we want from the model.
// Absent string fields read "Not provided"; absent lists are empty.
type ResumeData struct {
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Phone          string           `json:"phone"`
	LinkedIn       string           `json:"linkedin"`
	GitHub         string           `json:"github"`
	Portfolio      string           `json:"portfolio"`
	Skills         Skills           `json:"skills"`
	Education      []Education      `json:"education"`
	WorkExperience []WorkExperience `json:"work_experience"`
	Projects       []Project        `json:"projects"`
	Certifications []string         `json:"certifications"`
	Languages      []string         `json:"languages"`
}

const notProvided = "Not provided"

// FillDefaults replaces empty strings with the "Not provided" marker and
// nil slices with empty ones, so every response carries the full shape.
func (r *ResumeData) FillDefaults() {
	for _, s := range []*string{&r.Name, &r.Email, &r.Phone, &r.LinkedIn, &r.GitHub, &r.Portfolio} {
		if *s == "" {
			*s = notProvided
		}
	}
	r.Skills.Languages = nonNil(r.Skills.Languages)
	r.Skills.FrameworksLibraries = nonNil(r.Skills.FrameworksLibraries)
	r.Skills.CloudDatabasesTechStack = nonNil(r.Skills.CloudDatabasesTechStack)
	r.Skills.Tools = nonNil(r.Skills.Tools)
	r.Certifications = nonNil(r.Certifications)
	r.Languages = nonNil(r.Languages)

	if r.Education == nil {
		r.Education = []Education{}
	}
	for i := range r.Education {
		e := &r.Education[i]
		for _, s := range []*string{&e.Institution, &e.Degree, &e.Major, &e.Score, &e.Years} {
			if *s == "" {
				*s = notProvided
			}
		}
	}
	if r.WorkExperience == nil {
		r.WorkExperience = []WorkExperience{}
	}
	for i := range r.WorkExperience {
		w := &r.WorkExperience[i]
		for _, s := range []*string{&w.Role, &w.Company, &w.Location, &w.Duration} {
			if *s == "" {
				*s = notProvided
			}
		}
		w.Description = nonNil(w.Description)
	}
	if r.Projects == nil {
		r.Projects = []Project{}
	}
	for i := range r.Projects {
		p := &r.Projects[i]
		for _, s := range []*string{&p.Name, &p.Description, &p.URL} {
			if *s == "" {
				*s = notProvided
			}
		}
		p.Technologies = nonNil(p.Technologies)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ExtractRequest carries one structuring call to the model.
type ExtractRequest struct {
	// Text is the preprocessed resume text.
	Text string
	// Query is an optional caller instruction appended to the prompt.
	Query string
	// Model is the chat model to invoke.
	Model string
}

type ExtractResult struct {
	Data ResumeData
	// RawJSON is the canonical serialized form of Data.
	RawJSON []byte
	Model   string
}

// ResumeExtractor is the interface the tier router depends on.
type ResumeExtractor interface {
	ExtractResume(ctx context.Context, req ExtractRequest) (ExtractResult, error)
}
