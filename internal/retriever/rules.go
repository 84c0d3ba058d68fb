package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"digitaltwin/internal/domain"
	"digitaltwin/internal/logger"
	"digitaltwin/internal/profile"
)

// section is a profile area reachable by keyword.
type section struct {
	name     string
	typ      domain.ChunkType
	keywords []string
	render   func(doc *profile.Document) []string
}

// sections are checked in order; every match contributes its lines.
var sections = []section{
	{"experience", domain.ChunkExperience, []string{"experience", "work", "job", "company", "freelance"}, experienceLines},
	{"skills", domain.ChunkSkills, []string{"skills", "skill", "technical", "programming", "technology", "languages", "frameworks",
		"database", "frontend", "backend"}, skillLines},
	{"projects", domain.ChunkProject, []string{"project", "portfolio", "built", "developed"}, projectLines},
	{"career_goals", domain.ChunkGoals, []string{"goal", "career", "future", "learning"}, goalLines},
	{"education", "", []string{"education", "university", "degree", "school"}, educationLines},
	{"salary_location", "", []string{"salary", "location", "relocation", "remote", "expectations", "compensation",
		"pay", "rate", "travel", "authorization", "visa", "work rights"}, salaryLocationLines},
}

// Rules retrieves facts straight from the profile by keyword matching. It
// never returns an empty result: a question matching no keyword gets the
// personal summary and elevator pitch.
type Rules struct {
	doc *profile.Document
}

var _ Retriever = (*Rules)(nil)

func NewRules(doc *profile.Document) *Rules {
	if doc == nil {
		doc = &profile.Document{}
	}
	return &Rules{doc: doc}
}

func (r *Rules) Mode() Mode { return ModeDegraded }

func (r *Rules) sealed() {}

// Retrieve matches lower-cased substrings, so "work" also fires on
// "frameworks". All matching sections are included.
func (r *Rules) Retrieve(ctx context.Context, query string) (Result, error) {
	start := time.Now()
	q := strings.ToLower(query)

	var res Result
	for _, s := range sections {
		if !containsAny(q, s.keywords) {
			continue
		}
		lines := s.render(r.doc)
		if len(lines) == 0 {
			continue
		}
		res.Facts = append(res.Facts, lines...)
		res.Sources = append(res.Sources, Source{ID: s.name, Title: s.name, Type: s.typ})
	}
	if len(res.Facts) == 0 {
		res.Facts = personalLines(r.doc)
		res.Sources = []Source{{ID: "personal", Title: "personal", Type: domain.ChunkPersonal}}
	}
	logger.Infow("keyword retrieval",
		"sections", len(res.Sources),
		"facts", len(res.Facts),
		"duration", time.Since(start),
	)
	return res, nil
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func personalLines(doc *profile.Document) []string {
	var summary, pitch string
	if doc != nil && doc.Personal != nil {
		summary, pitch = doc.Personal.Summary, doc.Personal.ElevatorPitch
	}
	return []string{"About me: " + summary, "My elevator pitch: " + pitch}
}

func experienceLines(doc *profile.Document) []string {
	var lines []string
	for _, exp := range doc.Experience {
		line := fmt.Sprintf("Experience: %s at %s (%s). Backend: %s. Frontend: %s",
			exp.Title, exp.Company, exp.Duration,
			strings.Join(exp.TechnicalSkillsUsed["backend"], ", "),
			strings.Join(exp.TechnicalSkillsUsed["frontend"], ", "))
		var results []string
		for _, a := range exp.Achievements {
			if a.Result != "" {
				results = append(results, a.Result)
			}
		}
		if len(results) > 0 {
			line += ". Achievements: " + strings.Join(results, "; ")
		}
		lines = append(lines, line)
	}
	return lines
}

func skillLines(doc *profile.Document) []string {
	tech := doc.Technical()
	if tech == nil {
		return nil
	}
	var lines []string
	if len(tech.ProgrammingLanguages) > 0 {
		items := make([]string, len(tech.ProgrammingLanguages))
		for i, l := range tech.ProgrammingLanguages {
			items[i] = withLevel(l.Language, l.Proficiency, l.Years)
		}
		lines = append(lines, "Programming Languages: "+strings.Join(items, ", "))
	}
	if len(tech.BackendFrameworks) > 0 {
		items := make([]string, len(tech.BackendFrameworks))
		for i, f := range tech.BackendFrameworks {
			items[i] = fmt.Sprintf("%s (versions: %s)", f.Framework, strings.Join(f.VersionsUsed, ", "))
		}
		lines = append(lines, "Backend Frameworks: "+strings.Join(items, ", "))
	}
	if len(tech.Databases) > 0 {
		items := make([]string, len(tech.Databases))
		for i, d := range tech.Databases {
			items[i] = withLevel(d.Database, d.Proficiency, d.Years)
		}
		lines = append(lines, "Databases: "+strings.Join(items, ", "))
	}
	if len(tech.FrontendTechnologies) > 0 {
		items := make([]string, len(tech.FrontendTechnologies))
		for i, f := range tech.FrontendTechnologies {
			items[i] = withLevel(f.Name(), f.Proficiency, f.Years)
		}
		lines = append(lines, "Frontend Technologies: "+strings.Join(items, ", "))
	}
	return lines
}

func withLevel(name, proficiency string, years profile.Scalar) string {
	return fmt.Sprintf("%s (%s - %s years)", name, proficiency, profile.FormatYears(years))
}

func projectLines(doc *profile.Document) []string {
	var lines []string
	for _, p := range doc.Projects {
		lines = append(lines, fmt.Sprintf("Project: %s - %s. Technologies used: %s. Impact: %s",
			p.Name, p.Description, strings.Join(p.Technologies, ", "), p.Impact))
	}
	return lines
}

func goalLines(doc *profile.Document) []string {
	g := doc.CareerGoals
	if g == nil {
		return nil
	}
	var lines []string
	if g.ShortTerm != "" {
		lines = append(lines, "Short-term Career Goal: "+g.ShortTerm)
	}
	if g.LongTerm != "" {
		lines = append(lines, "Long-term Career Goal: "+g.LongTerm)
	}
	if len(g.LearningFocus) > 0 {
		lines = append(lines, "Current Learning Focus: "+strings.Join(g.LearningFocus, ", "))
	}
	return lines
}

func educationLines(doc *profile.Document) []string {
	e := doc.Education
	if e == nil || (e.Degree == "" && e.University == "" && e.GraduationYear == "" && e.ThesisProject == "") {
		return nil
	}
	return []string{fmt.Sprintf("Education: %s from %s (graduating %s). Thesis: %s",
		e.Degree, e.University, e.GraduationYear, e.ThesisProject)}
}

func salaryLocationLines(doc *profile.Document) []string {
	sl := doc.SalaryLocation
	if sl == nil {
		return nil
	}
	var lines []string
	if sl.CurrentStatus != "" {
		lines = append(lines, "Current Status: "+sl.CurrentStatus)
	}
	if len(sl.SalaryExpectations) > 0 {
		var items []string
		for _, k := range sortedKeys(sl.SalaryExpectations) {
			if k == "note" {
				continue
			}
			items = append(items, strings.ReplaceAll(k, "_", " ")+": "+sl.SalaryExpectations[k])
		}
		lines = append(lines, fmt.Sprintf("Salary Expectations: %s. Note: %s",
			strings.Join(items, ", "), sl.SalaryExpectations["note"]))
	}
	if len(sl.LocationPreferences) > 0 {
		lines = append(lines, "Location Preferences: "+strings.Join(sl.LocationPreferences, ", "))
	}
	if rd := sl.RelocationDetails; rd != nil {
		willing := "No"
		if sl.RelocationWilling {
			willing = "Yes"
		}
		lines = append(lines, fmt.Sprintf("Relocation: Willing to relocate (%s). Domestic: %s. International: %s. Remote preference: %s",
			willing, rd.Domestic, rd.International, rd.RemotePreference))
	}
	if len(sl.WorkAuthorization) > 0 {
		var items []string
		for _, k := range sortedKeys(sl.WorkAuthorization) {
			items = append(items, strings.ReplaceAll(k, "_", " ")+" - "+sl.WorkAuthorization[k])
		}
		lines = append(lines, "Work Authorization: "+strings.Join(items, ". "))
	}
	if sl.RemoteExperience != "" {
		lines = append(lines, "Remote Work Experience: "+sl.RemoteExperience)
	}
	return lines
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
