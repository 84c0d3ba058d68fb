package chunker

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"digitaltwin/internal/domain"
	"digitaltwin/internal/profile"
)

// DefaultMaxChunkChars bounds a chunk's content length.
const DefaultMaxChunkChars = 2000

// ProfileChunker splits a profile into one chunk per personal block,
// experience entry, skills summary, project and goals block, in that order.
type ProfileChunker struct {
	maxChars int
}

// NewProfileChunker returns a chunker that truncates content to maxChars.
// maxChars <= 0 disables truncation.
func NewProfileChunker(maxChars int) *ProfileChunker {
	return &ProfileChunker{maxChars: maxChars}
}

// Chunk is deterministic and pure. Sections absent from the document are
// skipped; personal info is always attempted and kept when any field or
// contact detail is set.
// A document that yields no chunk at all returns domain.ErrEmptyProfile.
func (c *ProfileChunker) Chunk(doc *profile.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrEmptyProfile
	}
	var chunks []domain.Chunk

	if p := doc.Personal; p != nil && hasPersonal(p) {
		chunks = append(chunks, c.chunk("personal_info", "Personal Information", domain.ChunkPersonal,
			field{"Name", p.Name},
			field{"Title", p.Title},
			field{"Location", p.Location},
			field{"Summary", p.Summary},
			field{"Elevator pitch", p.ElevatorPitch},
		))
	}

	for i, exp := range doc.Experience {
		results := make([]string, 0, len(exp.Achievements))
		for _, a := range exp.Achievements {
			results = append(results, a.Result)
		}
		chunks = append(chunks, c.chunk("experience_"+strconv.Itoa(i), "Experience at "+exp.Company, domain.ChunkExperience,
			field{"Company", exp.Company},
			field{"Title", exp.Title},
			field{"Duration", exp.Duration},
			field{"Achievements", strings.Join(results, " ")},
		))
	}

	if tech := doc.Technical(); tech != nil && hasTechnical(tech) {
		langs := make([]string, 0, len(tech.ProgrammingLanguages))
		for _, l := range tech.ProgrammingLanguages {
			langs = append(langs, l.Language)
		}
		frameworks := make([]string, 0, len(tech.BackendFrameworks))
		for _, f := range tech.BackendFrameworks {
			frameworks = append(frameworks, f.Framework)
		}
		dbs := make([]string, 0, len(tech.Databases))
		for _, d := range tech.Databases {
			dbs = append(dbs, d.Database)
		}
		frontend := make([]string, 0, len(tech.FrontendTechnologies))
		for _, f := range tech.FrontendTechnologies {
			frontend = append(frontend, f.Name())
		}
		chunks = append(chunks, c.chunk("technical_skills", "Technical Skills", domain.ChunkSkills,
			field{"Programming languages", strings.Join(langs, ", ")},
			field{"Frameworks", strings.Join(frameworks, ", ")},
			field{"Databases", strings.Join(dbs, ", ")},
			field{"Frontend technologies", strings.Join(frontend, ", ")},
		))
	}

	for i, proj := range doc.Projects {
		chunks = append(chunks, c.chunk("project_"+strconv.Itoa(i), "Project: "+proj.Name, domain.ChunkProject,
			field{"Name", proj.Name},
			field{"Description", proj.Description},
			field{"Technologies", strings.Join(proj.Technologies, ", ")},
			field{"Impact", proj.Impact},
		))
	}

	if g := doc.CareerGoals; g != nil {
		chunks = append(chunks, c.chunk("career_goals", "Career Goals", domain.ChunkGoals,
			field{"Short term", g.ShortTerm},
			field{"Long term", g.LongTerm},
			field{"Learning focus", strings.Join(g.LearningFocus, ", ")},
		))
	}

	if len(chunks) == 0 {
		return nil, domain.ErrEmptyProfile
	}
	return chunks, nil
}

type field struct {
	label string
	value string
}

func (c *ProfileChunker) chunk(id, title string, typ domain.ChunkType, fields ...field) domain.Chunk {
	return domain.Chunk{
		ID:      id,
		Title:   title,
		Type:    typ,
		Content: Truncate(render(fields), c.maxChars),
	}
}

// render joins fields as "Label: value." Absent values render empty so every
// chunk of a type has the same shape. A value's own trailing period is
// dropped so the template does not double it.
func render(fields []field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		v := strings.TrimSuffix(strings.TrimSpace(f.value), ".")
		parts[i] = fmt.Sprintf("%s: %s.", f.label, v)
	}
	return strings.Join(parts, " ")
}

// hasPersonal counts contact details too, though they are not rendered.
func hasPersonal(p *profile.Personal) bool {
	if anyNonEmpty(p.Name, p.Title, p.Location, p.Summary, p.ElevatorPitch) {
		return true
	}
	c := p.Contact
	return c != nil && anyNonEmpty(c.Email, c.LinkedIn, c.GitHub, c.Portfolio)
}

func hasTechnical(t *profile.TechnicalSkills) bool {
	return len(t.ProgrammingLanguages) > 0 || len(t.BackendFrameworks) > 0 ||
		len(t.Databases) > 0 || len(t.FrontendTechnologies) > 0
}

func anyNonEmpty(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// Truncate cuts content longer than maxChars at the last sentence break or
// space before the limit and appends "...".
func Truncate(content string, maxChars int) string {
	if maxChars <= 0 || len(content) <= maxChars {
		return content
	}
	limit := maxChars - 10
	if limit <= 0 {
		limit = maxChars
	}
	for limit > 0 && !utf8.RuneStart(content[limit]) {
		limit--
	}
	cut := content[:limit]
	breakPoint := len(cut)
	if i := strings.LastIndex(cut, ". "); i > -1 {
		breakPoint = i + 1
	} else if i := strings.LastIndex(cut, " "); i > -1 {
		breakPoint = i
	}
	return cut[:breakPoint] + "..."
}
