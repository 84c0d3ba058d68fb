// Package profile holds the structured profile document, the single source
// of truth for every fact the twin may state.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"digitaltwin/internal/domain"
)

// Document is the root of a profile. Sections are pointers or slices so an
// absent section can be told apart from an empty one.
type Document struct {
	Personal       *Personal       `json:"personal,omitempty" yaml:"personal,omitempty"`
	Experience     []Experience    `json:"experience,omitempty" yaml:"experience,omitempty"`
	Skills         *Skills         `json:"skills,omitempty" yaml:"skills,omitempty"`
	Projects       []Project       `json:"projects_portfolio,omitempty" yaml:"projects_portfolio,omitempty"`
	CareerGoals    *CareerGoals    `json:"career_goals,omitempty" yaml:"career_goals,omitempty"`
	Education      *Education      `json:"education,omitempty" yaml:"education,omitempty"`
	SalaryLocation *SalaryLocation `json:"salary_location,omitempty" yaml:"salary_location,omitempty"`
}

type Personal struct {
	Name          string   `json:"name" yaml:"name"`
	Title         string   `json:"title" yaml:"title"`
	Location      string   `json:"location" yaml:"location"`
	Summary       string   `json:"summary" yaml:"summary"`
	ElevatorPitch string   `json:"elevator_pitch" yaml:"elevator_pitch"`
	Contact       *Contact `json:"contact,omitempty" yaml:"contact,omitempty"`
}

type Contact struct {
	Email     string `json:"email" yaml:"email"`
	LinkedIn  string `json:"linkedin" yaml:"linkedin"`
	GitHub    string `json:"github" yaml:"github"`
	Portfolio string `json:"portfolio" yaml:"portfolio"`
}

type Experience struct {
	Company             string              `json:"company" yaml:"company"`
	Title               string              `json:"title" yaml:"title"`
	Duration            string              `json:"duration" yaml:"duration"`
	Achievements        []Achievement       `json:"achievements_star,omitempty" yaml:"achievements_star,omitempty"`
	TechnicalSkillsUsed map[string][]string `json:"technical_skills_used,omitempty" yaml:"technical_skills_used,omitempty"`
}

// Achievement is a STAR-formatted accomplishment. Only Result is rendered.
type Achievement struct {
	Situation string `json:"situation,omitempty" yaml:"situation,omitempty"`
	Task      string `json:"task,omitempty" yaml:"task,omitempty"`
	Action    string `json:"action,omitempty" yaml:"action,omitempty"`
	Result    string `json:"result" yaml:"result"`
}

type Skills struct {
	Technical *TechnicalSkills `json:"technical,omitempty" yaml:"technical,omitempty"`
}

type TechnicalSkills struct {
	ProgrammingLanguages []LanguageSkill  `json:"programming_languages,omitempty" yaml:"programming_languages,omitempty"`
	BackendFrameworks    []FrameworkSkill `json:"backend_frameworks,omitempty" yaml:"backend_frameworks,omitempty"`
	Databases            []DatabaseSkill  `json:"databases,omitempty" yaml:"databases,omitempty"`
	FrontendTechnologies []FrontendSkill  `json:"frontend_technologies,omitempty" yaml:"frontend_technologies,omitempty"`
}

type LanguageSkill struct {
	Language    string `json:"language" yaml:"language"`
	Years       Scalar `json:"years" yaml:"years"`
	Proficiency string `json:"proficiency" yaml:"proficiency"`
}

type FrameworkSkill struct {
	Framework    string   `json:"framework" yaml:"framework"`
	VersionsUsed []string `json:"versions_used,omitempty" yaml:"versions_used,omitempty"`
}

type DatabaseSkill struct {
	Database    string `json:"database" yaml:"database"`
	Years       Scalar `json:"years" yaml:"years"`
	Proficiency string `json:"proficiency" yaml:"proficiency"`
}

// FrontendSkill names its subject with either "technology" or "language".
type FrontendSkill struct {
	Technology  string `json:"technology,omitempty" yaml:"technology,omitempty"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
	Years       Scalar `json:"years" yaml:"years"`
	Proficiency string `json:"proficiency" yaml:"proficiency"`
}

// Name returns Technology, or Language when Technology is unset.
func (f FrontendSkill) Name() string {
	if f.Technology != "" {
		return f.Technology
	}
	return f.Language
}

type Project struct {
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Technologies []string `json:"technologies,omitempty" yaml:"technologies,omitempty"`
	Impact       string   `json:"impact" yaml:"impact"`
}

type CareerGoals struct {
	ShortTerm     string   `json:"short_term" yaml:"short_term"`
	LongTerm      string   `json:"long_term" yaml:"long_term"`
	LearningFocus []string `json:"learning_focus,omitempty" yaml:"learning_focus,omitempty"`
}

type Education struct {
	University     string `json:"university" yaml:"university"`
	Degree         string `json:"degree" yaml:"degree"`
	GraduationYear Scalar `json:"graduation_year" yaml:"graduation_year"`
	ThesisProject  string `json:"thesis_project" yaml:"thesis_project"`
}

type SalaryLocation struct {
	CurrentStatus       string             `json:"current_status,omitempty" yaml:"current_status,omitempty"`
	SalaryExpectations  map[string]string  `json:"salary_expectations,omitempty" yaml:"salary_expectations,omitempty"`
	LocationPreferences []string           `json:"location_preferences,omitempty" yaml:"location_preferences,omitempty"`
	RelocationWilling   bool               `json:"relocation_willing,omitempty" yaml:"relocation_willing,omitempty"`
	RelocationDetails   *RelocationDetails `json:"relocation_details,omitempty" yaml:"relocation_details,omitempty"`
	WorkAuthorization   map[string]string  `json:"work_authorization,omitempty" yaml:"work_authorization,omitempty"`
	RemoteExperience    string             `json:"remote_experience,omitempty" yaml:"remote_experience,omitempty"`
}

type RelocationDetails struct {
	Domestic         string `json:"domestic_ph,omitempty" yaml:"domestic_ph,omitempty"`
	International    string `json:"international,omitempty" yaml:"international,omitempty"`
	RemotePreference string `json:"remote_preference,omitempty" yaml:"remote_preference,omitempty"`
}

// Scalar is a value written as either a number or a string in the source
// document (years of experience, graduation year). It keeps the text form.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = Scalar(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("scalar: %w", err)
	}
	*s = Scalar(num.String())
	return nil
}

func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("scalar: line %d: expected a scalar value", node.Line)
	}
	if node.Tag == "!!null" {
		*s = ""
		return nil
	}
	*s = Scalar(node.Value)
	return nil
}

func (s Scalar) String() string { return string(s) }

// Load reads a profile from disk. The format follows the extension:
// .yaml/.yml are YAML, anything else is JSON.
// All failures wrap domain.ErrProfileLoad.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", domain.ErrProfileLoad, path)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrProfileLoad, err)
	}
	return Parse(data, formatOf(path))
}

// Format names a serialisation of the profile document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a profile from raw bytes.
func Parse(data []byte, format Format) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProfileLoad, err)
	}
	return &doc, nil
}

// Name returns the subject's name, or "" when the personal section is absent.
func (d *Document) Name() string {
	if d == nil || d.Personal == nil {
		return ""
	}
	return d.Personal.Name
}

// Technical returns the technical skills block, or nil.
func (d *Document) Technical() *TechnicalSkills {
	if d == nil || d.Skills == nil {
		return nil
	}
	return d.Skills.Technical
}

// FormatYears renders a Scalar count without a trailing ".0".
func FormatYears(s Scalar) string {
	if f, err := strconv.ParseFloat(string(s), 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return string(s)
}
