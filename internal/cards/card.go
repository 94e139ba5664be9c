package cards

import (
	"errors"
	"strings"

	"github.com/kalambet/careervibe/internal/market"
)

// ErrNotFound is returned when no card exists for a slug.
var ErrNotFound = errors.New("card not found")

// Ref is the lightweight reference to a card shown in chat responses.
// A virtual ref points at a profession with no persisted card yet.
type Ref struct {
	Slug           string  `json:"slug"`
	Profession     string  `json:"profession"`
	Level          string  `json:"level"`
	Company        string  `json:"company"`
	Image          *string `json:"image,omitempty"`
	IsVirtual      bool    `json:"isVirtual,omitempty"`
	VacanciesCount int     `json:"vacanciesCount,omitempty"`
}

// VirtualRef builds a ref for a profession that has not been generated.
func VirtualRef(profession, level, company string) Ref {
	return Ref{
		Slug:       Slug(profession),
		Profession: profession,
		Level:      level,
		Company:    company,
		IsVirtual:  true,
	}
}

type ScheduleItem struct {
	Time        string `json:"time"`
	Title       string `json:"title"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
	Detail      string `json:"detail"`
}

type Benefit struct {
	Icon string `json:"icon"`
	Text string `json:"text"`
}

type CareerStage struct {
	Level  string `json:"level"`
	Years  string `json:"years"`
	Salary string `json:"salary"`
}

type Skill struct {
	Name  string  `json:"name"`
	Level float64 `json:"level"`
}

type Dialog struct {
	Message  string   `json:"message"`
	Options  []string `json:"options"`
	Response string   `json:"response"`
}

// Preferences records the clarification answers a card was generated for.
type Preferences struct {
	Location       string `json:"location,omitempty"`
	CompanySize    string `json:"companySize,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Motivation     string `json:"motivation,omitempty"`
	WorkStyle      string `json:"workStyle,omitempty"`
}

// DisplayLabels adapts UI labels to professions where "level" reads oddly.
type DisplayLabels struct {
	Level string `json:"level,omitempty"`
}

// Card is the full profession card.
type Card struct {
	Slug       string `json:"slug"`
	Profession string `json:"profession"`
	Level      string `json:"level"`
	Company    string `json:"company"`

	Schedule   []ScheduleItem `json:"schedule"`
	Stack      []string       `json:"stack"`
	Benefits   []Benefit      `json:"benefits"`
	CareerPath []CareerStage  `json:"careerPath"`
	Skills     []Skill        `json:"skills"`
	Dialog     Dialog         `json:"dialog"`

	Vacancies    int                `json:"vacancies"`
	Competition  string             `json:"competition"`
	AvgSalary    *int               `json:"avgSalary"`
	SalaryRange  market.SalaryRange `json:"salaryRange"`
	TopCompanies []string           `json:"topCompanies"`

	Images         []string       `json:"images"`
	GeneratedAt    string         `json:"generatedAt"`
	IsIT           bool           `json:"isIT,omitempty"`
	CompanySize    string         `json:"companySize,omitempty"`
	Location       string         `json:"location,omitempty"`
	Specialization string         `json:"specialization,omitempty"`
	Description    string         `json:"description,omitempty"`
	Preferences    *Preferences   `json:"userPreferences,omitempty"`
	DisplayLabels  *DisplayLabels `json:"displayLabels,omitempty"`
}

// Ref returns the chat reference for c.
func (c Card) Ref() Ref {
	r := Ref{
		Slug:       c.Slug,
		Profession: c.Profession,
		Level:      c.Level,
		Company:    c.Company,
	}
	if len(c.Images) > 0 {
		img := c.Images[0]
		r.Image = &img
	}
	return r
}

// applyStats copies market figures onto the card.
func (c *Card) applyStats(st market.Stats) {
	c.Vacancies = st.Vacancies
	c.Competition = st.Competition
	c.AvgSalary = st.AvgSalary
	c.SalaryRange = st.SalaryRange
	c.TopCompanies = st.TopCompanies
	if c.TopCompanies == nil {
		c.TopCompanies = []string{}
	}
}

var itMarkers = []string{"developer", "devops", "engineer", "программист", "разработчик"}

// IsITProfession reports whether name looks like a software profession.
func IsITProfession(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range itMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
