// Package persona holds the user profile accumulated over a conversation.
// The profile travels with every request; nothing here is stored server-side.
package persona

// Default values for fields the user has not answered yet.
const (
	ExperienceNone = "none"
	Any            = "any"
)

// Experience levels set by the clarification flow.
const (
	ExperienceStudent = "student"
	ExperienceJunior  = "junior"
	ExperienceMiddle  = "middle"
	ExperienceSenior  = "senior"
)

// Work style values.
const (
	WorkOffice = "office"
	WorkRemote = "remote"
	WorkHybrid = "hybrid"
)

// Location values.
const (
	LocationMoscow = "moscow"
	LocationSPb    = "spb"
	LocationOther  = "other"
	LocationRemote = "remote"
)

// Company size values.
const (
	CompanyStartup = "startup"
	CompanyMedium  = "medium"
	CompanyLarge   = "large"
)

// Persona is the inferred user profile.
type Persona struct {
	Experience     string   `json:"experience,omitempty"`
	Interests      []string `json:"interests,omitempty"`
	CurrentRole    string   `json:"currentRole,omitempty"`
	Goals          []string `json:"goals,omitempty"`
	IsUncertain    *bool    `json:"isUncertain,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	CompanySize    string   `json:"companySize,omitempty"`
	Location       string   `json:"location,omitempty"`
	Specialization string   `json:"specialization,omitempty"`
	WorkStyle      string   `json:"workStyle,omitempty"`
	Values         string   `json:"values,omitempty"`
	Motivation     string   `json:"motivation,omitempty"`
}

// Merge applies delta onto current and returns the result. List fields are
// appended to without deduplication. Scalars are overwritten only by
// non-empty delta values; IsUncertain only when delta sets it explicitly.
// Neither argument is modified.
func Merge(current, delta Persona) Persona {
	out := current.Clone()

	out.Interests = appendCopy(out.Interests, delta.Interests)
	out.Goals = appendCopy(out.Goals, delta.Goals)
	out.Skills = appendCopy(out.Skills, delta.Skills)

	setIf(&out.Experience, delta.Experience)
	setIf(&out.CurrentRole, delta.CurrentRole)
	setIf(&out.CompanySize, delta.CompanySize)
	setIf(&out.Location, delta.Location)
	setIf(&out.Specialization, delta.Specialization)
	setIf(&out.WorkStyle, delta.WorkStyle)
	setIf(&out.Values, delta.Values)
	setIf(&out.Motivation, delta.Motivation)

	if delta.IsUncertain != nil {
		v := *delta.IsUncertain
		out.IsUncertain = &v
	}
	return out
}

// Clone returns a deep copy of p.
func (p Persona) Clone() Persona {
	out := p
	out.Interests = appendCopy(nil, p.Interests)
	out.Goals = appendCopy(nil, p.Goals)
	out.Skills = appendCopy(nil, p.Skills)
	if p.IsUncertain != nil {
		v := *p.IsUncertain
		out.IsUncertain = &v
	}
	return out
}

// Uncertain reports whether the user said they do not know what they want.
func (p Persona) Uncertain() bool {
	return p.IsUncertain != nil && *p.IsUncertain
}

// SetUncertain records the uncertainty flag.
func (p *Persona) SetUncertain(v bool) {
	p.IsUncertain = &v
}

// AddInterest appends one interest.
func (p *Persona) AddInterest(s string) {
	p.Interests = append(p.Interests, s)
}

// AddSkill appends one skill.
func (p *Persona) AddSkill(s string) {
	p.Skills = append(p.Skills, s)
}

func (p Persona) ExperienceOrDefault() string {
	if p.Experience == "" {
		return ExperienceNone
	}
	return p.Experience
}

func (p Persona) LocationOrAny() string {
	if p.Location == "" {
		return Any
	}
	return p.Location
}

func (p Persona) CompanySizeOrAny() string {
	if p.CompanySize == "" {
		return Any
	}
	return p.CompanySize
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func appendCopy(dst, src []string) []string {
	if len(src) == 0 {
		return dst
	}
	out := make([]string, 0, len(dst)+len(src))
	out = append(out, dst...)
	return append(out, src...)
}
