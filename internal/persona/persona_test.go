package persona

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kalambet/careervibe/internal/chat"
	"github.com/kalambet/careervibe/internal/engine"
)

func boolPtr(b bool) *bool { return &b }

func TestMerge_AppendsLists(t *testing.T) {
	cur := Persona{Interests: []string{"музыка"}, Skills: []string{"Go"}}
	got := Merge(cur, Persona{Interests: []string{"музыка"}, Skills: []string{"SQL"}})

	if len(got.Interests) != 2 || got.Interests[0] != "музыка" || got.Interests[1] != "музыка" {
		t.Errorf("Interests = %v, want [музыка музыка]", got.Interests)
	}
	if len(got.Skills) != 2 || got.Skills[1] != "SQL" {
		t.Errorf("Skills = %v, want [Go SQL]", got.Skills)
	}
	if len(cur.Interests) != 1 {
		t.Errorf("Merge modified current: %v", cur.Interests)
	}
}

func TestMerge_Scalars(t *testing.T) {
	cur := Persona{Experience: "junior", Location: LocationMoscow, WorkStyle: "office"}
	got := Merge(cur, Persona{Experience: "middle", Location: ""})

	if got.Experience != "middle" {
		t.Errorf("Experience = %q, want middle", got.Experience)
	}
	if got.Location != LocationMoscow {
		t.Errorf("Location = %q, want %q (empty delta must not overwrite)", got.Location, LocationMoscow)
	}
	if got.WorkStyle != "office" {
		t.Errorf("WorkStyle = %q, want office", got.WorkStyle)
	}
}

func TestMerge_Uncertain(t *testing.T) {
	cur := Persona{IsUncertain: boolPtr(true)}

	if got := Merge(cur, Persona{}); !got.Uncertain() {
		t.Error("absent isUncertain in delta cleared the flag")
	}
	if got := Merge(cur, Persona{IsUncertain: boolPtr(false)}); got.Uncertain() {
		t.Error("explicit false in delta did not clear the flag")
	}

	delta := Persona{IsUncertain: boolPtr(true)}
	got := Merge(Persona{}, delta)
	*delta.IsUncertain = false
	if !got.Uncertain() {
		t.Error("Merge result aliases delta's IsUncertain")
	}
}

func TestDefaults(t *testing.T) {
	var p Persona
	if p.ExperienceOrDefault() != ExperienceNone {
		t.Errorf("ExperienceOrDefault() = %q, want %q", p.ExperienceOrDefault(), ExperienceNone)
	}
	if p.LocationOrAny() != Any || p.CompanySizeOrAny() != Any {
		t.Error("LocationOrAny/CompanySizeOrAny should default to any")
	}
	p.Location = LocationSPb
	if p.LocationOrAny() != LocationSPb {
		t.Errorf("LocationOrAny() = %q, want %q", p.LocationOrAny(), LocationSPb)
	}
}

func TestDetect(t *testing.T) {
	var prompt string
	gen := engine.GenerateFunc(func(_ context.Context, p string, opts engine.Options) (string, error) {
		prompt = p
		if !opts.JSONMode || opts.Temperature != 0.3 {
			t.Errorf("opts = %+v, want JSON mode at 0.3", opts)
		}
		return `{"experience":"junior","interests":["музыка","дизайн"],"currentRole":"текущая роль если упоминается","goals":"расти","isUncertain":"true"}`, nil
	})
	history := make([]chat.Message, 7)
	for i := range history {
		history[i] = chat.Message{Role: chat.RoleUser, Content: strings.Repeat("x", i+1)}
	}

	d := NewDetector(gen).Detect(context.Background(), "люблю дизайн", history, Persona{Interests: []string{"Музыка"}})

	if d.Experience != "junior" {
		t.Errorf("Experience = %q, want junior", d.Experience)
	}
	if d.CurrentRole != "" {
		t.Errorf("CurrentRole = %q, want placeholder dropped", d.CurrentRole)
	}
	if len(d.Interests) != 1 || d.Interests[0] != "дизайн" {
		t.Errorf("Interests = %v, want [дизайн]", d.Interests)
	}
	if len(d.Goals) != 1 || d.Goals[0] != "расти" {
		t.Errorf("Goals = %v, want [расти]", d.Goals)
	}
	if !d.Uncertain() {
		t.Error("isUncertain string \"true\" not honored")
	}
	if strings.Contains(prompt, "user: x\n") || !strings.Contains(prompt, "user: xxxxxxx") {
		t.Error("prompt should include only the last 5 turns")
	}
}

func TestDetect_FailsSoft(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
	}{
		{"backend error", "", errors.New("down")},
		{"malformed", "not json", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := engine.GenerateFunc(func(context.Context, string, engine.Options) (string, error) {
				return tt.out, tt.err
			})
			d := NewDetector(gen).Detect(context.Background(), "hi", nil, Persona{Experience: "senior"})
			if d.Experience != "" || d.IsUncertain != nil || d.Interests != nil {
				t.Errorf("Detect() = %+v, want empty delta", d)
			}
		})
	}
}

func TestImportResume(t *testing.T) {
	gen := engine.GenerateFunc(func(_ context.Context, p string, _ engine.Options) (string, error) {
		if !strings.Contains(p, "Go-разработчик") {
			t.Error("prompt missing resume text")
		}
		return `{"experience":"middle","currentRole":"Backend developer","skills":["Go","PostgreSQL"],"interests":[],"goals":["тимлид"]}`, nil
	})

	d, err := ImportResume(context.Background(), gen, "Иван, Go-разработчик, 3 года опыта")
	if err != nil {
		t.Fatalf("ImportResume() error: %v", err)
	}
	if d.Experience != "middle" || d.CurrentRole != "Backend developer" {
		t.Errorf("ImportResume() = %+v", d)
	}
	if len(d.Skills) != 2 {
		t.Errorf("Skills = %v, want 2 entries", d.Skills)
	}
	if d.IsUncertain != nil {
		t.Error("IsUncertain should stay unset")
	}
}

func TestImportResume_Errors(t *testing.T) {
	gen := engine.GenerateFunc(func(context.Context, string, engine.Options) (string, error) {
		return "", errors.New("down")
	})
	if _, err := ImportResume(context.Background(), gen, "  "); !errors.Is(err, ErrEmptyResume) {
		t.Errorf("ImportResume(blank) error = %v, want ErrEmptyResume", err)
	}
	if _, err := ImportResume(context.Background(), gen, "text"); err == nil {
		t.Error("ImportResume() should return generator errors")
	}
}

func TestExtractText_InvalidPDF(t *testing.T) {
	if _, err := ExtractText([]byte("definitely not a pdf")); err == nil {
		t.Error("ExtractText() accepted non-PDF input")
	}
}
