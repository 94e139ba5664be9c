package cards

// Seed names one card to pre-generate into the catalog.
type Seed struct {
	Profession string `json:"profession"`
	Level      string `json:"level"`
	Company    string `json:"company"`
}

// DefaultSeeds is the starter catalog.
var DefaultSeeds = []Seed{
	{Profession: "DevOps Engineer", Level: "Middle", Company: "стартап"},
	{Profession: "Frontend Developer", Level: "Junior", Company: "стартап"},
	{Profession: "Бариста", Level: "Junior", Company: "кофейня"},
}
