package models

// Rarity levels. Lower is rarer, and the value doubles as the default draw
// weight of a card inside a pack pool.
const (
	RarityLegendary = 1
	RarityRare      = 2
	RarityUncommon  = 3
	RarityCommon    = 4
)

// UnlimitedUsage marks a card that can be used any number of times.
const UnlimitedUsage = -1

// Rarity describes how a rarity level is presented to players.
type Rarity struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Background string `json:"background"`
}

var Rarities = map[int]Rarity{
	RarityLegendary: {Name: "Legendary", Color: "rgba(226, 40, 40, 0.75)", Background: "https://i.imgur.com/nUWzBNa.jpeg"},
	RarityRare:      {Name: "Rare", Color: "rgba(104, 93, 252, 0.75)", Background: "https://i.imgur.com/Be1ru4O.jpeg"},
	RarityUncommon:  {Name: "Uncommon", Color: "rgba(166, 219, 154, 0.75)", Background: "https://i.imgur.com/44MShCg.jpeg"},
	RarityCommon:    {Name: "Common", Color: "rgba(225, 228, 203, 0.75)", Background: "https://i.imgur.com/UjcJonU.jpeg"},
}

// BaseTags are offered for every campaign, in addition to whatever tags the
// DM has put on cards.
var BaseTags = []string{
	"Malus", "Dice", "Attack",
	"Defense", "Strength", "Dexterity", "Constitution", "Intelligence", "Wisdom", "Charisma", "Hit Points",
	"Armor Class", "Speed", "Initiative", "Saving Throws", "Skills", "Damage", "Healing", "Temporary Hit Points",
	"Conditions", "Movement", "Range", "Duration", "Targets", "Area of Effect", "Components", "Casting Time",
	"Concentration", "Ritual", "School", "Level", "Classes", "Subclasses",
}

// PlayingCard is a card definition in a campaign's catalog.
type PlayingCard struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Rarity         int      `json:"rarity"`
	Type           string   `json:"type"`
	Category       string   `json:"category"`
	ActivationCost string   `json:"activation_cost"`
	Description    string   `json:"description"`
	Usage          int      `json:"usage"` // -1 => unlimited
	Background     string   `json:"background"`
	Tags           []string `json:"tags,omitempty"`
}

// RarityName returns the display name of the card's rarity, or "Unknown".
func (c PlayingCard) RarityName() string {
	if r, ok := Rarities[c.Rarity]; ok {
		return r.Name
	}
	return "Unknown"
}
