package entity

// Team is one distinct, non-empty value of the players table's hold column,
// shaped for a select control.
type Team struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func NewTeam(name string) Team {
	return Team{Label: name, Value: name}
}
