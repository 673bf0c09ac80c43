package core

// Slot is a named seat on the board.
type Slot struct {
	ID   string `json:"slotId"`
	Name string `json:"name"`
}

// Assignment places a card in a slot at a preference rank (1 = first choice).
type Assignment struct {
	SlotID string `json:"slotId"`
	CardID string `json:"cardId"`
	Rank   int    `json:"rank"`
}

// Board holds the slots and the cards assigned to them.
type Board struct {
	ID          string       `json:"boardId"`
	Slots       []Slot       `json:"slots"`
	Assignments []Assignment `json:"assignments"`
}
