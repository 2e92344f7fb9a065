package room

// Card is the grid a player submits with a bingo claim. Rows are ordered top
// to bottom; a zero marks a free cell.
type Card [][]int

// ClaimValidator decides whether a bingo claim stands. It sees the claimed
// card and the numbers drawn so far, and runs inside the room's critical
// section, so it must not block.
type ClaimValidator interface {
	Validate(card Card, drawn []int) error
}

// ClaimValidatorFunc adapts a function to ClaimValidator.
type ClaimValidatorFunc func(card Card, drawn []int) error

func (f ClaimValidatorFunc) Validate(card Card, drawn []int) error {
	return f(card, drawn)
}

// AcceptAll trusts every claim. It is the default validator.
var AcceptAll ClaimValidator = ClaimValidatorFunc(func(Card, []int) error { return nil })
