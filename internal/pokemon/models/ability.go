package models

import (
	"strings"

	dErrors "pokegate/pkg/domain-errors"
)

// Ability is a normalized pokemon ability. ID 0 means the source did not
// provide one.
type Ability struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Effect string `json:"effect"`
}

// NewAbility builds a validated Ability. An empty effect is allowed.
func NewAbility(id int, name, effect string) (Ability, error) {
	a := Ability{ID: id, Name: name, Effect: effect}
	if err := a.Validate(); err != nil {
		return Ability{}, err
	}
	return a, nil
}

func (a Ability) Validate() error {
	if a.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "Name is required")
	}
	return nil
}

// Equal compares name and effect; abilities with different ids but the same
// content are interchangeable.
func (a Ability) Equal(other Ability) bool {
	return a.Name == other.Name && a.Effect == other.Effect
}

// Compare orders abilities by name, case-sensitive.
func Compare(a, b Ability) int {
	return strings.Compare(a.Name, b.Name)
}

func (a Ability) String() string {
	return "Ability{name='" + a.Name + "', effect='" + a.Effect + "'}"
}
