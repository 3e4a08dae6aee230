package models

import (
	"slices"
	"strconv"
	"strings"

	dErrors "pokegate/pkg/domain-errors"
)

// Pokemon is the normalized record served to callers and kept in the stores.
// Construct it through NewPokemon so the field invariants hold.
type Pokemon struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Sprite    string    `json:"sprite"`
	Abilities []Ability `json:"abilities"`
}

// NewPokemon builds a validated Pokemon. The abilities slice is kept as given;
// callers sort it explicitly with SortAbilities.
func NewPokemon(id int, name, sprite string, abilities []Ability) (*Pokemon, error) {
	p := &Pokemon{
		ID:        id,
		Name:      name,
		Sprite:    sprite,
		Abilities: abilities,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the construction invariants. Records reconstituted from a
// store are validated with it before being served.
func (p *Pokemon) Validate() error {
	if p.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "Name cannot be null")
	}
	if p.Sprite == "" {
		return dErrors.New(dErrors.CodeValidation, "Sprite cannot be null")
	}
	if p.Abilities == nil {
		return dErrors.New(dErrors.CodeValidation, "Abilities cannot be null")
	}
	for _, a := range p.Abilities {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SortAbilities orders abilities ascending by name, in place.
func (p *Pokemon) SortAbilities() {
	slices.SortStableFunc(p.Abilities, Compare)
}

// Equal compares name, sprite and abilities. The source id is not part of equality.
func (p *Pokemon) Equal(other *Pokemon) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Name == other.Name &&
		p.Sprite == other.Sprite &&
		slices.EqualFunc(p.Abilities, other.Abilities, Ability.Equal)
}

func (p *Pokemon) String() string {
	var b strings.Builder
	b.WriteString("Pokemon{id=")
	b.WriteString(strconv.Itoa(p.ID))
	b.WriteString(", name='")
	b.WriteString(p.Name)
	b.WriteString("', sprite='")
	b.WriteString(p.Sprite)
	b.WriteString("', abilities=[")
	for i, a := range p.Abilities {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteString("]}")
	return b.String()
}
