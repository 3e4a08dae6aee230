package handler

import (
	"pokegate/internal/pokemon/models"
)

// PokemonResponse is the HTTP response for GET /v1/pokemon.
type PokemonResponse struct {
	ID        int               `json:"id,omitempty"`
	Name      string            `json:"name"`
	Sprite    string            `json:"sprite"`
	Abilities []AbilityResponse `json:"abilities"`
}

// AbilityResponse is one ability of a PokemonResponse.
type AbilityResponse struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Effect string `json:"effect"`
}

// FromPokemon converts a domain Pokemon to an HTTP response.
func FromPokemon(p *models.Pokemon) *PokemonResponse {
	abilities := make([]AbilityResponse, 0, len(p.Abilities))
	for _, a := range p.Abilities {
		abilities = append(abilities, AbilityResponse{
			ID:     a.ID,
			Name:   a.Name,
			Effect: a.Effect,
		})
	}
	return &PokemonResponse{
		ID:        p.ID,
		Name:      p.Name,
		Sprite:    p.Sprite,
		Abilities: abilities,
	}
}
