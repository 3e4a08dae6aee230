package pokeapi

import (
	"pokegate/internal/pokemon/models"
)

// MapAbility converts a raw ability. The effect is the first entry's text,
// regardless of language, or empty when there are no entries.
func MapAbility(raw AbilityResponse) (models.Ability, error) {
	effect := ""
	if len(raw.EffectEntries) > 0 {
		effect = raw.EffectEntries[0].Effect
	}
	return models.NewAbility(raw.ID, raw.Name, effect)
}

// MapAbilities converts raw abilities, preserving their order.
func MapAbilities(raws []AbilityResponse) ([]models.Ability, error) {
	out := make([]models.Ability, 0, len(raws))
	for _, raw := range raws {
		a, err := MapAbility(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// MapPokemon combines the primary response with its separately fetched
// abilities. Ability order follows rawAbilities; sorting is left to the caller.
func MapPokemon(raw PokemonResponse, rawAbilities []AbilityResponse) (*models.Pokemon, error) {
	abilities, err := MapAbilities(rawAbilities)
	if err != nil {
		return nil, err
	}
	sprite := ""
	if raw.Sprites != nil {
		sprite = raw.Sprites.FrontDefault
	}
	return models.NewPokemon(raw.ID, raw.Name, sprite, abilities)
}
