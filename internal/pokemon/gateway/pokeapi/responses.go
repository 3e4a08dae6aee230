package pokeapi

// PokemonResponse is the subset of GET /pokemon/{name} the gateway reads.
type PokemonResponse struct {
	ID        int              `json:"id"`
	Name      string           `json:"name"`
	Abilities []AbilitySlot    `json:"abilities"`
	Sprites   *SpritesResponse `json:"sprites"`
}

// AbilitySlot references an ability by name and URL.
type AbilitySlot struct {
	Ability NamedResource `json:"ability"`
}

// NamedResource is PokeAPI's {name, url} link.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SpritesResponse carries the sprite links; only the default front sprite is used.
type SpritesResponse struct {
	FrontDefault string `json:"front_default"`
}

// AbilityResponse is the subset of GET /ability/{id} the gateway reads.
type AbilityResponse struct {
	ID            int           `json:"id"`
	Name          string        `json:"name"`
	EffectEntries []EffectEntry `json:"effect_entries"`
}

// EffectEntry is one localized ability effect.
type EffectEntry struct {
	Effect   string        `json:"effect"`
	Language NamedResource `json:"language"`
}
