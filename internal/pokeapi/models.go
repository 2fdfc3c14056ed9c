package pokeapi

// NamedResource is PokeAPI's {name, url} reference.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ListResponse is a page of the pokemon index, or a search result.
type ListResponse struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next,omitempty"`
	Previous *string         `json:"previous,omitempty"`
	Results  []NamedResource `json:"results"`
}

// Pokemon is the normalized detail record served to clients and used to fill favorites.
type Pokemon struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Image       *string        `json:"image"`
	Description *string        `json:"description"`
	Types       []string       `json:"types"`
	Stats       map[string]int `json:"stats"`
	Height      int            `json:"height"`
	Weight      int            `json:"weight"`
	Abilities   []Ability      `json:"abilities"`
}

type Ability struct {
	Name     string `json:"name"`
	IsHidden bool   `json:"is_hidden"`
	Slot     int    `json:"slot"`
}

// TypePayload lists the pokemon of one type.
type TypePayload struct {
	Type    string          `json:"type"`
	Pokemon []NamedResource `json:"pokemon"`
	Count   int             `json:"count"`
}

type sprite struct {
	FrontDefault *string `json:"front_default"`
}

type rawPokemon struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Height  int    `json:"height"`
	Weight  int    `json:"weight"`
	Sprites struct {
		FrontDefault *string `json:"front_default"`
		Other        struct {
			OfficialArtwork sprite `json:"official-artwork"`
			Home            sprite `json:"home"`
			DreamWorld      sprite `json:"dream_world"`
		} `json:"other"`
	} `json:"sprites"`
	Types []struct {
		Slot int           `json:"slot"`
		Type NamedResource `json:"type"`
	} `json:"types"`
	Stats []struct {
		BaseStat *int          `json:"base_stat"`
		Stat     NamedResource `json:"stat"`
	} `json:"stats"`
	Abilities []struct {
		Ability  NamedResource `json:"ability"`
		IsHidden bool          `json:"is_hidden"`
		Slot     int           `json:"slot"`
	} `json:"abilities"`
}

type flavorTextEntry struct {
	FlavorText string        `json:"flavor_text"`
	Language   NamedResource `json:"language"`
	Version    NamedResource `json:"version"`
}

type rawSpecies struct {
	FlavorTextEntries []flavorTextEntry `json:"flavor_text_entries"`
}

type rawType struct {
	Name    string `json:"name"`
	Pokemon []struct {
		Pokemon NamedResource `json:"pokemon"`
	} `json:"pokemon"`
}
