package pokeapi

import "strings"

// descriptionVersions are tried in order before falling back to any English entry.
var descriptionVersions = []string{"sword", "shield", "sun", "moon", "omega-ruby", "alpha-sapphire"}

func normalizePokemon(p *rawPokemon, species *rawSpecies) Pokemon {
	out := Pokemon{
		ID:        p.ID,
		Name:      p.Name,
		Image:     bestImage(p),
		Types:     make([]string, 0, len(p.Types)),
		Stats:     make(map[string]int, len(p.Stats)),
		Height:    p.Height,
		Weight:    p.Weight,
		Abilities: make([]Ability, 0, len(p.Abilities)),
	}
	if species != nil {
		out.Description = description(species.FlavorTextEntries)
	}
	for _, t := range p.Types {
		if t.Type.Name != "" {
			out.Types = append(out.Types, t.Type.Name)
		}
	}
	for _, s := range p.Stats {
		if s.Stat.Name != "" && s.BaseStat != nil {
			out.Stats[s.Stat.Name] = *s.BaseStat
		}
	}
	for _, a := range p.Abilities {
		out.Abilities = append(out.Abilities, Ability{Name: a.Ability.Name, IsHidden: a.IsHidden, Slot: a.Slot})
	}
	return out
}

// bestImage prefers official artwork, then home renders, then sprites.
func bestImage(p *rawPokemon) *string {
	candidates := []*string{
		p.Sprites.Other.OfficialArtwork.FrontDefault,
		p.Sprites.Other.Home.FrontDefault,
		p.Sprites.FrontDefault,
		p.Sprites.Other.DreamWorld.FrontDefault,
	}
	for _, c := range candidates {
		if c != nil && *c != "" {
			img := *c
			return &img
		}
	}
	return nil
}

func description(entries []flavorTextEntry) *string {
	for _, version := range descriptionVersions {
		for _, e := range entries {
			if e.Language.Name == "en" && e.Version.Name == version {
				return cleanFlavorText(e.FlavorText)
			}
		}
	}
	for _, e := range entries {
		if e.Language.Name == "en" {
			return cleanFlavorText(e.FlavorText)
		}
	}
	return nil
}

// cleanFlavorText collapses runs of whitespace, including form feeds, to one space.
func cleanFlavorText(text string) *string {
	s := strings.Join(strings.Fields(text), " ")
	return &s
}
