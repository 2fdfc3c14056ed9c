package pokeapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestBestImage(t *testing.T) {
	t.Run("official artwork first", func(t *testing.T) {
		p := &rawPokemon{}
		p.Sprites.FrontDefault = strPtr("front.png")
		p.Sprites.Other.Home.FrontDefault = strPtr("home.png")
		p.Sprites.Other.OfficialArtwork.FrontDefault = strPtr("art.png")
		assert.Equal(t, "art.png", *bestImage(p))
	})
	t.Run("home before front sprite", func(t *testing.T) {
		p := &rawPokemon{}
		p.Sprites.FrontDefault = strPtr("front.png")
		p.Sprites.Other.Home.FrontDefault = strPtr("home.png")
		assert.Equal(t, "home.png", *bestImage(p))
	})
	t.Run("dream world last", func(t *testing.T) {
		p := &rawPokemon{}
		p.Sprites.Other.OfficialArtwork.FrontDefault = strPtr("")
		p.Sprites.Other.DreamWorld.FrontDefault = strPtr("dream.svg")
		assert.Equal(t, "dream.svg", *bestImage(p))
	})
	t.Run("none", func(t *testing.T) {
		assert.Nil(t, bestImage(&rawPokemon{}))
	})
}

func TestDescription(t *testing.T) {
	entry := func(text, lang, version string) flavorTextEntry {
		return flavorTextEntry{FlavorText: text, Language: NamedResource{Name: lang}, Version: NamedResource{Name: version}}
	}

	t.Run("version priority", func(t *testing.T) {
		got := description([]flavorTextEntry{
			entry("moon text", "en", "moon"),
			entry("sun text", "en", "sun"),
			entry("ja text", "ja", "sword"),
		})
		require.NotNil(t, got)
		assert.Equal(t, "sun text", *got)
	})
	t.Run("falls back to first english", func(t *testing.T) {
		got := description([]flavorTextEntry{
			entry("fr text", "fr", "red"),
			entry("red\ntext", "en", "red"),
			entry("blue text", "en", "blue"),
		})
		require.NotNil(t, got)
		assert.Equal(t, "red text", *got)
	})
	t.Run("no english", func(t *testing.T) {
		assert.Nil(t, description([]flavorTextEntry{entry("x", "de", "sword")}))
	})
}

func TestCleanFlavorText(t *testing.T) {
	assert.Equal(t, "A strange seed was planted on its back.", *cleanFlavorText("  A strange seed\nwas planted\fon its\t back. "))
}

func TestNormalizePokemon_FiltersEmptyTypes(t *testing.T) {
	p := &rawPokemon{ID: 1, Name: "bulbasaur"}
	p.Types = append(p.Types,
		struct {
			Slot int           `json:"slot"`
			Type NamedResource `json:"type"`
		}{Slot: 1, Type: NamedResource{Name: "grass"}},
		struct {
			Slot int           `json:"slot"`
			Type NamedResource `json:"type"`
		}{Slot: 2},
	)

	got := normalizePokemon(p, nil)
	assert.Equal(t, []string{"grass"}, got.Types)
	assert.Nil(t, got.Description)
	assert.NotNil(t, got.Stats)
	assert.NotNil(t, got.Abilities)
}
