// Package pokeapi serves pokemon data from PokeAPI through a shared cache and
// normalizes detail records for clients.
package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"pokevault/internal/platform/config"
	"pokevault/internal/pokeapi/cache"
)

// Upstream fetches a PokeAPI path. kind labels metrics and spans.
type Upstream interface {
	Get(ctx context.Context, kind, path string, params url.Values) ([]byte, error)
}

type Service struct {
	upstream Upstream
	cache    *cache.Cache
	cfg      config.PokeAPI
	logger   *slog.Logger
}

func New(upstream Upstream, c *cache.Cache, cfg config.PokeAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	if cfg.SearchMaxResults <= 0 {
		cfg.SearchMaxResults = 1000
	}
	if cfg.SpeciesTTL <= 0 {
		cfg.SpeciesTTL = cfg.DetailTTL
	}
	return &Service{upstream: upstream, cache: c, cfg: cfg, logger: logger}
}

// ClampLimit bounds a page size to [0, max limit].
func (s *Service) ClampLimit(limit int) int {
	return max(0, min(limit, s.cfg.MaxLimit))
}

// List returns one page of the pokemon index.
func (s *Service) List(ctx context.Context, limit, offset int) (*ListResponse, error) {
	return s.list(ctx, s.ClampLimit(limit), max(0, offset))
}

// list fetches a page without clamping; search scans use it for larger windows.
func (s *Service) list(ctx context.Context, limit, offset int) (*ListResponse, error) {
	key := fmt.Sprintf("pokeapi:list:%d:%d", limit, offset)
	body, err := s.cache.Remember(ctx, "list", key, s.cfg.ListTTL, func(ctx context.Context) ([]byte, error) {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(limit))
		params.Set("offset", strconv.Itoa(offset))
		return s.upstream.Get(ctx, "list", "pokemon", params)
	})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Count    int             `json:"count"`
		Next     *string         `json:"next"`
		Previous *string         `json:"previous"`
		Results  []NamedResource `json:"results"`
	}
	if err := json.Unmarshal(body, &raw); err != nil || raw.Results == nil {
		return &ListResponse{Count: 0, Results: []NamedResource{}}, nil
	}
	return &ListResponse{Count: raw.Count, Next: raw.Next, Previous: raw.Previous, Results: raw.Results}, nil
}

// Get returns the raw pokemon payload for an id or name.
func (s *Service) Get(ctx context.Context, id string) (json.RawMessage, error) {
	id = normalizeID(id)
	return s.cache.Remember(ctx, "detail", "pokeapi:detail:"+id, s.cfg.DetailTTL, func(ctx context.Context) ([]byte, error) {
		return s.upstream.Get(ctx, "detail", "pokemon/"+url.PathEscape(id), nil)
	})
}

// GetSpecies returns the raw pokemon-species payload.
func (s *Service) GetSpecies(ctx context.Context, id string) (json.RawMessage, error) {
	id = normalizeID(id)
	return s.cache.Remember(ctx, "species", "pokeapi:species:"+id, s.cfg.SpeciesTTL, func(ctx context.Context) ([]byte, error) {
		return s.upstream.Get(ctx, "species", "pokemon-species/"+url.PathEscape(id), nil)
	})
}

// GetDetailed merges the pokemon and species payloads into a Pokemon. A species
// failure leaves Description nil.
func (s *Service) GetDetailed(ctx context.Context, id string) (*Pokemon, error) {
	body, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var raw rawPokemon
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode pokemon %s: %w", id, err)
	}

	var species *rawSpecies
	if speciesBody, err := s.GetSpecies(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "species lookup failed", "id", id, "error", err)
	} else {
		var sp rawSpecies
		if err := json.Unmarshal(speciesBody, &sp); err != nil {
			s.logger.WarnContext(ctx, "species decode failed", "id", id, "error", err)
		} else {
			species = &sp
		}
	}

	p := normalizePokemon(&raw, species)
	return &p, nil
}

// GetByType returns the pokemon belonging to a type.
func (s *Service) GetByType(ctx context.Context, typeName string) (*TypePayload, error) {
	typeName = normalizeID(typeName)
	body, err := s.cache.Remember(ctx, "type", "pokeapi:type:"+typeName, s.cfg.TypeTTL, func(ctx context.Context) ([]byte, error) {
		return s.upstream.Get(ctx, "type", "type/"+url.PathEscape(typeName), nil)
	})
	if err != nil {
		return nil, err
	}

	var raw rawType
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode type %s: %w", typeName, err)
	}
	out := &TypePayload{Type: raw.Name, Pokemon: make([]NamedResource, 0, len(raw.Pokemon))}
	if out.Type == "" {
		out.Type = typeName
	}
	for _, entry := range raw.Pokemon {
		out.Pokemon = append(out.Pokemon, entry.Pokemon)
	}
	out.Count = len(out.Pokemon)
	return out, nil
}

// SearchByName matches names by substring within the first
// min(limit*5, search max) listed entries. Count is the number of matches
// returned, not a total over the whole index.
func (s *Service) SearchByName(ctx context.Context, query string, limit int) (*ListResponse, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	limit = s.ClampLimit(limit)
	if query == "" {
		return s.List(ctx, limit, 0)
	}

	page, err := s.list(ctx, min(limit*5, s.cfg.SearchMaxResults), 0)
	if err != nil {
		return nil, err
	}
	matches := make([]NamedResource, 0, limit)
	for _, entry := range page.Results {
		if len(matches) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(entry.Name), query) {
			matches = append(matches, entry)
		}
	}
	return &ListResponse{Count: len(matches), Results: matches}, nil
}

// GetEvolutionChain returns the raw evolution-chain payload.
func (s *Service) GetEvolutionChain(ctx context.Context, chainID int) (json.RawMessage, error) {
	key := "pokeapi:evolution:" + strconv.Itoa(chainID)
	return s.cache.Remember(ctx, "evolution", key, s.cfg.EvolutionTTL, func(ctx context.Context) ([]byte, error) {
		return s.upstream.Get(ctx, "evolution", "evolution-chain/"+strconv.Itoa(chainID), nil)
	})
}

// GetMultiple fetches details one at a time, skipping ids that fail.
func (s *Service) GetMultiple(ctx context.Context, ids []string) []Pokemon {
	out := make([]Pokemon, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetDetailed(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping pokemon", "id", id, "error", err)
			continue
		}
		out = append(out, *p)
	}
	return out
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
