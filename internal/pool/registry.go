package pool

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed pairs-schema.json
var schemaBytes []byte

var pairSchema *gojsonschema.Schema

func init() {
	loader := gojsonschema.NewBytesLoader(schemaBytes)
	var err error
	pairSchema, err = gojsonschema.NewSchema(loader)
	if err != nil {
		panic(fmt.Sprintf("failed to load pairs schema: %v", err))
	}
}

var ErrPairNotFound = errors.New("pair not found")

// PairConfig represents a pair entry in the JSON config
type PairConfig struct {
	ID           string `json:"id"`
	Base         string `json:"base"`
	Quote        string `json:"quote"`
	BaseReserve  uint64 `json:"base_reserve"`
	QuoteReserve uint64 `json:"quote_reserve"`
}

// Pair is a validated, ready-to-use trading pair configuration
type Pair struct {
	ID           string
	Base         string
	Quote        string
	BaseReserve  uint64
	QuoteReserve uint64
}

// Registry holds all configured trading pairs
type Registry struct {
	pairs []Pair
}

// NewRegistry loads pairs from a JSON file
func NewRegistry(configPath string) (*Registry, error) {
	pairs, err := LoadPairsFromJSON(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pairs: %w", err)
	}

	return &Registry{
		pairs: pairs,
	}, nil
}

// ValidatePairsJSON checks raw config bytes against the embedded schema
func ValidatePairsJSON(data []byte) error {
	documentLoader := gojsonschema.NewBytesLoader(data)
	result, err := pairSchema.Validate(documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMsg string
		for _, desc := range result.Errors() {
			if errorMsg != "" {
				errorMsg += "; "
			}
			errorMsg += desc.String()
		}
		return fmt.Errorf("schema validation failed: %s", errorMsg)
	}

	return nil
}

// LoadPairsFromJSON reads, schema-checks, and parses pair configurations
func LoadPairsFromJSON(path string) ([]Pair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := ValidatePairsJSON(data); err != nil {
		return nil, err
	}

	var configs []PairConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	pairs := make([]Pair, 0, len(configs))
	seen := make(map[string]struct{}, len(configs))
	for i, cfg := range configs {
		pair, err := parsePairConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("pair %d (%s): %w", i, cfg.ID, err)
		}
		if _, dup := seen[pair.ID]; dup {
			return nil, fmt.Errorf("pair %d (%s): duplicate id", i, cfg.ID)
		}
		seen[pair.ID] = struct{}{}
		pairs = append(pairs, pair)
	}

	return pairs, nil
}

// parsePairConfig converts a config struct to a Pair with cross-field validation
func parsePairConfig(cfg PairConfig) (Pair, error) {
	if cfg.Base == cfg.Quote {
		return Pair{}, fmt.Errorf("base and quote must differ")
	}
	if cfg.ID != cfg.Base+"-"+cfg.Quote {
		return Pair{}, fmt.Errorf("id must be %s-%s", cfg.Base, cfg.Quote)
	}

	return Pair{
		ID:           cfg.ID,
		Base:         cfg.Base,
		Quote:        cfg.Quote,
		BaseReserve:  cfg.BaseReserve,
		QuoteReserve: cfg.QuoteReserve,
	}, nil
}

// Resolve maps a directional reference like "ETH-USDC" or "USDC-ETH" to its
// registry pair. baseIn reports whether the reference's input side is the
// pair's base asset.
func (r *Registry) Resolve(ref string) (*Pair, bool, error) {
	tokenIn, tokenOut, err := SplitRef(ref)
	if err != nil {
		return nil, false, err
	}

	for i := range r.pairs {
		pair := &r.pairs[i]

		if pair.Base == tokenIn && pair.Quote == tokenOut {
			return pair, true, nil
		}
		if pair.Base == tokenOut && pair.Quote == tokenIn {
			return pair, false, nil
		}
	}

	return nil, false, fmt.Errorf("%w: %s", ErrPairNotFound, ref)
}

// FindByID looks a pair up by its canonical id
func (r *Registry) FindByID(id string) (*Pair, error) {
	for i := range r.pairs {
		if r.pairs[i].ID == id {
			return &r.pairs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPairNotFound, id)
}

// All returns all registered pairs
func (r *Registry) All() []Pair {
	return r.pairs
}

// Count returns the number of registered pairs
func (r *Registry) Count() int {
	return len(r.pairs)
}

// SplitRef splits a directional pair reference into its input and output
// symbols.
func SplitRef(ref string) (tokenIn, tokenOut string, err error) {
	parts := strings.Split(ref, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid pair reference: %q", ref)
	}
	if parts[0] == parts[1] {
		return "", "", fmt.Errorf("invalid pair reference: %q", ref)
	}
	return parts[0], parts[1], nil
}
