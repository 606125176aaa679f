package tier

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Tier identifiers
const (
	Beginners = "beginners"
	Average   = "average"
	Master    = "master"
)

// Option is a read-only membership tier offered on the join page.
type Option struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	PriceUSD    int      `yaml:"price_usd"`
	Description string   `yaml:"description"`
	ButtonText  string   `yaml:"button_text"`
	Features    []string `yaml:"features"`
}

// Price renders the monthly price for display, e.g. "$20".
// INVARIANT: Option fields are not mutated
func (o Option) Price() string {
	return fmt.Sprintf("$%d", o.PriceUSD)
}

// PriceCents returns the price in cents for payment authorisation.
func (o Option) PriceCents() int64 {
	return int64(o.PriceUSD) * 100
}

var catalog = mustLoad(catalogYAML)

func mustLoad(data []byte) []Option {
	opts, err := parse(data)
	if err != nil {
		panic(fmt.Sprintf("tier: invalid embedded catalog: %v", err))
	}
	return opts
}

// parse decodes a catalog document and rejects duplicate or empty ids.
func parse(data []byte) ([]Option, error) {
	var opts []Option
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(opts))
	for _, o := range opts {
		if o.ID == "" {
			return nil, fmt.Errorf("tier with empty id")
		}
		if seen[o.ID] {
			return nil, fmt.Errorf("duplicate tier id %q", o.ID)
		}
		seen[o.ID] = true
	}
	return opts, nil
}

// All returns a copy of the catalog in display order.
func All() []Option {
	out := make([]Option, len(catalog))
	copy(out, catalog)
	return out
}

// Get looks up a tier by id.
// POST: ok is false when id is not in the catalog
func Get(id string) (Option, bool) {
	for _, o := range catalog {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// IsValid reports whether id names a catalog tier.
func IsValid(id string) bool {
	_, ok := Get(id)
	return ok
}
