// Package tool defines the marketplace tool catalog: descriptors, parameter
// schemas and the price-in-description convention used on the wire.
package tool

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Property describes a single named parameter of a tool.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

// ParameterSpec is the JSON-Schema-like parameter specification of a tool.
type ParameterSpec struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Descriptor describes one priced tool in the marketplace.
//
// The wire format carries only name, description and parameters; the price
// travels embedded in the description as "COSTS: <n> <CUR>". Price and
// Currency are the structured source the gateway prices challenges from and
// must round-trip exactly through the embedded text. Keeping the wire
// price inside free text is a fragile convention inherited from the
// protocol; it is preserved here for compatibility rather than endorsed.
type Descriptor struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Parameters  ParameterSpec `json:"parameters"`

	Price    string `json:"-"`
	Currency string `json:"-"`
}

// pricePattern matches the price token embedded in a tool description,
// e.g. "COSTS: 0.04 USDC per call". Case-insensitive; "COST:" also accepted.
var pricePattern = regexp.MustCompile(`(?i)COSTS?:\s*(\d+(?:\.\d+)?)\s*([A-Za-z]+)`)

// ParsePrice extracts the embedded price from a description.
// Returns the amount, the currency code, and false when no token is found.
func ParsePrice(description string) (amount float64, currency string, ok bool) {
	m := pricePattern.FindStringSubmatch(description)
	if m == nil {
		return 0, "", false
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", false
	}
	return amount, m[2], true
}

// PriceToken renders the machine-parsable price token for a descriptor.
func PriceToken(price, currency string) string {
	return fmt.Sprintf("COSTS: %s %s", price, currency)
}

// SchemaJSON returns the parameter specification as a raw JSON Schema
// document, suitable for compilation by a schema validator.
func (d Descriptor) SchemaJSON() (json.RawMessage, error) {
	data, err := json.Marshal(d.Parameters)
	if err != nil {
		return nil, fmt.Errorf("marshal schema for %q: %w", d.Name, err)
	}
	return data, nil
}

// Catalog is an immutable snapshot of the marketplace tool registry.
type Catalog struct {
	tools  []Descriptor
	byName map[string]Descriptor
}

// NewCatalog builds a catalog from descriptors. Names must be unique and
// every descriptor's embedded price token must round-trip to its structured
// price; both are construction-time invariants, not runtime leniencies.
func NewCatalog(tools []Descriptor) (*Catalog, error) {
	byName := make(map[string]Descriptor, len(tools))
	for _, t := range tools {
		if t.Name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if _, dup := byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", t.Name)
		}
		if t.Price != "" {
			embedded, cur, ok := ParsePrice(t.Description)
			if !ok {
				return nil, fmt.Errorf("tool %q: description missing %q token", t.Name, PriceToken(t.Price, t.Currency))
			}
			want, err := strconv.ParseFloat(t.Price, 64)
			if err != nil {
				return nil, fmt.Errorf("tool %q: invalid price %q: %w", t.Name, t.Price, err)
			}
			if embedded != want || cur != t.Currency {
				return nil, fmt.Errorf("tool %q: embedded price %v %s does not match %s %s",
					t.Name, embedded, cur, t.Price, t.Currency)
			}
		}
		byName[t.Name] = t
	}
	return &Catalog{tools: tools, byName: byName}, nil
}

// List returns all descriptors in registration order.
func (c *Catalog) List() []Descriptor {
	out := make([]Descriptor, len(c.tools))
	copy(out, c.tools)
	return out
}

// Get returns the descriptor for name, or false when unknown.
func (c *Catalog) Get(name string) (Descriptor, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// Names returns all tool identifiers in registration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.tools))
	for i, t := range c.tools {
		out[i] = t.Name
	}
	return out
}
