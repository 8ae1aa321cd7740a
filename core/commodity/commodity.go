package commodity

import (
	"fmt"
	"strings"
)

// Commodity identifies one tracked kind of energy quantity.
type Commodity int

const (
	ActivePower Commodity = iota
	ReactivePower
	HotWaterPower
	DomesticHotWaterPower
	HeatingHotWaterPower
	NaturalGasPower
	ColdWaterPower

	// Count is the number of known commodities. It must stay last.
	Count
)

var names = [Count]string{
	ActivePower:           "activepower",
	ReactivePower:         "reactivepower",
	HotWaterPower:         "hotwaterpower",
	DomesticHotWaterPower: "domestichotwaterpower",
	HeatingHotWaterPower:  "heatinghotwaterpower",
	NaturalGasPower:       "naturalgaspower",
	ColdWaterPower:        "coldwaterpower",
}

// All returns every commodity in ordinal order.
func All() []Commodity {
	out := make([]Commodity, Count)
	for i := range out {
		out[i] = Commodity(i)
	}
	return out
}

// Valid reports whether c is a known commodity.
func (c Commodity) Valid() bool { return c >= 0 && c < Count }

// String returns the lower-case name used in configuration files.
func (c Commodity) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return names[c]
}

// IsElectrical reports whether c carries a voltage auxiliary value.
func (c Commodity) IsElectrical() bool {
	return c == ActivePower || c == ReactivePower
}

// IsThermal reports whether c carries temperature and mass flow.
func (c Commodity) IsThermal() bool {
	return c.Valid() && !c.IsElectrical()
}

// Parse resolves a commodity from its configuration name.
func Parse(s string) (Commodity, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == key {
			return Commodity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown commodity %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Commodity) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid commodity %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Commodity) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Electrical returns the electrical commodities.
func Electrical() []Commodity { return []Commodity{ActivePower, ReactivePower} }
