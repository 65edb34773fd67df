package predictor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxTableBits bounds every configurable history or index width.
const MaxTableBits = 30

// ErrUnknownScheme is returned when a scheme name cannot be recognized.
var ErrUnknownScheme = errors.New("unknown prediction scheme")

// Scheme selects the prediction algorithm.
type Scheme int

// Supported schemes.
const (
	Static Scheme = iota
	Gshare
	Tournament
	Custom
)

var schemeNames = [...]string{"Static", "Gshare", "Tournament", "Custom"}

// String returns the display name of the scheme.
func (s Scheme) String() string {
	if s < 0 || int(s) >= len(schemeNames) {
		return "Scheme(" + strconv.Itoa(int(s)) + ")"
	}
	return schemeNames[s]
}

// Known reports whether s names one of the supported schemes.
func (s Scheme) Known() bool {
	return s >= Static && s <= Custom
}

// MarshalText encodes the scheme as its lower-case name.
func (s Scheme) MarshalText() ([]byte, error) {
	if !s.Known() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScheme, int(s))
	}
	return []byte(strings.ToLower(s.String())), nil
}

// UnmarshalText decodes a scheme name, case-insensitively.
func (s *Scheme) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range schemeNames {
		if strings.ToLower(n) == name {
			*s = Scheme(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownScheme, string(text))
}

// Config holds configuration for a predictor.
type Config struct {
	// Scheme selects the prediction algorithm.
	Scheme Scheme `json:"scheme" yaml:"scheme"`

	// GHistoryBits is the number of global history bits. It also sets the
	// size of the Gshare table and of the Tournament global and choice
	// tables. Default: 14.
	GHistoryBits uint `json:"ghistory_bits" yaml:"ghistory_bits"`

	// LHistoryBits is the number of local history bits used by the
	// Tournament local table. Default: 10.
	LHistoryBits uint `json:"lhistory_bits" yaml:"lhistory_bits"`

	// PCIndexBits is the number of PC bits selecting a Tournament local
	// history register. Default: 10.
	PCIndexBits uint `json:"pc_index_bits" yaml:"pc_index_bits"`
}

// DefaultConfig returns a Gshare configuration with the classic sizes.
func DefaultConfig() Config {
	return Config{
		Scheme:       Gshare,
		GHistoryBits: 14,
		LHistoryBits: 10,
		PCIndexBits:  10,
	}
}

// Validate checks that the widths used by the selected scheme are usable.
// Static and Custom ignore the width fields.
func (c Config) Validate() error {
	switch c.Scheme {
	case Static, Custom:
		return nil
	case Gshare:
		return checkBits("ghistory_bits", c.GHistoryBits)
	case Tournament:
		if err := checkBits("ghistory_bits", c.GHistoryBits); err != nil {
			return err
		}
		if err := checkBits("lhistory_bits", c.LHistoryBits); err != nil {
			return err
		}
		return checkBits("pc_index_bits", c.PCIndexBits)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownScheme, int(c.Scheme))
	}
}

func checkBits(name string, bits uint) error {
	if bits == 0 || bits > MaxTableBits {
		return fmt.Errorf("%s must be in 1..%d, got %d", name, MaxTableBits, bits)
	}
	return nil
}

// String renders the configuration in the form accepted by ParseScheme.
func (c Config) String() string {
	switch c.Scheme {
	case Gshare:
		return fmt.Sprintf("gshare:%d", c.GHistoryBits)
	case Tournament:
		return fmt.Sprintf("tournament:%d:%d:%d",
			c.GHistoryBits, c.LHistoryBits, c.PCIndexBits)
	case Static, Custom:
		return strings.ToLower(c.Scheme.String())
	default:
		return c.Scheme.String()
	}
}

// ParseScheme parses a scheme argument of the form
//
//	static
//	gshare[:<ghistory>]
//	tournament[:<ghistory>:<lhistory>:<pcindex>]
//	custom
//
// Omitted widths take their DefaultConfig values. A leading "--" is
// accepted so that classic driver arguments such as "--gshare:13" parse.
func ParseScheme(arg string) (Config, error) {
	config := DefaultConfig()

	fields := strings.Split(strings.TrimPrefix(strings.TrimSpace(arg), "--"), ":")
	if err := config.Scheme.UnmarshalText([]byte(fields[0])); err != nil {
		return Config{}, err
	}
	widths := fields[1:]

	var targets []*uint
	switch config.Scheme {
	case Gshare:
		targets = []*uint{&config.GHistoryBits}
	case Tournament:
		targets = []*uint{&config.GHistoryBits, &config.LHistoryBits, &config.PCIndexBits}
	}

	if len(widths) > len(targets) {
		return Config{}, fmt.Errorf("scheme %q takes at most %d widths, got %d",
			fields[0], len(targets), len(widths))
	}

	for i, w := range widths {
		v, err := strconv.ParseUint(w, 10, 8)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse width %q: %w", w, err)
		}
		*targets[i] = uint(v)
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid scheme %q: %w", arg, err)
	}

	return config, nil
}
