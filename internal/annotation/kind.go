package annotation

import (
	"fmt"
	"strings"
)

// Kind identifies one of the recognized doc comment tags.
type Kind uint8

const (
	Given Kind = iota + 1
	When
	Then
	Transform
	BeforeSuite
	AfterSuite
	BeforeFeature
	AfterFeature
	BeforeScenario
	AfterScenario
	BeforeStep
	AfterStep
)

// Capability is the registry group a kind is routed to.
type Capability uint8

const (
	Definition Capability = iota + 1
	Transformation
	Hook
)

func (c Capability) String() string {
	switch c {
	case Definition:
		return "definition"
	case Transformation:
		return "transformation"
	case Hook:
		return "hook"
	default:
		return fmt.Sprintf("capability(%d)", uint8(c))
	}
}

type kindInfo struct {
	tag        string
	title      string
	capability Capability
}

// table is the closed tag vocabulary, in declaration order.
var table = [...]kindInfo{
	Given:          {"given", "Given", Definition},
	When:           {"when", "When", Definition},
	Then:           {"then", "Then", Definition},
	Transform:      {"transform", "Transform", Transformation},
	BeforeSuite:    {"beforesuite", "BeforeSuite", Hook},
	AfterSuite:     {"aftersuite", "AfterSuite", Hook},
	BeforeFeature:  {"beforefeature", "BeforeFeature", Hook},
	AfterFeature:   {"afterfeature", "AfterFeature", Hook},
	BeforeScenario: {"beforescenario", "BeforeScenario", Hook},
	AfterScenario:  {"afterscenario", "AfterScenario", Hook},
	BeforeStep:     {"beforestep", "BeforeStep", Hook},
	AfterStep:      {"afterstep", "AfterStep", Hook},
}

var byTag = func() map[string]Kind {
	m := make(map[string]Kind, len(table))
	for k := Given; k <= AfterStep; k++ {
		m[table[k].tag] = k
	}
	return m
}()

// Kinds returns all kinds in vocabulary order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(byTag))
	for k := Given; k <= AfterStep; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Names returns the lower-case tag names in vocabulary order.
func Names() []string {
	names := make([]string, 0, len(byTag))
	for _, k := range Kinds() {
		names = append(names, table[k].tag)
	}
	return names
}

// Lookup resolves a tag name, ignoring case.
func Lookup(name string) (Kind, bool) {
	k, ok := byTag[strings.ToLower(name)]
	return k, ok
}

// Valid reports whether k is one of the 12 vocabulary kinds.
func (k Kind) Valid() bool {
	return k >= Given && k <= AfterStep
}

// String returns the lower-case tag name.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return table[k].tag
}

// Title returns the display form of the tag, e.g. "BeforeScenario".
func (k Kind) Title() string {
	if !k.Valid() {
		return k.String()
	}
	return table[k].title
}

// Capability returns the registry group for k. Invalid kinds return 0.
func (k Kind) Capability() Capability {
	if !k.Valid() {
		return 0
	}
	return table[k].capability
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTag, uint8(k))
	}
	return []byte(table[k].tag), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	kind, ok := Lookup(string(text))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTag, text)
	}
	*k = kind
	return nil
}

func (c Capability) MarshalText() ([]byte, error) {
	if c < Definition || c > Hook {
		return nil, fmt.Errorf("unknown capability %d", uint8(c))
	}
	return []byte(c.String()), nil
}
