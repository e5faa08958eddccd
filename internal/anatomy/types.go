package anatomy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type is the anatomical category of an observation.
type Type int

const (
	Other Type = iota
	Genitalia
	Anus
	Breast
	Nipple
	Buttocks
)

// AllTypes lists every Type in declaration order.
var AllTypes = []Type{Other, Genitalia, Anus, Breast, Nipple, Buttocks}

var typeNames = map[Type]string{
	Other:     "OTHER",
	Genitalia: "GENITALIA",
	Anus:      "ANUS",
	Breast:    "BREAST",
	Nipple:    "NIPPLE",
	Buttocks:  "BUTTOCKS",
}

// String returns the upper-case name of the type, e.g. "GENITALIA".
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// MarshalText encodes the type by name so it can be used as a JSON value or map key.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name. Unknown names decode to Other.
func (t *Type) UnmarshalText(text []byte) error {
	name := strings.ToUpper(strings.TrimSpace(string(text)))
	for k, v := range typeNames {
		if v == name {
			*t = k
			return nil
		}
	}
	*t = Other
	return nil
}

// ParseType returns the type with the given name (case-insensitive).
func ParseType(name string) (Type, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for k, v := range typeNames {
		if v == upper {
			return k, nil
		}
	}
	return Other, fmt.Errorf("unknown anatomical type: %q", name)
}

// keywordRule is one row of the label classification table.
type keywordRule struct {
	typ      Type
	keywords []string
}

// classificationTable is evaluated top to bottom; the first hit wins.
var classificationTable = []keywordRule{
	{Genitalia, []string{"GENITALIA", "GENITAL"}},
	{Anus, []string{"ANUS"}},
	{Nipple, []string{"NIPPLE"}},
	{Breast, []string{"BREAST"}},
	{Buttocks, []string{"BUTTOCK"}},
}

// Classify maps a raw model label to a Type.
//
// Matching is a case-insensitive substring test against the ordered keyword
// table documented on the package. Labels such as "FEMALE_GENITALIA_EXPOSED"
// or "buttocks_covered" classify by the keyword they contain; anything
// unrecognized, including the empty string, is Other.
func Classify(label string) Type {
	upper := strings.ToUpper(label)
	for _, rule := range classificationTable {
		for _, kw := range rule.keywords {
			if strings.Contains(upper, kw) {
				return rule.typ
			}
		}
	}
	return Other
}

// SeverityWeight returns the fixed weight of the type in [0,1].
func (t Type) SeverityWeight() float64 {
	switch t {
	case Genitalia, Anus:
		return 1.0
	case Nipple:
		return 0.7
	case Buttocks:
		return 0.6
	case Breast:
		return 0.5
	default:
		return 0.3
	}
}

// ThresholdMultiplier returns the factor applied to the base threshold to get
// the minimum score accepted for this type.
func (t Type) ThresholdMultiplier() float64 {
	switch t {
	case Genitalia, Anus:
		return 0.3
	case Nipple:
		return 0.4
	case Breast:
		return 0.3
	case Buttocks:
		return 0.35
	default:
		return 0.5
	}
}

// Critical reports whether the type is always explicit (GENITALIA or ANUS).
func (t Type) Critical() bool {
	return t == Genitalia || t == Anus
}

// Sensitive reports whether observations of this type are redacted.
func (t Type) Sensitive() bool {
	return t != Other
}

// TypeSet is an unordered set of types.
type TypeSet map[Type]struct{}

// NewTypeSet builds a set from the given types.
func NewTypeSet(types ...Type) TypeSet {
	s := make(TypeSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// Add inserts t into the set.
func (s TypeSet) Add(t Type) {
	s[t] = struct{}{}
}

// Has reports whether t is in the set.
func (s TypeSet) Has(t Type) bool {
	_, ok := s[t]
	return ok
}

// HasCritical reports whether the set holds GENITALIA or ANUS.
func (s TypeSet) HasCritical() bool {
	return s.Has(Genitalia) || s.Has(Anus)
}

// Sorted returns the members in declaration order.
func (s TypeSet) Sorted() []Type {
	out := make([]Type, 0, len(s))
	for _, t := range AllTypes {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Clone returns an independent copy of the set.
func (s TypeSet) Clone() TypeSet {
	c := make(TypeSet, len(s))
	for t := range s {
		c[t] = struct{}{}
	}
	return c
}

// MarshalJSON encodes the set as a sorted list of names.
func (s TypeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a list of names.
func (s *TypeSet) UnmarshalJSON(data []byte) error {
	var types []Type
	if err := json.Unmarshal(data, &types); err != nil {
		return err
	}
	*s = NewTypeSet(types...)
	return nil
}
