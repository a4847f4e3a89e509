// Package claims models the verified identity assertions attached to a request.
// A Set is an ordered multimap because a claim type may repeat (one value per
// group membership, for example).
package claims

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Claim is a single type/value assertion.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Set is an ordered collection of claims.
// The zero value is an empty, unauthenticated set.
type Set struct {
	claims []Claim
}

// New returns a Set holding the given claims in order.
func New(claims ...Claim) *Set {
	s := &Set{claims: make([]Claim, 0, len(claims))}
	s.claims = append(s.claims, claims...)
	return s
}

// Add appends a claim.
func (s *Set) Add(typ, value string) {
	s.claims = append(s.claims, Claim{Type: typ, Value: value})
}

// Len returns the number of claims. A nil Set has length zero.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.claims)
}

// IsAuthenticated reports whether the set carries any verified claim.
func (s *Set) IsAuthenticated() bool {
	return s.Len() > 0
}

// Has reports whether at least one claim of the given type exists.
func (s *Set) Has(typ string) bool {
	_, ok := s.First(typ)
	return ok
}

// First returns the first value recorded for typ.
func (s *Set) First(typ string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, c := range s.claims {
		if c.Type == typ {
			return c.Value, true
		}
	}
	return "", false
}

// All returns every value recorded for typ in assertion order.
// The result is never nil.
func (s *Set) All(typ string) []string {
	values := make([]string, 0)
	if s == nil {
		return values
	}
	for _, c := range s.claims {
		if c.Type == typ {
			values = append(values, c.Value)
		}
	}
	return values
}

// Claims returns a copy of the underlying claims.
func (s *Set) Claims() []Claim {
	if s == nil {
		return []Claim{}
	}
	out := make([]Claim, len(s.claims))
	copy(out, s.claims)
	return out
}

// Map groups the claims by type, preserving value order within a type.
func (s *Set) Map() map[string][]string {
	out := make(map[string][]string)
	if s == nil {
		return out
	}
	for _, c := range s.claims {
		out[c.Type] = append(out[c.Type], c.Value)
	}
	return out
}

// FromMap flattens a decoded JWT payload into a Set.
//
// Keys are visited in sorted order. Arrays contribute one claim per element
// in array order, scalars are formatted, nested objects are kept as compact JSON.
func FromMap(payload map[string]any) *Set {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := New()
	for _, k := range keys {
		switch v := payload[k].(type) {
		case nil:
			continue
		case []any:
			for _, item := range v {
				if item == nil {
					continue
				}
				s.Add(k, formatValue(item))
			}
		case []string:
			for _, item := range v {
				s.Add(k, item)
			}
		default:
			s.Add(k, formatValue(v))
		}
	}
	return s
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return fmt.Sprintf("%t", t)
	case float64:
		// JSON numbers decode as float64; keep integral values free of exponents.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
