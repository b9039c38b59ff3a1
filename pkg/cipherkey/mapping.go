package cipherkey

import "sort"

// DefaultUnknown is the letter reported for ids that are not in the key.
const DefaultUnknown = "?"

// Mapping is the inverted key: token id (as text) → plaintext letter.
type Mapping struct {
	letters map[string]string

	// seen records every letter an id was listed under, in key order.
	seen map[string][]string
}

// Collision describes an id listed under more than one letter.
// Letters is in key order; the last entry is the one the mapping keeps.
type Collision struct {
	ID      string
	Letters []string
}

// Invert builds the id → letter mapping from a key, walking letters in file
// order. An id listed under several letters silently resolves to the last.
func Invert(letters []LetterIDs) *Mapping {
	m := &Mapping{
		letters: make(map[string]string),
		seen:    make(map[string][]string),
	}
	for _, entry := range letters {
		for _, id := range entry.IDs {
			m.letters[id] = entry.Letter
			prev := m.seen[id]
			if len(prev) == 0 || prev[len(prev)-1] != entry.Letter {
				m.seen[id] = append(prev, entry.Letter)
			}
		}
	}
	return m
}

// Len returns the number of distinct ids.
func (m *Mapping) Len() int {
	return len(m.letters)
}

// Lookup returns the letter for a symbol and whether it is mapped.
func (m *Mapping) Lookup(symbol string) (string, bool) {
	l, ok := m.letters[symbol]
	return l, ok
}

// LetterOf returns the letter for a symbol, or unknown when it is not mapped.
func (m *Mapping) LetterOf(symbol, unknown string) string {
	if l, ok := m.letters[symbol]; ok {
		return l
	}
	return unknown
}

// IDs returns all mapped ids in sorted order.
func (m *Mapping) IDs() []string {
	ids := make([]string, 0, len(m.letters))
	for id := range m.letters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Collisions returns ids that were listed under more than one distinct
// letter, sorted by id. The mapping itself is not affected.
func (m *Mapping) Collisions() []Collision {
	var out []Collision
	for id, letters := range m.seen {
		if distinct(letters) > 1 {
			out = append(out, Collision{ID: id, Letters: append([]string(nil), letters...)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func distinct(s []string) int {
	set := make(map[string]struct{}, len(s))
	for _, v := range s {
		set[v] = struct{}{}
	}
	return len(set)
}
