package game

import (
	"encoding/json"
	"sort"

	"golang.org/x/exp/maps"
)

// Roster is a set of lower-cased player identifiers. It marshals as a sorted
// list so that persisted state stays stable across cycles.
type Roster map[string]struct{}

// NewRoster builds a roster from the given names.
func NewRoster(names ...string) Roster {
	r := Roster{}
	for _, n := range names {
		r[n] = struct{}{}
	}
	return r
}

func (r Roster) Has(name string) bool {
	_, ok := r[name]
	return ok
}

func (r Roster) Add(names ...string) {
	for _, n := range names {
		r[n] = struct{}{}
	}
}

func (r Roster) Remove(names ...string) {
	for _, n := range names {
		delete(r, n)
	}
}

func (r Roster) Len() int {
	return len(r)
}

// Names returns the members in sorted order.
func (r Roster) Names() []string {
	names := maps.Keys(r)
	sort.Strings(names)
	return names
}

func (r Roster) Copy() Roster {
	return maps.Clone(r)
}

func (r Roster) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Names())
}

func (r *Roster) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*r = NewRoster(names...)
	return nil
}
