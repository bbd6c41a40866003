package intel

import (
	"encoding/json"
	"sort"
)

// MarshalJSON encodes the set as sorted string lists per category, which is
// both the outward API shape and the storage representation.
func (s Set) MarshalJSON() ([]byte, error) {
	out := make(map[Category][]string, len(s))
	for cat, values := range s {
		list := make([]string, 0, len(values))
		for v := range values {
			list = append(list, v)
		}
		sort.Strings(list)
		out[cat] = list
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the per-category list form back into a set.
func (s *Set) UnmarshalJSON(data []byte) error {
	var in map[Category][]string
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	set := NewSet()
	for cat, list := range in {
		for _, v := range list {
			set.Add(cat, v)
		}
	}
	*s = set
	return nil
}
