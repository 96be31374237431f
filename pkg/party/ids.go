package party

import (
	"slices"
	"strings"
)

// IDSlice is a list of participant ids.
type IDSlice []ID

// NewIDSlice returns a sorted copy of ids.
func NewIDSlice(ids []ID) IDSlice {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}

// Len, Less and Swap implement sort.Interface.
func (ids IDSlice) Len() int           { return len(ids) }
func (ids IDSlice) Less(i, j int) bool { return ids[i] < ids[j] }
func (ids IDSlice) Swap(i, j int)      { ids[i], ids[j] = ids[j], ids[i] }

// Sorted returns a sorted copy, leaving the receiver untouched.
func (ids IDSlice) Sorted() IDSlice {
	return NewIDSlice(ids)
}

// Copy returns an identical copy of the receiver.
func (ids IDSlice) Copy() IDSlice {
	return slices.Clone(ids)
}

// Contains reports whether every given id is present.
func (ids IDSlice) Contains(others ...ID) bool {
	for _, o := range others {
		if !slices.Contains(ids, o) {
			return false
		}
	}
	return true
}

// Duplicates returns the ids appearing more than once, in ascending order.
func (ids IDSlice) Duplicates() IDSlice {
	seen := make(map[ID]int, len(ids))
	for _, id := range ids {
		seen[id]++
	}
	var dup IDSlice
	for id, n := range seen {
		if n > 1 {
			dup = append(dup, id)
		}
	}
	slices.Sort(dup)
	return dup
}

// Valid reports whether the ids are pairwise distinct and all positive.
func (ids IDSlice) Valid() bool {
	for _, id := range ids {
		if !id.Valid() {
			return false
		}
	}
	return len(ids.Duplicates()) == 0
}

// Remove returns a copy without id.
func (ids IDSlice) Remove(id ID) IDSlice {
	out := make(IDSlice, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (ids IDSlice) String() string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	return strings.Join(s, ",")
}

// ParseList reads a comma separated list of ids.
func ParseList(s string) (IDSlice, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make(IDSlice, 0, len(parts))
	for _, p := range parts {
		id, err := Parse(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
