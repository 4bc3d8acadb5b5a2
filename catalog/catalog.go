package catalog

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Extension is the canonical migration unit file extension, without the dot.
const Extension = "sql"

var ErrInvalidName = errors.New("invalid migration name")

// reservedNames are non-unit artifacts that conventionally live next to
// migration files and must never be picked up as units.
var reservedNames = map[string]struct{}{
	"schema": {},
	"seed":   {},
}

// Entry is one catalog position: a unit base name and its numeric ordinal.
type Entry struct {
	Ordinal int64
	Name    string
}

// ParseName extracts the ordinal from a unit base name of the form
// <ordinal>_<description>. The description part is optional.
func ParseName(base string) (int64, error) {
	seg := base
	if i := strings.Index(base, "_"); i >= 0 {
		seg = base[:i]
	}

	ordinal, err := strconv.ParseInt(seg, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidName, "cannot parse ordinal from [%s]", base)
	}

	if ordinal < 0 {
		return 0, errors.Wrapf(ErrInvalidName, "negative ordinal in [%s]", base)
	}

	return ordinal, nil
}

// ListOrdered filters raw artifact names down to migration units and returns
// them in canonical order: ascending by ordinal, ties broken by full name.
// Names with a foreign extension or a reserved base name are dropped
// silently; a candidate whose ordinal does not parse is an error, never a
// silent skip.
func ListOrdered(names []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(names))

	for _, raw := range names {
		base, ok := splitUnitName(raw)
		if !ok {
			continue
		}

		ordinal, err := ParseName(base)
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{Ordinal: ordinal, Name: base})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Ordinal != entries[j].Ordinal {
			return entries[i].Ordinal < entries[j].Ordinal
		}

		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

// splitUnitName returns the base name of a unit artifact, or false when the
// raw name is not a unit candidate at all.
func splitUnitName(raw string) (string, bool) {
	i := strings.LastIndex(raw, ".")
	if i < 0 {
		return "", false
	}

	base, ext := raw[:i], raw[i+1:]
	if ext != Extension {
		return "", false
	}

	if _, reserved := reservedNames[base]; reserved {
		return "", false
	}

	return base, true
}
