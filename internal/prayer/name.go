// Package prayer computes prayer windows, resolves the prayer in progress and
// records completion status.
package prayer

import (
	"fmt"
	"strings"
)

// Name identifies one of the five daily prayers.
type Name int

const (
	Fajr Name = iota
	Dhuhr
	Asr
	Maghrib
	Isha
)

// Names lists the prayers in the order they occur during a day.
var Names = [5]Name{Fajr, Dhuhr, Asr, Maghrib, Isha}

var nameKeys = [5]string{"fajr", "dhuhr", "asr", "maghrib", "isha"}

func (n Name) Valid() bool {
	return n >= Fajr && n <= Isha
}

// Key is the lowercase identifier used in storage and on the command line.
func (n Name) Key() string {
	if !n.Valid() {
		return fmt.Sprintf("prayer(%d)", int(n))
	}
	return nameKeys[n]
}

func (n Name) String() string {
	if !n.Valid() {
		return n.Key()
	}
	k := nameKeys[n]
	return strings.ToUpper(k[:1]) + k[1:]
}

// Next returns the prayer after n. Isha has no successor on the same day.
func (n Name) Next() (Name, bool) {
	if !n.Valid() || n == Isha {
		return 0, false
	}
	return n + 1, true
}

// ParseName accepts a prayer name in any case, plus the common "zuhr" spelling.
func ParseName(s string) (Name, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	switch k {
	case "zuhr", "dhuhur", "duhr":
		return Dhuhr, nil
	case "ishaa", "isha'a":
		return Isha, nil
	}
	for i, key := range nameKeys {
		if key == k {
			return Name(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown prayer %q", ErrInput, s)
}
