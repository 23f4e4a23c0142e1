package prayer

import (
	"fmt"
	"strings"
)

// Status is the completion state of a single prayer on a single day.
type Status int

const (
	Empty Status = iota
	Prayed
	Congregation
	Late
	Missed
)

// Statuses lists the settable statuses in the order they are offered to users.
var Statuses = []Status{Prayed, Congregation, Late, Missed, Empty}

// statusCodes is the storage encoding of Status. Schema v1; codes must never
// be renumbered, only appended to.
var statusCodes = []struct {
	status Status
	code   int
}{
	{Prayed, 0},
	{Congregation, 1},
	{Late, 2},
	{Missed, 3},
	{Empty, 4},
}

// Code returns the stored integer for s.
func (s Status) Code() int {
	for _, sc := range statusCodes {
		if sc.status == s {
			return sc.code
		}
	}
	return statusCodes[0].code
}

// StatusFromCode decodes a stored status. Unknown codes decode to the first
// entry of the table and report ok=false so the caller can log them.
func StatusFromCode(code int) (Status, bool) {
	for _, sc := range statusCodes {
		if sc.code == code {
			return sc.status, true
		}
	}
	return statusCodes[0].status, false
}

var statusKeys = map[Status]string{
	Empty:        "empty",
	Prayed:       "prayed",
	Congregation: "congregation",
	Late:         "late",
	Missed:       "missed",
}

var statusLabels = map[Status]string{
	Empty:        "Not set",
	Prayed:       "Prayed",
	Congregation: "In congregation",
	Late:         "Late",
	Missed:       "Missed",
}

func (s Status) Valid() bool {
	_, ok := statusKeys[s]
	return ok
}

func (s Status) String() string {
	if k, ok := statusKeys[s]; ok {
		return k
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Label is the human readable form shown in the UI.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return s.String()
}

// HasPrayed reports whether s counts as the prayer having been performed.
func (s Status) HasPrayed() bool {
	return s == Prayed || s == Congregation || s == Late
}

// ParseStatus accepts the storage keys and a few spoken aliases.
func ParseStatus(v string) (Status, error) {
	k := strings.ToLower(strings.TrimSpace(v))
	switch k {
	case "jamaah", "jamaat", "jama'ah", "group":
		return Congregation, nil
	case "unset", "none", "clear", "":
		return Empty, nil
	case "ontime", "on-time", "done":
		return Prayed, nil
	}
	for s, key := range statusKeys {
		if key == k {
			return s, nil
		}
	}
	return Empty, fmt.Errorf("%w: unknown status %q", ErrInput, v)
}

// Toggle returns the status to record when the user picks chosen while the
// prayer is already at current: picking the same status again clears it.
func Toggle(current, chosen Status) Status {
	if current == chosen {
		return Empty
	}
	return chosen
}
