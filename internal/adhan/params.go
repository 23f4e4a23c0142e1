package adhan

import "github.com/sadopc/salah/internal/prayer"

// Al Adhan method ids. See https://aladhan.com/calculation-methods.
var methodIDs = map[prayer.Method]int{
	prayer.Karachi:               1,
	prayer.NorthAmerica:          2,
	prayer.MuslimWorldLeague:     3,
	prayer.UmmAlQura:             4,
	prayer.Egyptian:              5,
	prayer.Kuwait:                9,
	prayer.Qatar:                 10,
	prayer.Singapore:             11,
	prayer.MoonsightingCommittee: 15,
	prayer.Dubai:                 16,
}

func methodID(m prayer.Method) (int, bool) {
	id, ok := methodIDs[m]
	return id, ok
}

func schoolID(m prayer.Madhab) int {
	if m == prayer.Hanafi {
		return 1
	}
	return 0
}

func latitudeAdjustment(r prayer.HighLatitudeRule) int {
	switch r {
	case prayer.SeventhOfTheNight:
		return 2
	case prayer.TwilightAngle:
		return 3
	}
	return 1
}
