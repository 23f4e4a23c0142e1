package prayer

// Summary aggregates records over a period.
type Summary struct {
	Counts       map[Status]int
	Total        int
	Days         int
	MeanFraction *float64
}

// PrayedRatio is the share of expected prayers (five per day) that were performed.
func (s Summary) PrayedRatio() float64 {
	expected := s.Days * len(Names)
	if expected == 0 {
		return 0
	}
	done := s.Counts[Prayed] + s.Counts[Congregation] + s.Counts[Late]
	return float64(done) / float64(expected)
}

// Summarize counts records by status for the inclusive period from..to.
// Days without records still count towards the expected total.
func Summarize(from, to Date, records []Record) Summary {
	s := Summary{Counts: make(map[Status]int)}
	if !to.Before(from) {
		s.Days = from.DaysUntil(to) + 1
	}

	var sum float64
	var n int
	for _, r := range records {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		s.Counts[r.Status]++
		if r.Status != Empty {
			s.Total++
		}
		if r.Status == Prayed && r.WindowFraction != nil {
			sum += *r.WindowFraction
			n++
		}
	}
	if n > 0 {
		mean := sum / float64(n)
		s.MeanFraction = &mean
	}
	return s
}

// DayStatuses is one row of a calendar grid.
type DayStatuses struct {
	Date     Date
	Statuses [5]Status
}

// Prayed counts the prayers performed that day.
func (d DayStatuses) Prayed() int {
	n := 0
	for _, s := range d.Statuses {
		if s.HasPrayed() {
			n++
		}
	}
	return n
}

// DailyGrid lays records out per day from..to inclusive. Missing prayers are Empty.
func DailyGrid(from, to Date, records []Record) []DayStatuses {
	if to.Before(from) {
		return nil
	}
	days := make([]DayStatuses, from.DaysUntil(to)+1)
	for i := range days {
		days[i].Date = from.AddDays(i)
	}
	for _, r := range records {
		i := from.DaysUntil(r.Date)
		if i < 0 || i >= len(days) || !r.Name.Valid() {
			continue
		}
		days[i].Statuses[r.Name] = r.Status
	}
	return days
}
