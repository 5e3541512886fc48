package classify

// Category is the single classification a date receives. Exactly one
// category applies per date; the rule chain order guarantees it.
type Category int

const (
	Weekend Category = iota
	Sick
	Vacation
	HolidayDay
	HolidayEve
	Office
	Home
)

var categoryNames = map[Category]string{
	Weekend:    "weekend",
	Sick:       "sick",
	Vacation:   "vacation",
	HolidayDay: "holiday",
	HolidayEve: "holiday-eve",
	Office:     "office",
	Home:       "home",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// HasWorkTimes reports whether the category carries a begin/end time pair.
// Absence categories only record an excuse.
func (c Category) HasWorkTimes() bool {
	return c == Office || c == Home
}
