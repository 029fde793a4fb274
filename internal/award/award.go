package award

import (
	"sort"
	"strings"
)

// Award is the credit granted for one accepted eco action.
type Award struct {
	Points int `json:"points"`
	CO2    int `json:"co2"`
}

// Defaults returns the built-in award table.
func Defaults() map[string]Award {
	return map[string]Award{
		"plant":     {Points: 10, CO2: 5},
		"clean":     {Points: 8, CO2: 2},
		"awareness": {Points: 5, CO2: 1},
	}
}

// Mapping resolves action tags to awards. It is built once at startup and
// never mutated afterwards.
type Mapping struct {
	awards map[string]Award
}

// New builds a mapping from an action table. Keys are lower-cased; a nil or
// empty table falls back to the defaults.
func New(awards map[string]Award) *Mapping {
	if len(awards) == 0 {
		awards = Defaults()
	}

	m := &Mapping{awards: make(map[string]Award, len(awards))}
	for action, a := range awards {
		m.awards[strings.ToLower(action)] = a
	}
	return m
}

// Lookup resolves an action tag, ignoring case. Unknown actions yield the
// zero award and false; they are not an error.
func (m *Mapping) Lookup(action string) (Award, bool) {
	a, ok := m.awards[strings.ToLower(action)]
	return a, ok
}

// Actions returns the known action tags in sorted order.
func (m *Mapping) Actions() []string {
	actions := make([]string, 0, len(m.awards))
	for action := range m.awards {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}
