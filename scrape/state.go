package scrape

import "fmt"

// State is a step of the pagination loop.
type State int

const (
	StateInit State = iota
	StateTabSearch
	StateLoading
	StateExtracting
	StateDeciding
	StateAdvancing
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateInit:       "init",
	StateTabSearch:  "tab_search",
	StateLoading:    "loading",
	StateExtracting: "extracting",
	StateDeciding:   "deciding",
	StateAdvancing:  "advancing",
	StateDone:       "done",
	StateFailed:     "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether the loop stops in this state.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
