package machine

// State is a node of the machine's control loop.
type State int

const (
	StateGreeting State = iota
	StateMenuDisplay
	StateAwaitingInput
	StateProductFlow
	StateCommandFlow
	StateInvalidFlow
	StateExitRequested
	StateExhausted
	StateShutdown
)

var stateNames = [...]string{
	StateGreeting:      "greeting",
	StateMenuDisplay:   "menu_display",
	StateAwaitingInput: "awaiting_input",
	StateProductFlow:   "product_flow",
	StateCommandFlow:   "command_flow",
	StateInvalidFlow:   "invalid_flow",
	StateExitRequested: "exit_requested",
	StateExhausted:     "exhausted",
	StateShutdown:      "shutdown",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether the state ends the session.
func (s State) Terminal() bool {
	return s == StateExitRequested || s == StateExhausted || s == StateShutdown
}
