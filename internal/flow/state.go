package flow

import "fmt"

// State is the position of a session in the conversation.
type State int

const (
	StateStart State = iota
	StateAwaitingChoice
	StateScratchStart
	StateScratchAwaitData
	StateUploadAwaitFile
	StateUploadParsing
	StateReviewingData
	StateSelectingTemplate
	StateGeneratingOutput
)

var stateNames = [...]string{
	StateStart:             "START",
	StateAwaitingChoice:    "AWAITING_CHOICE",
	StateScratchStart:      "SCRATCH_START",
	StateScratchAwaitData:  "SCRATCH_AWAIT_DATA",
	StateUploadAwaitFile:   "UPLOAD_AWAIT_FILE",
	StateUploadParsing:     "UPLOAD_PARSING",
	StateReviewingData:     "REVIEWING_DATA",
	StateSelectingTemplate: "SELECTING_TEMPLATE",
	StateGeneratingOutput:  "GENERATING_OUTPUT",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// ParseState returns the state with the given name.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return StateStart, fmt.Errorf("unknown state %q", name)
}

func (s State) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stateNames) {
		return nil, fmt.Errorf("unknown state %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// transient states are only held while an external call is in flight.
func (s State) transient() bool {
	return s == StateUploadParsing || s == StateGeneratingOutput || s == StateScratchStart
}
