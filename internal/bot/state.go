// internal/bot/state.go
//
// States of the quiz bot and the owner commands that can force a transition.

package bot

import "strings"

// State is a state of the quiz state machine.
type State int

const (
	StateStart State = iota
	StateNewRound
	StateNewClue
	StateWait
	StateCheckResponses
	StateSolutionFound
	StateFinishRound
	StateFinishExecution
)

var stateNames = [...]string{
	StateStart:           "START",
	StateNewRound:        "NEW_ROUND",
	StateNewClue:         "NEW_CLUE",
	StateWait:            "WAIT",
	StateCheckResponses:  "CHECK_RESPONSES",
	StateSolutionFound:   "SOLUTION_FOUND",
	StateFinishRound:     "FINISH_ROUND",
	StateFinishExecution: "FINISH_EXECUTION",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Terminal reports whether the machine stops in s.
func (s State) Terminal() bool { return s == StateFinishExecution }

// Command is an owner instruction that overrides the normal flow.
type Command int

const (
	CommandNone Command = iota
	CommandDie
	CommandSolutionFound
	CommandFinish
	CommandNext
)

// commandTokens are matched in this order; the first hit wins.
var commandTokens = []struct {
	token string
	name  string
	cmd   Command
	next  State
}{
	{`\die`, "die", CommandDie, StateFinishExecution},
	{`\solution_found`, "solution_found", CommandSolutionFound, StateSolutionFound},
	{`\finish`, "finish", CommandFinish, StateFinishRound},
	{`\next`, "next", CommandNext, StateNewClue},
}

func (c Command) String() string {
	for _, t := range commandTokens {
		if t.cmd == c {
			return t.name
		}
	}
	return "none"
}

// Target is the state a command moves the machine to.
func (c Command) Target() State {
	for _, t := range commandTokens {
		if t.cmd == c {
			return t.next
		}
	}
	return StateWait
}

// priority ranks c by its position in commandTokens; lower wins.
func (c Command) priority() int {
	for i, t := range commandTokens {
		if t.cmd == c {
			return i
		}
	}
	return len(commandTokens)
}

// strongest returns the highest priority command of cmds, or CommandNone.
func strongest(cmds []Command) Command {
	best := CommandNone
	for _, c := range cmds {
		if c != CommandNone && c.priority() < best.priority() {
			best = c
		}
	}
	return best
}

// ParseCommand finds an owner command token embedded in text.
func ParseCommand(text string) (Command, bool) {
	for _, t := range commandTokens {
		if strings.Contains(text, t.token) {
			return t.cmd, true
		}
	}
	return CommandNone, false
}

// CommandByName resolves "die", "solution_found", "finish" or "next".
func CommandByName(name string) (Command, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range commandTokens {
		if t.name == name {
			return t.cmd, true
		}
	}
	return CommandNone, false
}
