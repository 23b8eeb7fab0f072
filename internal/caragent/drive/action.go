package drive

import (
	"errors"
	"fmt"
)

// Action is a motion command.
type Action string

const (
	ActionForward  Action = "forward"
	ActionBackward Action = "backward"
	ActionLeft     Action = "left"
	ActionRight    Action = "right"
	ActionStop     Action = "stop"
)

// ErrUnknownAction is returned for any name outside the five actions.
var ErrUnknownAction = errors.New("unknown action")

// directions is the wiring of each motion action onto the pair.
// Turns spin in place.
var directions = map[Action][2]Direction{
	ActionForward:  {DirectionForward, DirectionForward},
	ActionBackward: {DirectionReverse, DirectionReverse},
	ActionLeft:     {DirectionReverse, DirectionForward},
	ActionRight:    {DirectionForward, DirectionReverse},
}

// Actions lists every valid action.
func Actions() []Action {
	return []Action{ActionForward, ActionBackward, ActionLeft, ActionRight, ActionStop}
}

// ParseAction accepts exactly the lower-case action names.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

// Valid reports whether a is one of the five actions.
func (a Action) Valid() bool {
	if a == ActionStop {
		return true
	}
	_, ok := directions[a]
	return ok
}

// IsTurn reports whether a spins the car in place.
func (a Action) IsTurn() bool {
	return a == ActionLeft || a == ActionRight
}

// Directions returns the left and right directions for a motion action.
func (a Action) Directions() (left, right Direction, ok bool) {
	d, ok := directions[a]
	return d[0], d[1], ok
}
