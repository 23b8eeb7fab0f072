package core

import "context"

// Signaler renders status events. Signal returns once any inline pattern has
// been shown; looping patterns keep running in the background until the next
// Signal or Off.
type Signaler interface {
	Signal(ctx context.Context, ev Event)
	Off()
}
