package topic

import (
	"fmt"
)

// Wildcard is the single-level MQTT wildcard.
const Wildcard = "+"

// Builder constructs topics of the form {root}/{segment}/{deviceID}.
type Builder struct {
	root string
}

// NewBuilder creates a Builder rooted at root (e.g. "bcicar/v1").
func NewBuilder(root string) *Builder {
	return &Builder{root: root}
}

// Build returns the topic for segment and id.
func (b *Builder) Build(segment, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, segment, id)
}

// Wildcard returns the topic filter matching segment for every device.
func (b *Builder) Wildcard(segment string) string {
	return b.Build(segment, Wildcard)
}
