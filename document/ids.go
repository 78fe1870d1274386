package document

import "github.com/google/uuid"

// IDSource allocates block and container ids plus the transient item tokens
// attached to projected list/quote items. One source belongs to one editing
// session; it is passed in explicitly rather than living in a global.
//
// Block and container ids are monotonically increasing and never reused.
// Item tokens are opaque: they are regenerated on every projection and only
// compared within a single edit transaction. The default token generator is
// a random UUID; tests may swap in a deterministic one.
type IDSource struct {
	next    int64
	ItemIDs func() string
}

// NewIDSource returns a source starting at 1 with UUID item tokens.
func NewIDSource() *IDSource {
	return &IDSource{ItemIDs: uuid.NewString}
}

// NextBlock allocates a fresh block id.
func (s *IDSource) NextBlock() BlockID {
	s.next++
	return BlockID(s.next)
}

// NextContainer allocates a fresh container id.
func (s *IDSource) NextContainer() ContainerID {
	s.next++
	return ContainerID(s.next)
}

// NextItem returns a fresh transient item token.
func (s *IDSource) NextItem() string {
	if s.ItemIDs == nil {
		return uuid.NewString()
	}
	return s.ItemIDs()
}

// Advance ensures future ids are strictly greater than min. Used when
// adopting a document whose ids were allocated elsewhere.
func (s *IDSource) Advance(min int64) {
	if s.next < min {
		s.next = min
	}
}
