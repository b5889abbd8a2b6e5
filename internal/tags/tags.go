// Package tags implements capability tags: counted markers on agents used
// for order eligibility and abort checks, tag requirement sets, and the
// change-listener plumbing that drives tag-gated order cancellation.
package tags

import (
	"sort"
	"strings"
)

// Tag is a single capability tag, namespaced with dots.
type Tag string

// Well-known tags referenced by the engine itself. Game content may define
// arbitrary additional tags; the engine only consumes them.
const (
	// Permanent status tags can never change at runtime, so no change
	// listeners are registered for them.
	StatusPermanent            Tag = "status.permanent"
	StatusPermanentCanAttack   Tag = "status.permanent.can_attack"
	StatusPermanentCanGather   Tag = "status.permanent.can_gather"
	StatusPermanentCanRepair   Tag = "status.permanent.can_repair"
	StatusPermanentMovable     Tag = "status.permanent.movable"
	StatusPermanentBuilding    Tag = "status.permanent.building"

	StatusChangingAlive        Tag = "status.changing.alive"
	StatusChangingImmobilized  Tag = "status.changing.immobilized"
	StatusChangingUnarmed      Tag = "status.changing.unarmed"
	StatusChangingConstructing Tag = "status.changing.constructing"
	StatusChangingInvulnerable Tag = "status.changing.invulnerable"
	StatusChangingStealthed    Tag = "status.changing.stealthed"
	StatusChangingDetector     Tag = "status.changing.detector"
	StatusChangingSilenced     Tag = "status.changing.silenced"

	RelationshipSelf     Tag = "relationship.self"
	RelationshipFriendly Tag = "relationship.friendly"
	RelationshipHostile  Tag = "relationship.hostile"
	RelationshipNeutral  Tag = "relationship.neutral"
	RelationshipVisible  Tag = "relationship.visible"

	// Error tags reported through ErrorTags.Errors rather than owned by
	// any agent.
	ErrorNoTarget     Tag = "error.no_target"
	ErrorOutOfRange   Tag = "error.out_of_range"
	ErrorUnknownOrder Tag = "error.unknown_order"
)

// IsPermanent reports whether the tag lives under the permanent status
// namespace and therefore cannot change at runtime.
func (t Tag) IsPermanent() bool {
	return t == StatusPermanent || strings.HasPrefix(string(t), string(StatusPermanent)+".")
}

// Set is an unordered collection of tags.
type Set map[Tag]struct{}

// NewSet builds a Set from the given tags.
func NewSet(ts ...Tag) Set {
	s := make(Set, len(ts))
	for _, t := range ts {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether the tag is in the set.
func (s Set) Has(t Tag) bool {
	_, ok := s[t]
	return ok
}

// HasAll reports whether every tag of other is in the set.
func (s Set) HasAll(other Set) bool {
	for t := range other {
		if !s.Has(t) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one tag of other is in the set.
func (s Set) HasAny(other Set) bool {
	for t := range other {
		if s.Has(t) {
			return true
		}
	}
	return false
}

// Add inserts a tag.
func (s Set) Add(t Tag) {
	s[t] = struct{}{}
}

// Merge inserts every tag of other.
func (s Set) Merge(other Set) {
	for t := range other {
		s[t] = struct{}{}
	}
}

// Union returns a new set containing the tags of both sets.
func Union(a, b Set) Set {
	out := make(Set, len(a)+len(b))
	out.Merge(a)
	out.Merge(b)
	return out
}

// Clone returns a copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	out.Merge(s)
	return out
}

// List returns the tags in sorted order, for stable output.
func (s Set) List() []Tag {
	out := make([]Tag, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s Set) String() string {
	parts := make([]string, 0, len(s))
	for _, t := range s.List() {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ", ")
}

// Requirements are the tag gates of an order: the order can only run when
// the source has all required and none of the blocked source tags, and the
// target has all required and none of the blocked target tags.
type Requirements struct {
	SourceRequired Set
	SourceBlocked  Set
	TargetRequired Set
	TargetBlocked  Set
}

// IsEmpty reports whether no requirement is set at all.
func (r Requirements) IsEmpty() bool {
	return len(r.SourceRequired) == 0 && len(r.SourceBlocked) == 0 &&
		len(r.TargetRequired) == 0 && len(r.TargetBlocked) == 0
}

// ErrorTags explains a failed requirement check in tag-kind buckets so
// callers can report why an order was rejected, not just that it was.
type ErrorTags struct {
	Missing  Set
	Blocking Set
	Errors   Set
}

// IsEmpty reports whether nothing was recorded.
func (e *ErrorTags) IsEmpty() bool {
	return len(e.Missing) == 0 && len(e.Blocking) == 0 && len(e.Errors) == 0
}

// AddError records a free-form error tag (e.g. "no target").
func (e *ErrorTags) AddError(t Tag) {
	if e.Errors == nil {
		e.Errors = NewSet()
	}
	e.Errors.Add(t)
}

func (e *ErrorTags) String() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+e.Missing.String())
	}
	if len(e.Blocking) > 0 {
		parts = append(parts, "blocking: "+e.Blocking.String())
	}
	if len(e.Errors) > 0 {
		parts = append(parts, "errors: "+e.Errors.String())
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "; ")
}

// Satisfies reports whether owned has all required and none of the blocked
// tags.
func Satisfies(owned, required, blocked Set) bool {
	if owned.HasAny(blocked) {
		return false
	}
	return owned.HasAll(required)
}

// SatisfiesExplain is Satisfies with a breakdown: missing required tags and
// present blocked tags are appended to errs. Unlike Satisfies it examines
// every tag so the caller gets the complete picture.
func SatisfiesExplain(owned, required, blocked Set, errs *ErrorTags) bool {
	ok := true
	for t := range required {
		if !owned.Has(t) {
			if errs.Missing == nil {
				errs.Missing = NewSet()
			}
			errs.Missing.Add(t)
			ok = false
		}
	}
	for t := range blocked {
		if owned.Has(t) {
			if errs.Blocking == nil {
				errs.Blocking = NewSet()
			}
			errs.Blocking.Add(t)
			ok = false
		}
	}
	return ok
}
