package order

import (
	"github.com/paulmach/orb"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/tags"
)

// TargetData is the resolved target of an order: the actor (if any), the
// effective location, and the target's tags merged with the relationship
// tags between source and target.
type TargetData struct {
	Actor    Agent
	Location orb.Point
	Tags     tags.Set
}

// RelationshipResolver classifies the relationship between two agents and
// answers visibility queries. The simulation implements it; replicas and
// tests may use NeutralRelationships.
type RelationshipResolver interface {
	// RelationshipTags returns the relationship classification between two
	// distinct agents, without the visibility tag.
	RelationshipTags(source, target Agent) tags.Set

	// Visible reports whether source currently sees target, accounting for
	// stealth and detection.
	Visible(source, target Agent) bool
}

// NeutralRelationships treats every pair of distinct agents as neutral and
// mutually visible.
type NeutralRelationships struct{}

func (NeutralRelationships) RelationshipTags(source, target Agent) tags.Set {
	return tags.NewSet(tags.RelationshipNeutral)
}

func (NeutralRelationships) Visible(source, target Agent) bool { return true }

// relationshipTags resolves the relationship between source and target. An
// agent targeting itself is self, friendly and always visible; otherwise
// the resolver decides, with an external visibility check layered on top.
func relationshipTags(rel RelationshipResolver, source, target Agent) tags.Set {
	if target == nil {
		return tags.NewSet(tags.RelationshipNeutral)
	}
	if source != nil && source.ID() == target.ID() {
		return tags.NewSet(tags.RelationshipSelf, tags.RelationshipFriendly, tags.RelationshipVisible)
	}

	var out tags.Set
	if rel != nil {
		out = rel.RelationshipTags(source, target).Clone()
	} else {
		out = tags.NewSet(tags.RelationshipNeutral)
	}
	if rel == nil || rel.Visible(source, target) {
		out.Add(tags.RelationshipVisible)
	}
	return out
}

// BuildTargetData resolves a descriptor's target against the world. For an
// actor target the location snaps to the actor and the tag set is the
// actor's own tags plus relationship tags.
func BuildTargetData(rel RelationshipResolver, source, target Agent, location orb.Point) TargetData {
	td := TargetData{Location: location}
	if target == nil {
		return td
	}

	td.Actor = target
	td.Location = target.Location()
	td.Tags = target.Tags().Owned()
	td.Tags.Merge(relationshipTags(rel, source, target))
	return td
}

// AgentResolver looks up live agents by ID. The simulation world
// implements it.
type AgentResolver interface {
	AgentByID(id domain.AgentID) Agent
}
