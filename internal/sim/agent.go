package sim

import (
	"github.com/paulmach/orb"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/tags"
)

// AgentConfig describes a unit to spawn.
type AgentConfig struct {
	ID       domain.AgentID
	Faction  string
	Location orb.Point

	Health    float64
	MoveSpeed float64

	AttackRange       float64
	AcquisitionRadius float64
	ChaseDistance     float64
	FormationRank     int

	// Tags beyond status.changing.alive the unit starts with.
	Tags []tags.Tag

	// AutoOrders lists the order slots this unit can run automatically.
	AutoOrders []domain.OrderSlot

	// HumanControlled picks human auto-order semantics (initial state per
	// order, toggleable) over AI semantics (always on).
	HumanControlled bool
}

// Agent is a simulated unit: a tag container, a position, and the combat
// stats the execution strategies read through interface assertions.
type Agent struct {
	id      domain.AgentID
	faction string
	loc     orb.Point
	tagc    *tags.Counter

	health    float64
	maxHealth float64
	moveSpeed float64

	attackRange       float64
	acquisitionRadius float64
	chaseDistance     float64
	formationRank     int

	autoOrders []domain.OrderSlot
	human      bool
}

func newAgent(cfg AgentConfig) *Agent {
	initial := append([]tags.Tag{tags.StatusChangingAlive}, cfg.Tags...)
	return &Agent{
		id:                cfg.ID,
		faction:           cfg.Faction,
		loc:               cfg.Location,
		tagc:              tags.NewCounter(initial...),
		health:            cfg.Health,
		maxHealth:         cfg.Health,
		moveSpeed:         cfg.MoveSpeed,
		attackRange:       cfg.AttackRange,
		acquisitionRadius: cfg.AcquisitionRadius,
		chaseDistance:     cfg.ChaseDistance,
		formationRank:     cfg.FormationRank,
		autoOrders:        append([]domain.OrderSlot(nil), cfg.AutoOrders...),
		human:             cfg.HumanControlled,
	}
}

func (a *Agent) ID() domain.AgentID  { return a.id }
func (a *Agent) Location() orb.Point { return a.loc }
func (a *Agent) Tags() *tags.Counter { return a.tagc }
func (a *Agent) Faction() string     { return a.faction }
func (a *Agent) Health() float64     { return a.health }
func (a *Agent) MaxHealth() float64  { return a.maxHealth }

func (a *Agent) Alive() bool { return a.tagc.Has(tags.StatusChangingAlive) }

func (a *Agent) SetLocation(p orb.Point) { a.loc = p }
func (a *Agent) MoveSpeed() float64      { return a.moveSpeed }

func (a *Agent) AttackRange() float64       { return a.attackRange }
func (a *Agent) AcquisitionRadius() float64 { return a.acquisitionRadius }
func (a *Agent) ChaseDistance() float64     { return a.chaseDistance }
func (a *Agent) FormationRank() int         { return a.formationRank }

// AutoOrderProviders returns the order slots this unit evaluates
// automatically, gathered once at spawn.
func (a *Agent) AutoOrderProviders() []domain.OrderSlot {
	return append([]domain.OrderSlot(nil), a.autoOrders...)
}

// ApplyDamage reduces health. At zero the alive tag drops through the tag
// container, which is what aborts any order that required it.
func (a *Agent) ApplyDamage(amount float64) {
	if a.health <= 0 {
		return
	}
	a.health -= amount
	if a.health <= 0 {
		a.health = 0
		a.tagc.SetPresent(tags.StatusChangingAlive, false)
	}
}
