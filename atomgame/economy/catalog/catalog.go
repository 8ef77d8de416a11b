// Package catalog holds the immutable economy definitions: the research
// complexes a player can build and the boosters they can activate. Lookups
// are pure and safe for concurrent use.
package catalog

import (
	"sort"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/economy"
	"github.com/sahilm/fuzzy"
)

// Archetype describes what a complex actually does. Exactly one variant is
// attached to every complex config; the production aggregator resolves them
// through a single exhaustive type switch.
type Archetype interface {
	archetype()
}

// ProducerConfig generates a resource directly: rate = BaseRate × level.
type ProducerConfig struct {
	Resource economy.Resource
	BaseRate float64
}

// MultiplierConfig boosts the output of a target resource class instead of
// producing anything itself: +PerLevel × level. Target may be ResourceAll.
type MultiplierConfig struct {
	Target   economy.Resource
	PerLevel float64
}

// ClickBoostConfig raises the value of manual clicks: +PerLevel × level.
type ClickBoostConfig struct {
	PerLevel float64
}

// PeriodicConfig grants a bonus to all resources every Interval. The
// aggregator amortizes it into a passive rate; rarity factors scale the
// neutron and particle shares down.
type PeriodicConfig struct {
	Interval      time.Duration
	BonusPerLevel float64
}

// AutoClickerConfig performs clicks on the player's behalf.
type AutoClickerConfig struct {
	ClicksPerSecond float64
}

func (ProducerConfig) archetype()    {}
func (MultiplierConfig) archetype()  {}
func (ClickBoostConfig) archetype()  {}
func (PeriodicConfig) archetype()    {}
func (AutoClickerConfig) archetype() {}

// Prerequisite gates a purchase or activation on another complex's level.
type Prerequisite struct {
	Complex string
	Level   int
}

// ComplexConfig describes one buildable complex type.
type ComplexConfig struct {
	Type        string
	Name        string
	Description string
	BaseCost    economy.Cost
	CostGrowth  float64
	Prereq      *Prerequisite
	Archetype   Archetype
}

// BoosterConfig describes one activatable booster type.
type BoosterConfig struct {
	Type        string
	Name        string
	Description string
	Duration    time.Duration
	Multiplier  float64
	Cost        economy.Cost
	Prereq      *Prerequisite
	Affects     economy.Resource
	// Instant boosters apply ProductionHours worth of current production
	// immediately instead of creating an active row.
	Instant         bool
	ProductionHours float64
	Cancelable      bool
	AutoCollect     bool
}

// Constants carries the global tuning knobs of the game economy.
type Constants struct {
	BaseClickValue     float64
	MaxBoostMultiplier float64
	MaxActiveBoosters  int
	MaxComplexLevel    int
	NeutronRarity      float64
	ParticleRarity     float64
	StarterComplex     string
}

// Catalog is the read-only lookup consumed by the rest of the engine.
type Catalog struct {
	complexes    map[string]ComplexConfig
	boosters     map[string]BoosterConfig
	complexTypes []string
	boosterTypes []string
	constants    Constants
}

// New builds a catalog from explicit definitions. Use Default for the
// shipped game economy.
func New(complexes []ComplexConfig, boosters []BoosterConfig, constants Constants) *Catalog {
	c := &Catalog{
		complexes: make(map[string]ComplexConfig, len(complexes)),
		boosters:  make(map[string]BoosterConfig, len(boosters)),
		constants: constants,
	}
	for _, cc := range complexes {
		c.complexes[cc.Type] = cc
		c.complexTypes = append(c.complexTypes, cc.Type)
	}
	for _, bc := range boosters {
		c.boosters[bc.Type] = bc
		c.boosterTypes = append(c.boosterTypes, bc.Type)
	}
	sort.Strings(c.complexTypes)
	sort.Strings(c.boosterTypes)
	return c
}

// Constants returns the global tuning values.
func (c *Catalog) Constants() Constants { return c.constants }

// ComplexTypes returns all known complex identifiers in sorted order.
func (c *Catalog) ComplexTypes() []string { return c.complexTypes }

// BoosterTypes returns all known booster identifiers in sorted order.
func (c *Catalog) BoosterTypes() []string { return c.boosterTypes }

// LookupComplex resolves a complex type, failing with an UnknownTypeError
// carrying a nearest-match suggestion when the identifier is not recognized.
func (c *Catalog) LookupComplex(typ string) (ComplexConfig, error) {
	cc, ok := c.complexes[typ]
	if !ok {
		return ComplexConfig{}, &economy.UnknownTypeError{
			Kind:       "complex",
			Type:       typ,
			Suggestion: suggest(typ, c.complexTypes),
		}
	}
	return cc, nil
}

// LookupBooster resolves a booster type, failing with an UnknownTypeError
// carrying a nearest-match suggestion when the identifier is not recognized.
func (c *Catalog) LookupBooster(typ string) (BoosterConfig, error) {
	bc, ok := c.boosters[typ]
	if !ok {
		return BoosterConfig{}, &economy.UnknownTypeError{
			Kind:       "booster",
			Type:       typ,
			Suggestion: suggest(typ, c.boosterTypes),
		}
	}
	return bc, nil
}

// UpgradeCost returns the price of raising a complex from currentLevel to
// currentLevel+1: floor(base × growth^(currentLevel-1)).
func UpgradeCost(cfg ComplexConfig, currentLevel int) economy.Cost {
	factor := 1.0
	for i := 1; i < currentLevel; i++ {
		factor *= cfg.CostGrowth
	}
	return cfg.BaseCost.Scale(factor)
}

// Production returns the direct per-second output of a producer complex at
// the given level. Non-producing archetypes yield zero.
func Production(cfg ComplexConfig, level int) float64 {
	if p, ok := cfg.Archetype.(ProducerConfig); ok {
		return p.BaseRate * float64(level)
	}
	return 0
}

func suggest(query string, known []string) string {
	matches := fuzzy.Find(query, known)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
