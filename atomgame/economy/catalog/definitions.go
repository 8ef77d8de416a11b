package catalog

import (
	"time"

	"github.com/atomicprogress/atomgame/atomgame/economy"
)

// Complex type identifiers.
const (
	ComplexKollektiv   = "KOLLEKTIV-1"
	ComplexZarya       = "ZARYA-M"
	ComplexSoyuzAtom   = "SOYUZ-ATOM"
	ComplexCiklotron   = "KRASNIY-CIKLOTRON"
	ComplexAkademgorod = "AKADEMGOROD-17"
	ComplexSputnik     = "SPUTNIK-GAMMA"
	ComplexKvantSibir  = "KVANT-SIBIR"
	ComplexMateriya    = "MATERIYA-3"
	ComplexMozgMachina = "MOZG-MACHINA"
	ComplexPolyus      = "POLYUS-K88"
)

// Booster type identifiers.
const (
	BoosterProton      = "PROTON-M87"
	BoosterRedStar     = "RED-STAR"
	BoosterAtomicHeart = "ATOMIC-HEART-42"
	BoosterIronComrade = "IRON-COMRADE"
	BoosterTPolymer    = "T-POLYMER"
)

// Default returns the shipped game economy.
func Default() *Catalog {
	return New(defaultComplexes(), defaultBoosters(), DefaultConstants())
}

// DefaultConstants returns the shipped tuning values.
func DefaultConstants() Constants {
	return Constants{
		BaseClickValue:     1,
		MaxBoostMultiplier: 10,
		MaxActiveBoosters:  5,
		MaxComplexLevel:    1000,
		NeutronRarity:      10,
		ParticleRarity:     100,
		StarterComplex:     ComplexKollektiv,
	}
}

func defaultComplexes() []ComplexConfig {
	return []ComplexConfig{
		{
			Type:        ComplexKollektiv,
			Name:        "KOLLEKTIV-1",
			Description: "Base energy generator. Produces 1 energon per second.",
			BaseCost:    economy.Cost{Energons: 100},
			CostGrowth:  1.5,
			Archetype:   ProducerConfig{Resource: economy.ResourceEnergons, BaseRate: 1},
		},
		{
			Type:        ComplexZarya,
			Name:        "ZARYA-M",
			Description: "Raises energon production by 5% per level.",
			BaseCost:    economy.Cost{Energons: 500},
			CostGrowth:  1.6,
			Prereq:      &Prerequisite{Complex: ComplexKollektiv, Level: 3},
			Archetype:   MultiplierConfig{Target: economy.ResourceEnergons, PerLevel: 0.05},
		},
		{
			Type:        ComplexSoyuzAtom,
			Name:        "SOYUZ-ATOM",
			Description: "Produces neutrons, the secondary research currency.",
			BaseCost:    economy.Cost{Energons: 2000},
			CostGrowth:  1.7,
			Prereq:      &Prerequisite{Complex: ComplexKollektiv, Level: 5},
			Archetype:   ProducerConfig{Resource: economy.ResourceNeutrons, BaseRate: 0.2},
		},
		{
			Type:        ComplexCiklotron,
			Name:        "KRASNIY-CIKLOTRON",
			Description: "Raises click power by 10% per level.",
			BaseCost:    economy.Cost{Energons: 1500},
			CostGrowth:  1.7,
			Prereq:      &Prerequisite{Complex: ComplexKollektiv, Level: 5},
			Archetype:   ClickBoostConfig{PerLevel: 0.10},
		},
		{
			Type:        ComplexAkademgorod,
			Name:        "AKADEMGOROD-17",
			Description: "Trains researchers granting a passive bonus to all production.",
			BaseCost:    economy.Cost{Energons: 5000, Neutrons: 100},
			CostGrowth:  1.8,
			Prereq:      &Prerequisite{Complex: ComplexSoyuzAtom, Level: 3},
			Archetype:   MultiplierConfig{Target: economy.ResourceAll, PerLevel: 0.02},
		},
		{
			Type:        ComplexSputnik,
			Name:        "SPUTNIK-GAMMA",
			Description: "Grants a bonus to every resource each 30 minutes.",
			BaseCost:    economy.Cost{Energons: 10000, Neutrons: 500},
			CostGrowth:  2.0,
			Prereq:      &Prerequisite{Complex: ComplexAkademgorod, Level: 2},
			Archetype:   PeriodicConfig{Interval: 30 * time.Minute, BonusPerLevel: 50},
		},
		{
			Type:        ComplexKvantSibir,
			Name:        "KVANT-SIBIR",
			Description: "Generates quantum particles for prestige upgrades.",
			BaseCost:    economy.Cost{Energons: 25000, Neutrons: 1000},
			CostGrowth:  2.2,
			Prereq:      &Prerequisite{Complex: ComplexSputnik, Level: 2},
			Archetype:   ProducerConfig{Resource: economy.ResourceParticles, BaseRate: 0.05},
		},
		{
			Type:        ComplexMateriya,
			Name:        "MATERIYA-3",
			Description: "Creates rare materials that speed up neutron research.",
			BaseCost:    economy.Cost{Energons: 50000, Neutrons: 2500},
			CostGrowth:  2.5,
			Prereq:      &Prerequisite{Complex: ComplexKvantSibir, Level: 3},
			Archetype:   MultiplierConfig{Target: economy.ResourceNeutrons, PerLevel: 0.03},
		},
		{
			Type:        ComplexMozgMachina,
			Name:        "MOZG-MACHINA",
			Description: "Automates part of the clicking.",
			BaseCost:    economy.Cost{Energons: 75000, Neutrons: 5000, Particles: 100},
			CostGrowth:  3.0,
			Prereq:      &Prerequisite{Complex: ComplexMateriya, Level: 2},
			Archetype:   AutoClickerConfig{ClicksPerSecond: 0.2},
		},
		{
			Type:        ComplexPolyus,
			Name:        "POLYUS-K88",
			Description: "Unlocks seasonal events with unique rewards.",
			BaseCost:    economy.Cost{Energons: 100000, Neutrons: 10000, Particles: 250},
			CostGrowth:  3.5,
			Prereq:      &Prerequisite{Complex: ComplexMozgMachina, Level: 2},
			Archetype:   PeriodicConfig{Interval: 24 * time.Hour, BonusPerLevel: 1000},
		},
	}
}

func defaultBoosters() []BoosterConfig {
	return []BoosterConfig{
		{
			Type:        BoosterProton,
			Name:        "Proton-M87",
			Description: "+200% to production for 4 hours.",
			Duration:    4 * time.Hour,
			Multiplier:  3.0,
			Cost:        economy.Cost{Energons: 5000},
			Prereq:      &Prerequisite{Complex: ComplexZarya, Level: 2},
			Affects:     economy.ResourceAll,
			Cancelable:  true,
		},
		{
			Type:            BoosterRedStar,
			Name:            "Red Star",
			Description:     "Instantly grants 24 hours of production.",
			Multiplier:      1.0,
			Cost:            economy.Cost{Energons: 10000, Neutrons: 500},
			Prereq:          &Prerequisite{Complex: ComplexSoyuzAtom, Level: 5},
			Affects:         economy.ResourceAll,
			Instant:         true,
			ProductionHours: 24,
		},
		{
			Type:        BoosterAtomicHeart,
			Name:        "Atomic Heart-42",
			Description: "Doubles research speed for 12 hours.",
			Duration:    12 * time.Hour,
			Multiplier:  2.0,
			Cost:        economy.Cost{Energons: 15000, Neutrons: 1000},
			Prereq:      &Prerequisite{Complex: ComplexAkademgorod, Level: 3},
			Affects:     economy.ResourceNeutrons,
			Cancelable:  true,
		},
		{
			Type:        BoosterIronComrade,
			Name:        "Iron Comrade",
			Description: "Collects periodic bonuses automatically for 8 hours.",
			Duration:    8 * time.Hour,
			Multiplier:  1.0,
			Cost:        economy.Cost{Energons: 20000, Neutrons: 2000},
			Prereq:      &Prerequisite{Complex: ComplexSputnik, Level: 3},
			Affects:     economy.ResourceAll,
			Cancelable:  true,
			AutoCollect: true,
		},
		{
			Type:        BoosterTPolymer,
			Name:        "T-Polymer",
			Description: "+150% to the value of all resources for 6 hours.",
			Duration:    6 * time.Hour,
			Multiplier:  2.5,
			Cost:        economy.Cost{Energons: 25000, Neutrons: 3000, Particles: 50},
			Prereq:      &Prerequisite{Complex: ComplexKvantSibir, Level: 2},
			Affects:     economy.ResourceAll,
			Cancelable:  true,
		},
	}
}
