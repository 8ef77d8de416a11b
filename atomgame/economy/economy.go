package economy

import "math"

// Resource identifies one of the three currency classes. ResourceAll is a
// sentinel used by boosters that apply to every class at once.
type Resource string

const (
	ResourceEnergons  Resource = "energons"
	ResourceNeutrons  Resource = "neutrons"
	ResourceParticles Resource = "particles"
	ResourceAll       Resource = "all"
)

// Balances holds the three resource amounts for a player. Amounts are
// real-valued internally; Report truncates them for external display.
type Balances struct {
	Energons  float64
	Neutrons  float64
	Particles float64
}

// Add returns the component-wise sum.
func (b Balances) Add(o Balances) Balances {
	return Balances{
		Energons:  b.Energons + o.Energons,
		Neutrons:  b.Neutrons + o.Neutrons,
		Particles: b.Particles + o.Particles,
	}
}

// Meets reports whether every component covers the cost.
func (b Balances) Meets(c Cost) bool {
	return b.Energons >= float64(c.Energons) &&
		b.Neutrons >= float64(c.Neutrons) &&
		b.Particles >= float64(c.Particles)
}

// Pay returns the balances after debiting the cost. Callers must check Meets
// first; Pay does not clamp.
func (b Balances) Pay(c Cost) Balances {
	return Balances{
		Energons:  b.Energons - float64(c.Energons),
		Neutrons:  b.Neutrons - float64(c.Neutrons),
		Particles: b.Particles - float64(c.Particles),
	}
}

// Max returns the component-wise maximum of a and b.
func Max(a, b Balances) Balances {
	return Balances{
		Energons:  math.Max(a.Energons, b.Energons),
		Neutrons:  math.Max(a.Neutrons, b.Neutrons),
		Particles: math.Max(a.Particles, b.Particles),
	}
}

// Report is the truncated integer view sent to clients.
type Report struct {
	Energons  int64 `json:"energons"`
	Neutrons  int64 `json:"neutrons"`
	Particles int64 `json:"particles"`
}

// Report truncates each balance toward zero.
func (b Balances) Report() Report {
	return Report{
		Energons:  int64(math.Floor(b.Energons)),
		Neutrons:  int64(math.Floor(b.Neutrons)),
		Particles: int64(math.Floor(b.Particles)),
	}
}

// Cost is a per-resource price vector. Costs are integral.
type Cost struct {
	Energons  int64 `json:"energons"`
	Neutrons  int64 `json:"neutrons"`
	Particles int64 `json:"particles"`
}

// IsZero reports whether the cost debits nothing.
func (c Cost) IsZero() bool {
	return c.Energons == 0 && c.Neutrons == 0 && c.Particles == 0
}

// Scale multiplies every component by factor, flooring the result.
func (c Cost) Scale(factor float64) Cost {
	return Cost{
		Energons:  int64(math.Floor(float64(c.Energons) * factor)),
		Neutrons:  int64(math.Floor(float64(c.Neutrons) * factor)),
		Particles: int64(math.Floor(float64(c.Particles) * factor)),
	}
}

// Rates holds per-second production for each resource class.
type Rates struct {
	Energons  float64 `json:"energons"`
	Neutrons  float64 `json:"neutrons"`
	Particles float64 `json:"particles"`
}

// Add returns the component-wise sum.
func (r Rates) Add(o Rates) Rates {
	return Rates{
		Energons:  r.Energons + o.Energons,
		Neutrons:  r.Neutrons + o.Neutrons,
		Particles: r.Particles + o.Particles,
	}
}

// Over converts a rate into the amount produced over the given number of
// seconds.
func (r Rates) Over(seconds float64) Balances {
	return Balances{
		Energons:  r.Energons * seconds,
		Neutrons:  r.Neutrons * seconds,
		Particles: r.Particles * seconds,
	}
}

// IsZero reports whether nothing is being produced.
func (r Rates) IsZero() bool {
	return r.Energons == 0 && r.Neutrons == 0 && r.Particles == 0
}
