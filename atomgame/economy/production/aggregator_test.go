package production

import (
	"testing"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database/models"
	"github.com/atomicprogress/atomgame/atomgame/economy"
	"github.com/atomicprogress/atomgame/atomgame/economy/catalog"
)

func cplx(typ string, level int) *models.Complex {
	return &models.Complex{PlayerID: 1, Type: typ, Level: level}
}

func boost(typ string, multiplier float64, affects economy.Resource, end time.Time) *models.Booster {
	return &models.Booster{PlayerID: 1, Type: typ, Multiplier: multiplier, Affects: string(affects), EndTime: end}
}

func TestCompute_Producers(t *testing.T) {
	cat := catalog.Default()
	now := time.Now()

	tests := []struct {
		name      string
		complexes []*models.Complex
		want      economy.Rates
	}{
		{
			name:      "single producer scales with level",
			complexes: []*models.Complex{cplx(catalog.ComplexKollektiv, 3)},
			want:      economy.Rates{Energons: 3},
		},
		{
			name: "producers are additive across resources",
			complexes: []*models.Complex{
				cplx(catalog.ComplexKollektiv, 2),
				cplx(catalog.ComplexSoyuzAtom, 5),
				cplx(catalog.ComplexKvantSibir, 4),
			},
			want: economy.Rates{Energons: 2, Neutrons: 0.2 * 5, Particles: 0.05 * 4},
		},
		{
			name:      "multiplier alone produces nothing",
			complexes: []*models.Complex{cplx(catalog.ComplexZarya, 5)},
			want:      economy.Rates{},
		},
		{
			name: "unknown complex type is skipped",
			complexes: []*models.Complex{
				cplx(catalog.ComplexKollektiv, 1),
				cplx("REAKTOR-DOOM", 99),
			},
			want: economy.Rates{Energons: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(cat, tt.complexes, nil, now)
			if got.Base != tt.want {
				t.Errorf("Compute() base = %v, want %v", got.Base, tt.want)
			}
			if got.Rates != tt.want {
				t.Errorf("Compute() rates = %v, want %v (no boosters active)", got.Rates, tt.want)
			}
		})
	}
}

func TestCompute_Multipliers(t *testing.T) {
	cat := catalog.Default()
	now := time.Now()

	complexes := []*models.Complex{
		cplx(catalog.ComplexKollektiv, 4),
		cplx(catalog.ComplexZarya, 2),
	}
	got := Compute(cat, complexes, nil, now)
	want := 4 * (1 + 0.05*2)
	if got.Base.Energons != want {
		t.Errorf("energon rate with target multiplier = %v, want %v", got.Base.Energons, want)
	}

	// An all-resource multiplier stacks on top of the targeted one.
	complexes = append(complexes, cplx(catalog.ComplexAkademgorod, 5))
	got = Compute(cat, complexes, nil, now)
	want = 4 * (1 + 0.05*2) * (1 + 0.02*5)
	if got.Base.Energons != want {
		t.Errorf("energon rate with stacked multipliers = %v, want %v", got.Base.Energons, want)
	}
}

func TestCompute_ClickBoostAndAutoClicker(t *testing.T) {
	cat := catalog.Default()
	now := time.Now()

	got := Compute(cat, []*models.Complex{cplx(catalog.ComplexCiklotron, 3)}, nil, now)
	wantMult := 1 + 0.10*3
	if got.ClickMultiplier != wantMult {
		t.Errorf("click multiplier = %v, want %v", got.ClickMultiplier, wantMult)
	}
	if got.Base.Energons != 0 {
		t.Errorf("click boost alone produced %v energons/s", got.Base.Energons)
	}

	// Auto-clickers feed click-valued energons into the passive rate.
	got = Compute(cat, []*models.Complex{cplx(catalog.ComplexMozgMachina, 5)}, nil, now)
	if want := 0.2 * 5; got.Base.Energons != want {
		t.Errorf("auto-clicker rate = %v, want %v", got.Base.Energons, want)
	}

	// With a click boost present the auto-clicker's clicks are worth more.
	got = Compute(cat, []*models.Complex{
		cplx(catalog.ComplexMozgMachina, 5),
		cplx(catalog.ComplexCiklotron, 3),
	}, nil, now)
	if want := 0.2 * 5 * (1 + 0.10*3); got.Base.Energons != want {
		t.Errorf("boosted auto-clicker rate = %v, want %v", got.Base.Energons, want)
	}
}

func TestCompute_PeriodicAmortization(t *testing.T) {
	cat := catalog.Default()
	now := time.Now()

	got := Compute(cat, []*models.Complex{cplx(catalog.ComplexSputnik, 2)}, nil, now)
	perSecond := 50 * 2 / (30 * time.Minute).Seconds()
	want := economy.Rates{
		Energons:  perSecond,
		Neutrons:  perSecond / 10,
		Particles: perSecond / 100,
	}
	if got.Base != want {
		t.Errorf("periodic rate = %v, want %v", got.Base, want)
	}
}

func TestCompute_Boosters(t *testing.T) {
	cat := catalog.Default()
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	complexes := []*models.Complex{
		cplx(catalog.ComplexKollektiv, 10),
		cplx(catalog.ComplexSoyuzAtom, 5),
	}

	t.Run("multiplicative composition per resource class", func(t *testing.T) {
		boosters := []*models.Booster{
			boost(catalog.BoosterProton, 3.0, economy.ResourceAll, future),
			boost(catalog.BoosterAtomicHeart, 2.0, economy.ResourceNeutrons, future),
		}
		got := Compute(cat, complexes, boosters, now)
		if got.Multipliers.Energons != 3 || got.Multipliers.Neutrons != 6 {
			t.Errorf("multipliers = %v, want energons 3 neutrons 6", got.Multipliers)
		}
		if got.Rates.Energons != got.Base.Energons*3 {
			t.Errorf("boosted energon rate = %v, want %v", got.Rates.Energons, got.Base.Energons*3)
		}
		if got.Rates.Neutrons != got.Base.Neutrons*6 {
			t.Errorf("boosted neutron rate = %v, want %v", got.Rates.Neutrons, got.Base.Neutrons*6)
		}
	})

	t.Run("order independent", func(t *testing.T) {
		forward := []*models.Booster{
			boost(catalog.BoosterProton, 3.0, economy.ResourceAll, future),
			boost(catalog.BoosterTPolymer, 2.5, economy.ResourceAll, future),
		}
		reversed := []*models.Booster{forward[1], forward[0]}
		a := Compute(cat, complexes, forward, now)
		b := Compute(cat, complexes, reversed, now)
		if a.Rates != b.Rates {
			t.Errorf("booster order changed rates: %v vs %v", a.Rates, b.Rates)
		}
	})

	t.Run("combined multiplier clamped", func(t *testing.T) {
		boosters := []*models.Booster{
			boost(catalog.BoosterProton, 4.0, economy.ResourceAll, future),
			boost(catalog.BoosterTPolymer, 4.0, economy.ResourceAll, future),
		}
		got := Compute(cat, complexes, boosters, now)
		if got.Multipliers.Energons != 10 {
			t.Errorf("clamped multiplier = %v, want 10", got.Multipliers.Energons)
		}
	})

	t.Run("expired booster excluded even before sweep", func(t *testing.T) {
		boosters := []*models.Booster{
			boost(catalog.BoosterProton, 3.0, economy.ResourceAll, past),
		}
		got := Compute(cat, complexes, boosters, now)
		if got.Rates != got.Base {
			t.Errorf("expired booster still applied: %v vs base %v", got.Rates, got.Base)
		}
	})

	t.Run("unknown booster type skipped", func(t *testing.T) {
		boosters := []*models.Booster{
			boost("MEGA-CHEAT", 100.0, economy.ResourceAll, future),
		}
		got := Compute(cat, complexes, boosters, now)
		if got.Rates != got.Base {
			t.Errorf("unknown booster applied: %v vs base %v", got.Rates, got.Base)
		}
	})

	t.Run("auto collect flag", func(t *testing.T) {
		boosters := []*models.Booster{
			boost(catalog.BoosterIronComrade, 1.0, economy.ResourceAll, future),
		}
		got := Compute(cat, complexes, boosters, now)
		if !got.AutoCollect {
			t.Error("auto collect booster not reported")
		}
	})
}

func TestClickValue(t *testing.T) {
	cat := catalog.Default()

	if got := ClickValue(cat, 1.0, 10); got != 10 {
		t.Errorf("ClickValue(1.0, 10) = %v, want 10", got)
	}
	if got, want := ClickValue(cat, 1+0.10*3, 10), (1+0.10*3)*10; got != want {
		t.Errorf("ClickValue(1.3, 10) = %v, want %v", got, want)
	}
	if got := ClickValue(cat, 1.0, 0); got != 0 {
		t.Errorf("ClickValue(1.0, 0) = %v, want 0", got)
	}
}
