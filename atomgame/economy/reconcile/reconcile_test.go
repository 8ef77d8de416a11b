package reconcile

import (
	"testing"

	"github.com/atomicprogress/atomgame/atomgame/economy"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name        string
		server      economy.Balances
		client      economy.Balances
		wantFinal   economy.Balances
		wantSurplus economy.Balances
		wantAhead   bool
	}{
		{
			name:        "client ahead keeps client value",
			server:      economy.Balances{Energons: 100},
			client:      economy.Balances{Energons: 120},
			wantFinal:   economy.Balances{Energons: 120},
			wantSurplus: economy.Balances{Energons: 20},
			wantAhead:   true,
		},
		{
			name:      "client behind keeps server value",
			server:    economy.Balances{Energons: 100},
			client:    economy.Balances{Energons: 90},
			wantFinal: economy.Balances{Energons: 100},
			wantAhead: false,
		},
		{
			name:      "equal values produce no surplus",
			server:    economy.Balances{Energons: 100, Neutrons: 10},
			client:    economy.Balances{Energons: 100, Neutrons: 10},
			wantFinal: economy.Balances{Energons: 100, Neutrons: 10},
			wantAhead: false,
		},
		{
			name:        "mixed per-resource winners",
			server:      economy.Balances{Energons: 100, Neutrons: 50, Particles: 5},
			client:      economy.Balances{Energons: 90, Neutrons: 60, Particles: 5},
			wantFinal:   economy.Balances{Energons: 100, Neutrons: 60, Particles: 5},
			wantSurplus: economy.Balances{Neutrons: 10},
			wantAhead:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.server, tt.client)
			if got.Final != tt.wantFinal {
				t.Errorf("Merge() final = %v, want %v", got.Final, tt.wantFinal)
			}
			if got.Surplus != tt.wantSurplus {
				t.Errorf("Merge() surplus = %v, want %v", got.Surplus, tt.wantSurplus)
			}
			if got.ClientAhead != tt.wantAhead {
				t.Errorf("Merge() clientAhead = %v, want %v", got.ClientAhead, tt.wantAhead)
			}
		})
	}
}

func TestMerge_NeverRollsBack(t *testing.T) {
	server := economy.Balances{Energons: 250, Neutrons: 30, Particles: 2}
	client := economy.Balances{}
	got := Merge(server, client)
	if got.Final != server {
		t.Errorf("Merge() with zero client rolled back: %v", got.Final)
	}
	if got.ClientAhead {
		t.Error("Merge() with zero client reported client ahead")
	}
}

func TestMerge_Idempotent(t *testing.T) {
	server := economy.Balances{Energons: 100}
	client := economy.Balances{Energons: 120}

	first := Merge(server, client)
	second := Merge(first.Final, client)
	if second.Final != first.Final {
		t.Errorf("second merge changed result: %v -> %v", first.Final, second.Final)
	}
	if second.ClientAhead {
		t.Error("second merge reported client ahead again")
	}
}
