package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database/models"
	"github.com/atomicprogress/atomgame/atomgame/database/repositories/repotest"
	"github.com/atomicprogress/atomgame/atomgame/economy/accrual"
	"github.com/atomicprogress/atomgame/atomgame/economy/boosters"
	"github.com/atomicprogress/atomgame/atomgame/economy/catalog"
	"github.com/atomicprogress/atomgame/atomgame/services"
)

type sweepFixture struct {
	sweep   *AccrualSweep
	players *repotest.PlayerStore
	ledger  *repotest.LedgerStore
	ids     []int64
}

// newSweepFixture seeds players whose accrual checkpoint lies in the past, so
// a sweep has real production to settle.
func newSweepFixture(t *testing.T, playerCount int) *sweepFixture {
	t.Helper()
	players := repotest.NewPlayerStore()
	complexes := repotest.NewComplexStore()
	boosterStore := repotest.NewBoosterStore()
	ledger := repotest.NewLedgerStore()
	cat := catalog.Default()
	mgr := boosters.NewManager(cat, players, boosterStore, ledger)
	svc := services.NewGameService(cat, players, complexes, boosterStore, ledger, mgr, accrual.DefaultConfig())

	fx := &sweepFixture{
		sweep:   NewAccrualSweep(svc, players, time.Minute),
		players: players,
		ledger:  ledger,
	}

	checkpoint := time.Now().Add(-10 * time.Minute)
	for i := 0; i < playerCount; i++ {
		player := &models.Player{
			TelegramID:         int64(9000 + i),
			LastActivity:       checkpoint,
			EnergonMultiplier:  1,
			NeutronMultiplier:  1,
			ParticleMultiplier: 1,
			ClickMultiplier:    1,
		}
		if err := players.Create(context.Background(), player); err != nil {
			t.Fatalf("failed to seed player: %v", err)
		}
		if err := complexes.Create(context.Background(), &models.Complex{
			PlayerID:     player.ID,
			Type:         catalog.ComplexKollektiv,
			Level:        1,
			LastUpgraded: checkpoint,
		}); err != nil {
			t.Fatalf("failed to seed complex: %v", err)
		}
		fx.ids = append(fx.ids, player.ID)
	}
	return fx
}

func TestAccrualSweep_SweepOnce(t *testing.T) {
	fx := newSweepFixture(t, 3)
	ctx := context.Background()

	next, processed, err := fx.sweep.SweepOnce(ctx, 0)
	if err != nil {
		t.Fatalf("SweepOnce() error = %v", err)
	}
	if processed != 3 {
		t.Errorf("processed = %d, want 3", processed)
	}
	if want := fx.ids[len(fx.ids)-1]; next != want {
		t.Errorf("next cursor = %d, want %d", next, want)
	}

	// Every player was settled: roughly ten minutes at 1 energon/s.
	for _, id := range fx.ids {
		player, err := fx.players.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("player %d lookup failed: %v", id, err)
		}
		if player.Energons < 590 || player.Energons > 700 {
			t.Errorf("player %d energons = %v, want roughly 600", id, player.Energons)
		}
		if entries := fx.ledger.BySource(id, models.SourceSweepProduction); len(entries) != 1 {
			t.Errorf("player %d sweep ledger entries = %d, want 1", id, len(entries))
		}
	}
}

func TestAccrualSweep_CursorResumesAndWraps(t *testing.T) {
	fx := newSweepFixture(t, 3)
	ctx := context.Background()

	// Resuming after the first player only settles the remaining two.
	next, processed, err := fx.sweep.SweepOnce(ctx, fx.ids[0])
	if err != nil {
		t.Fatalf("SweepOnce() error = %v", err)
	}
	if processed != 2 {
		t.Errorf("processed = %d, want 2", processed)
	}
	if first, err := fx.players.GetByID(ctx, fx.ids[0]); err != nil || first.Energons != 0 {
		t.Errorf("player before cursor was touched: energons = %v", first.Energons)
	}

	// Past the last id the page is empty and the cursor wraps to zero.
	next, processed, err = fx.sweep.SweepOnce(ctx, next)
	if err != nil {
		t.Fatalf("wrapping SweepOnce() error = %v", err)
	}
	if next != 0 || processed != 0 {
		t.Errorf("wrap = (%d, %d), want (0, 0)", next, processed)
	}
}
