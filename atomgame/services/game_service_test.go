package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database/models"
	"github.com/atomicprogress/atomgame/atomgame/database/repositories"
	"github.com/atomicprogress/atomgame/atomgame/database/repositories/repotest"
	"github.com/atomicprogress/atomgame/atomgame/economy"
	"github.com/atomicprogress/atomgame/atomgame/economy/accrual"
	"github.com/atomicprogress/atomgame/atomgame/economy/boosters"
	"github.com/atomicprogress/atomgame/atomgame/economy/catalog"
)

const testTelegramID int64 = 77001

type svcFixture struct {
	svc       *GameService
	players   *repotest.PlayerStore
	complexes *repotest.ComplexStore
	boosters  *repotest.BoosterStore
	ledger    *repotest.LedgerStore
	current   time.Time
}

func newSvcFixture(t *testing.T) *svcFixture {
	t.Helper()
	fx := &svcFixture{
		players:   repotest.NewPlayerStore(),
		complexes: repotest.NewComplexStore(),
		boosters:  repotest.NewBoosterStore(),
		ledger:    repotest.NewLedgerStore(),
		current:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	cat := catalog.Default()
	mgr := boosters.NewManager(cat, fx.players, fx.boosters, fx.ledger)
	fx.svc = NewGameService(cat, fx.players, fx.complexes, fx.boosters, fx.ledger, mgr, accrual.DefaultConfig())
	fx.svc.now = func() time.Time { return fx.current }
	return fx
}

func (fx *svcFixture) advance(d time.Duration) {
	fx.current = fx.current.Add(d)
}

func (fx *svcFixture) playerID(t *testing.T) int64 {
	t.Helper()
	p, err := fx.players.GetByTelegramID(context.Background(), testTelegramID)
	if err != nil {
		t.Fatalf("player lookup failed: %v", err)
	}
	return p.ID
}

// fund grants resources through the reconciliation path, which keeps the
// balances legitimate from the service's point of view.
func (fx *svcFixture) fund(t *testing.T, energons float64) {
	t.Helper()
	_, err := fx.svc.Sync(context.Background(), testTelegramID, fx.current, economy.Balances{Energons: energons}, false)
	if err != nil {
		t.Fatalf("funding sync failed: %v", err)
	}
}

func TestGameService_FirstContact(t *testing.T) {
	fx := newSvcFixture(t)
	ctx := context.Background()

	view, err := fx.svc.GetBalances(ctx, testTelegramID)
	if err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}
	if view.Balances.Energons != 0 {
		t.Errorf("fresh player energons = %d, want 0", view.Balances.Energons)
	}
	// The starter complex ships with the account: 1 energon per second.
	if view.Rates.Energons != 1 {
		t.Errorf("fresh player energon rate = %v, want 1", view.Rates.Energons)
	}

	owned, err := fx.complexes.GetByPlayer(ctx, fx.playerID(t))
	if err != nil {
		t.Fatalf("GetByPlayer() error = %v", err)
	}
	if len(owned) != 1 || owned[0].Type != catalog.ComplexKollektiv || owned[0].Level != 1 {
		t.Fatalf("starter complexes = %v, want one %s at level 1", owned, catalog.ComplexKollektiv)
	}

	// The starter grant is on the ledger with its rate delta.
	entries := fx.ledger.BySource(fx.playerID(t), models.SourcePurchase)
	if len(entries) != 1 {
		t.Fatalf("purchase ledger entries = %d, want 1", len(entries))
	}
	if entries[0].EnergonRateDelta != 1 {
		t.Errorf("starter rate delta = %v, want 1", entries[0].EnergonRateDelta)
	}

	// A second call must not create anything.
	if _, err := fx.svc.GetBalances(ctx, testTelegramID); err != nil {
		t.Fatalf("second GetBalances() error = %v", err)
	}
	if owned, _ = fx.complexes.GetByPlayer(ctx, fx.playerID(t)); len(owned) != 1 {
		t.Errorf("second contact duplicated the starter complex: %d rows", len(owned))
	}
}

func TestGameService_GetBalances_ProjectsWithoutPersisting(t *testing.T) {
	fx := newSvcFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.GetBalances(ctx, testTelegramID); err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}
	fx.advance(10 * time.Second)

	view, err := fx.svc.GetBalances(ctx, testTelegramID)
	if err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}
	if view.Balances.Energons != 10 {
		t.Errorf("projected energons = %d, want 10", view.Balances.Energons)
	}

	// The projection is read-only; the stored row still holds zero.
	stored, err := fx.players.GetByID(ctx, fx.playerID(t))
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Energons != 0 {
		t.Errorf("stored energons after projection = %v, want 0", stored.Energons)
	}
}

func TestGameService_GetBalances_CacheDropsExpiredBooster(t *testing.T) {
	fx := newSvcFixture(t)
	ctx := context.Background()

	// Click creates the account and leaves the rate cache empty.
	if _, err := fx.svc.Click(ctx, testTelegramID); err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	booster := &models.Booster{
		PlayerID:   fx.playerID(t),
		Type:       catalog.BoosterProton,
		StartTime:  fx.current,
		EndTime:    fx.current.Add(5 * time.Second),
		Multiplier: 3,
		Affects:    string(economy.ResourceAll),
	}
	if err := fx.boosters.Insert(ctx, booster); err != nil {
		t.Fatalf("failed to seed booster: %v", err)
	}

	view, err := fx.svc.GetBalances(ctx, testTelegramID)
	if err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}
	if view.Rates.Energons != 3 {
		t.Fatalf("boosted rate = %v, want 3", view.Rates.Energons)
	}

	// Ten seconds later the booster is over but the cache entry written
	// above is still inside its normal lifetime. The projection must not
	// keep the lapsed multiplier.
	fx.advance(10 * time.Second)
	view, err = fx.svc.GetBalances(ctx, testTelegramID)
	if err != nil {
		t.Fatalf("GetBalances() after expiry error = %v", err)
	}
	if view.Rates.Energons != 1 {
		t.Errorf("rate after booster expiry = %v, want 1", view.Rates.Energons)
	}
}

func TestGameService_Click(t *testing.T) {
	fx := newSvcFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.GetBalances(ctx, testTelegramID); err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}
	fx.advance(10 * time.Second)

	res, err := fx.svc.Click(ctx, testTelegramID)
	if err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	if res.ClickValue != 1 {
		t.Errorf("click value = %v, want 1", res.ClickValue)
	}
	// Ten seconds of passive production settle before the click lands.
	if res.Balances.Energons != 11 {
		t.Errorf("energons after click = %d, want 11", res.Balances.Energons)
	}

	stored, _ := fx.players.GetByID(ctx, fx.playerID(t))
	if stored.TotalClicks != 1 || stored.ManualClicks != 1 {
		t.Errorf("click counters = %d/%d, want 1/1", stored.TotalClicks, stored.ManualClicks)
	}
	if !stored.LastActivity.Equal(fx.current) {
		t.Errorf("checkpoint = %v, want %v", stored.LastActivity, fx.current)
	}

	if entries := fx.ledger.BySource(fx.playerID(t), models.SourceClick); len(entries) != 1 || entries[0].EnergonsDelta != 1 {
		t.Errorf("click ledger entries = %v, want one with delta 1", entries)
	}
	if entries := fx.ledger.BySource(fx.playerID(t), models.SourceProduction); len(entries) != 1 || entries[0].EnergonsDelta != 10 {
		t.Errorf("production ledger entries = %v, want one with delta 10", entries)
	}
}

func TestGameService_FlushClicks(t *testing.T) {
	fx := newSvcFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.GetBalances(ctx, testTelegramID); err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}
	fx.advance(10 * time.Second)

	// Server settlement: 10 from production plus 5 server-priced clicks.
	// The client projected 20, so 5 more are granted as client-ahead surplus.
	res, err := fx.svc.FlushClicks(ctx, testTelegramID, 5, 20)
	if err != nil {
		t.Fatalf("FlushClicks() error = %v", err)
	}
	if res.EarnedFromClicks != 5 {
		t.Errorf("earned from clicks = %v, want 5", res.EarnedFromClicks)
	}
	if res.EarnedFromProduction.Energons != 10 {
		t.Errorf("earned from production = %v, want 10", res.EarnedFromProduction.Energons)
	}
	if res.Balances.Energons != 20 {
		t.Errorf("energons after flush = %d, want 20", res.Balances.Energons)
	}

	if entries := fx.ledger.BySource(fx.playerID(t), models.SourceClickFlush); len(entries) != 1 || entries[0].EnergonsDelta != 5 {
		t.Errorf("flush ledger = %v, want one entry with delta 5", entries)
	}
	if entries := fx.ledger.BySource(fx.playerID(t), models.SourceClientAheadSync); len(entries) != 1 || entries[0].EnergonsDelta != 5 {
		t.Errorf("client-ahead ledger = %v, want one entry with delta 5", entries)
	}

	stored, _ := fx.players.GetByID(ctx, fx.playerID(t))
	if stored.ManualClicks != 5 {
		t.Errorf("manual clicks = %d, want 5", stored.ManualClicks)
	}
}

func TestGameService_FlushClicks_NegativeCount(t *testing.T) {
	fx := newSvcFixture(t)
	if _, err := fx.svc.FlushClicks(context.Background(), testTelegramID, -1, 0); err == nil {
		t.Fatal("FlushClicks(-1) succeeded, want error")
	}
}

func TestGameService_Sync(t *testing.T) {
	fx := newSvcFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.GetBalances(ctx, testTelegramID); err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}
	fx.advance(10 * time.Second)

	// Server side has earned 10; the client reports 50.
	res, err := fx.svc.Sync(ctx, testTelegramID, fx.current, economy.Balances{Energons: 50}, false)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if res.Balances.Energons != 50 {
		t.Errorf("synced energons = %d, want 50", res.Balances.Energons)
	}
	if !res.ServerTime.Equal(fx.current) {
		t.Errorf("server time = %v, want %v", res.ServerTime, fx.current)
	}

	entries := fx.ledger.BySource(fx.playerID(t), models.SourceClientAheadSync)
	if len(entries) != 1 || entries[0].EnergonsDelta != 40 {
		t.Fatalf("client-ahead ledger = %v, want one entry with delta 40", entries)
	}

	// Replaying the same client snapshot must not grant anything again.
	res, err = fx.svc.Sync(ctx, testTelegramID, fx.current, economy.Balances{Energons: 50}, true)
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if res.Balances.Energons != 50 {
		t.Errorf("energons after replayed sync = %d, want 50", res.Balances.Energons)
	}
	if entries = fx.ledger.BySource(fx.playerID(t), models.SourceClientAheadSync); len(entries) != 1 {
		t.Errorf("replayed sync wrote %d client-ahead entries, want 1", len(entries))
	}

	// A client behind the server never rolls the balance back.
	res, err = fx.svc.Sync(ctx, testTelegramID, fx.current, economy.Balances{Energons: 1}, false)
	if err != nil {
		t.Fatalf("third Sync() error = %v", err)
	}
	if res.Balances.Energons != 50 {
		t.Errorf("energons after behind-client sync = %d, want 50", res.Balances.Energons)
	}

	stored, _ := fx.players.GetByID(ctx, fx.playerID(t))
	if !stored.LastSyncAt.Equal(fx.current) {
		t.Errorf("last sync at = %v, want %v", stored.LastSyncAt, fx.current)
	}
}

func TestGameService_AccruePlayer(t *testing.T) {
	fx := newSvcFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.GetBalances(ctx, testTelegramID); err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}
	id := fx.playerID(t)
	fx.advance(10 * time.Second)

	if err := fx.svc.AccruePlayer(ctx, id); err != nil {
		t.Fatalf("AccruePlayer() error = %v", err)
	}
	stored, _ := fx.players.GetByID(ctx, id)
	if stored.Energons != 10 {
		t.Errorf("swept energons = %v, want 10", stored.Energons)
	}
	if !stored.LastActivity.Equal(fx.current) {
		t.Errorf("checkpoint = %v, want %v", stored.LastActivity, fx.current)
	}
	entries := fx.ledger.BySource(id, models.SourceSweepProduction)
	if len(entries) != 1 || entries[0].EnergonsDelta != 10 {
		t.Fatalf("sweep ledger = %v, want one entry with delta 10", entries)
	}

	// A second pass at the same instant is a no-op and writes nothing.
	if err := fx.svc.AccruePlayer(ctx, id); err != nil {
		t.Fatalf("second AccruePlayer() error = %v", err)
	}
	if entries = fx.ledger.BySource(id, models.SourceSweepProduction); len(entries) != 1 {
		t.Errorf("idle sweep wrote %d entries, want 1", len(entries))
	}
}

func TestGameService_ProducedBetween(t *testing.T) {
	fx := newSvcFixture(t)
	ctx := context.Background()
	start := fx.current

	// Account creation records the starter's 1 energon/s on the ledger; the
	// upgrade ten seconds in doubles it.
	fx.fund(t, 1000)
	fx.advance(10 * time.Second)
	if _, err := fx.svc.UpgradeComplex(ctx, testTelegramID, catalog.ComplexKollektiv); err != nil {
		t.Fatalf("UpgradeComplex() error = %v", err)
	}
	fx.advance(10 * time.Second)

	got, err := fx.svc.ProducedBetween(ctx, testTelegramID, start, fx.current)
	if err != nil {
		t.Fatalf("ProducedBetween() error = %v", err)
	}
	if got.Energons != 30 {
		t.Errorf("produced energons = %v, want 30 (10s at 1/s + 10s at 2/s)", got.Energons)
	}
}

func TestGameService_RecentActivity(t *testing.T) {
	fx := newSvcFixture(t)
	ctx := context.Background()

	// Account creation writes the starter purchase entry; the click ten
	// seconds later adds a production and a click entry.
	if _, err := fx.svc.GetBalances(ctx, testTelegramID); err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}
	fx.advance(10 * time.Second)
	if _, err := fx.svc.Click(ctx, testTelegramID); err != nil {
		t.Fatalf("Click() error = %v", err)
	}

	entries, err := fx.svc.RecentActivity(ctx, testTelegramID, 2)
	if err != nil {
		t.Fatalf("RecentActivity() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("RecentActivity(2) returned %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if !e.Timestamp.Equal(fx.current) {
			t.Errorf("entry %s at %v, want the newest batch at %v", e.Source, e.Timestamp, fx.current)
		}
	}

	all, err := fx.svc.RecentActivity(ctx, testTelegramID, 10)
	if err != nil {
		t.Fatalf("RecentActivity() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("RecentActivity(10) returned %d entries, want 3", len(all))
	}
	if oldest := all[len(all)-1]; oldest.Source != models.SourcePurchase {
		t.Errorf("oldest entry = %s, want %s", oldest.Source, models.SourcePurchase)
	}
}

func TestGameService_RetriesOnVersionConflict(t *testing.T) {
	fx := newSvcFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.GetBalances(ctx, testTelegramID); err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}

	fx.players.ForceConflicts = 1
	if _, err := fx.svc.Click(ctx, testTelegramID); err != nil {
		t.Fatalf("Click() with one forced conflict error = %v", err)
	}

	fx.players.ForceConflicts = maxUpdateAttempts
	_, err := fx.svc.Click(ctx, testTelegramID)
	if !errors.Is(err, repositories.ErrVersionConflict) {
		t.Fatalf("Click() with exhausted retries error = %v, want ErrVersionConflict", err)
	}
}
