// Package repotest provides in-memory repository implementations for tests.
// They honor the same contracts as the SQL-backed repositories, including
// the optimistic version check on player updates.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database/models"
	"github.com/atomicprogress/atomgame/atomgame/database/repositories"
	"github.com/disgoorg/snowflake/v2"
)

type PlayerStore struct {
	mu      sync.Mutex
	seq     int64
	players map[int64]*models.Player
	// ForceConflicts makes the next N UpdateChecked calls fail with a
	// version conflict, for exercising retry paths.
	ForceConflicts int
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{players: make(map[int64]*models.Player)}
}

func (s *PlayerStore) Create(_ context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	player.ID = s.seq
	cp := *player
	s.players[player.ID] = &cp
	return nil
}

func (s *PlayerStore) GetByID(_ context.Context, id int64) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *PlayerStore) GetByTelegramID(_ context.Context, telegramID int64) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.TelegramID == telegramID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *PlayerStore) UpdateChecked(_ context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForceConflicts > 0 {
		s.ForceConflicts--
		return repositories.ErrVersionConflict
	}
	stored, ok := s.players[player.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if stored.Version != player.Version {
		return repositories.ErrVersionConflict
	}
	player.Version++
	player.UpdatedAt = time.Now()
	cp := *player
	s.players[player.ID] = &cp
	return nil
}

func (s *PlayerStore) ListPage(_ context.Context, afterID int64, limit int) ([]*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Player
	for _, p := range s.players {
		if p.ID > afterID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type ComplexStore struct {
	mu        sync.Mutex
	seq       int64
	complexes map[int64]*models.Complex
	// FailNextCreate makes the next Create call return this error, for
	// exercising rollback paths.
	FailNextCreate error
	// FailNextUpdate is the same knob for Update.
	FailNextUpdate error
}

func NewComplexStore() *ComplexStore {
	return &ComplexStore{complexes: make(map[int64]*models.Complex)}
}

func (s *ComplexStore) Create(_ context.Context, complex *models.Complex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNextCreate != nil {
		err := s.FailNextCreate
		s.FailNextCreate = nil
		return err
	}
	s.seq++
	complex.ID = s.seq
	if complex.CreatedAt.IsZero() {
		complex.CreatedAt = time.Now()
	}
	cp := *complex
	s.complexes[complex.ID] = &cp
	return nil
}

func (s *ComplexStore) GetByID(_ context.Context, id int64) (*models.Complex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complexes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *ComplexStore) GetByPlayer(_ context.Context, playerID int64) ([]*models.Complex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Complex
	for _, c := range s.complexes {
		if c.PlayerID == playerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *ComplexStore) GetByPlayerAndType(_ context.Context, playerID int64, complexType string) (*models.Complex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.complexes {
		if c.PlayerID == playerID && c.Type == complexType {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *ComplexStore) Update(_ context.Context, complex *models.Complex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNextUpdate != nil {
		err := s.FailNextUpdate
		s.FailNextUpdate = nil
		return err
	}
	if _, ok := s.complexes[complex.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *complex
	s.complexes[complex.ID] = &cp
	return nil
}

func (s *ComplexStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.complexes[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.complexes, id)
	return nil
}

type BoosterStore struct {
	mu       sync.Mutex
	seq      uint64
	boosters map[snowflake.ID]*models.Booster
}

func NewBoosterStore() *BoosterStore {
	return &BoosterStore{boosters: make(map[snowflake.ID]*models.Booster)}
}

func (s *BoosterStore) Insert(_ context.Context, booster *models.Booster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if booster.ID == 0 {
		// snowflake.New has millisecond resolution and collides under
		// rapid inserts.
		s.seq++
		booster.ID = snowflake.ID(s.seq)
	}
	cp := *booster
	s.boosters[booster.ID] = &cp
	return nil
}

func (s *BoosterStore) GetByID(_ context.Context, id snowflake.ID) (*models.Booster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boosters[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *BoosterStore) ActiveByPlayer(_ context.Context, playerID int64, now time.Time) ([]*models.Booster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Booster
	for _, b := range s.boosters {
		if b.PlayerID == playerID && b.EndTime.After(now) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out, nil
}

func (s *BoosterStore) CountActive(ctx context.Context, playerID int64, now time.Time) (int, error) {
	active, err := s.ActiveByPlayer(ctx, playerID, now)
	return len(active), err
}

func (s *BoosterStore) ListExpired(_ context.Context, now time.Time, limit int) ([]*models.Booster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Booster
	for _, b := range s.boosters {
		if !b.EndTime.After(now) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *BoosterStore) SetEndTime(_ context.Context, id snowflake.ID, endTime time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boosters[id]
	if !ok {
		return repositories.ErrNotFound
	}
	b.EndTime = endTime
	return nil
}

func (s *BoosterStore) Delete(_ context.Context, id snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.boosters, id)
	return nil
}

type LedgerStore struct {
	mu      sync.Mutex
	seq     uint64
	entries []*models.LedgerEntry
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{}
}

func (s *LedgerStore) Insert(_ context.Context, entry *models.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == 0 {
		s.seq++
		entry.ID = snowflake.ID(s.seq)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *LedgerStore) RateEvents(_ context.Context, playerID int64, until time.Time) ([]*models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.LedgerEntry
	for _, e := range s.entries {
		if e.PlayerID != playerID || e.Timestamp.After(until) {
			continue
		}
		if e.Source != models.SourcePurchase && e.Source != models.SourceUpgrade {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *LedgerStore) ListByPlayer(_ context.Context, playerID int64, limit int) ([]*models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.LedgerEntry
	for _, e := range s.entries {
		if e.PlayerID == playerID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// BySource returns entries for a player matching one audit source, oldest
// first, for assertions.
func (s *LedgerStore) BySource(playerID int64, source string) []*models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.LedgerEntry
	for _, e := range s.entries {
		if e.PlayerID == playerID && e.Source == source {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}
