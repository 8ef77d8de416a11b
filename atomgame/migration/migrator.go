// Package migration imports legacy player saves from the old MongoDB store
// into the PostgreSQL schema. Unknown complex and booster types are logged
// and skipped; expired boosts are dropped rather than carried over.
package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database/models"
	"github.com/atomicprogress/atomgame/atomgame/economy/catalog"
	"github.com/atomicprogress/atomgame/atomgame/economy/production"
	"github.com/disgoorg/snowflake/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Migrator struct {
	pgDB      *bun.DB
	pool      *pgxpool.Pool
	mongoDB   *mongo.Database
	catalog   *catalog.Catalog
	batchSize int
	collName  string
	stats     MigrationStats
}

func NewMigrator(pgDB *bun.DB, cat *catalog.Catalog) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		catalog:   cat,
		batchSize: 500,
		collName:  "users",
		stats: MigrationStats{
			Tables:    make(map[string]*TableStats),
			StartTime: time.Now(),
		},
	}
}

// UseMongo sets the source database.
func (m *Migrator) UseMongo(client *mongo.Client, dbName string) {
	if client != nil && dbName != "" {
		m.mongoDB = client.Database(dbName)
	}
}

// UsePool enables pgx CopyFrom for the ledger seed entries.
func (m *Migrator) UsePool(pool *pgxpool.Pool) { m.pool = pool }

func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// SetCollectionName overrides the source collection, default "users".
func (m *Migrator) SetCollectionName(name string) {
	if name != "" {
		m.collName = name
	}
}

// MigrateAll streams every save document and imports it. Documents that
// fail to decode or import are counted and skipped; the run keeps going.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	if m.mongoDB == nil {
		return fmt.Errorf("mongoDB not configured; call UseMongo first")
	}

	stats := &TableStats{}
	m.stats.Tables["players"] = stats

	cur, err := m.mongoDB.Collection(m.collName).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query legacy saves: %w", err)
	}
	defer cur.Close(ctx)

	var ledgerRows []*models.LedgerEntry
	for cur.Next(ctx) {
		var save MongoSave
		if err := cur.Decode(&save); err != nil {
			stats.Skipped++
			continue
		}
		stats.Read++

		entry, err := m.importSave(ctx, &save)
		if err != nil {
			stats.Skipped++
			slog.Error("Failed to import legacy save",
				slog.String("type", "db"),
				slog.Int64("telegram_id", save.TelegramID),
				slog.String("error", err.Error()))
			continue
		}
		stats.Imported++
		ledgerRows = append(ledgerRows, entry)

		if len(ledgerRows) >= m.batchSize {
			if err := m.flushLedger(ctx, ledgerRows); err != nil {
				return err
			}
			ledgerRows = ledgerRows[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(ledgerRows) > 0 {
		if err := m.flushLedger(ctx, ledgerRows); err != nil {
			return err
		}
	}

	m.stats.EndTime = time.Now()
	slog.Info("Legacy save migration completed",
		slog.String("type", "db"),
		slog.Int("read", stats.Read),
		slog.Int("imported", stats.Imported),
		slog.Int("skipped", stats.Skipped),
		slog.Duration("took", m.stats.EndTime.Sub(m.stats.StartTime)))
	return nil
}

// importSave writes one player with its complexes and still-active boosters,
// and returns the legacy_import ledger entry seeding the player's history.
func (m *Migrator) importSave(ctx context.Context, save *MongoSave) (*models.LedgerEntry, error) {
	now := time.Now()

	var complexes []*models.Complex
	for _, mc := range save.Complexes {
		if _, err := m.catalog.LookupComplex(mc.Type); err != nil {
			slog.Warn("Skipping unknown complex type in legacy save",
				slog.String("type", "db"),
				slog.Int64("telegram_id", save.TelegramID),
				slog.String("complex_type", mc.Type))
			continue
		}
		level := mc.Level
		if level < 1 {
			level = 1
		}
		if max := m.catalog.Constants().MaxComplexLevel; level > max {
			level = max
		}
		cfg, _ := m.catalog.LookupComplex(mc.Type)
		complexes = append(complexes, &models.Complex{
			Type:         mc.Type,
			Level:        level,
			Production:   catalog.Production(cfg, level),
			LastUpgraded: mc.UpgradeAt,
			CreatedAt:    mc.BoughtAt,
		})
	}

	var boosters []*models.Booster
	for _, mb := range save.ActiveBoosts {
		if !mb.EndTime.After(now) {
			continue
		}
		cfg, err := m.catalog.LookupBooster(mb.Type)
		if err != nil {
			slog.Warn("Skipping unknown booster type in legacy save",
				slog.String("type", "db"),
				slog.Int64("telegram_id", save.TelegramID),
				slog.String("booster_type", mb.Type))
			continue
		}
		boosters = append(boosters, &models.Booster{
			ID:         snowflake.New(now),
			Type:       mb.Type,
			StartTime:  mb.StartTime,
			EndTime:    mb.EndTime,
			Multiplier: cfg.Multiplier,
			Affects:    string(cfg.Affects),
		})
	}

	prod := production.Compute(m.catalog, complexes, nil, now)

	lastActivity := save.LastActivity
	if lastActivity.IsZero() {
		lastActivity = now
	}
	player := &models.Player{
		TelegramID:         save.TelegramID,
		Username:           save.Username,
		FirstName:          save.FirstName,
		LastName:           save.LastName,
		Energons:           save.Resources.Energons,
		Neutrons:           save.Resources.Neutrons,
		Particles:          save.Resources.Particles,
		EnergonRate:        prod.Base.Energons,
		NeutronRate:        prod.Base.Neutrons,
		ParticleRate:       prod.Base.Particles,
		EnergonMultiplier:  1,
		NeutronMultiplier:  1,
		ParticleMultiplier: 1,
		ClickMultiplier:    1,
		TotalClicks:        save.TotalClicks,
		ManualClicks:       save.TotalClicks,
		LastActivity:       lastActivity,
		CreatedAt:          save.CreatedAt,
		UpdatedAt:          now,
	}

	if _, err := m.pgDB.NewInsert().
		Model(player).
		On("CONFLICT (telegram_id) DO NOTHING").
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to insert player: %w", err)
	}
	if player.ID == 0 {
		// Conflict path: player already imported, leave it untouched.
		return nil, fmt.Errorf("player %d already exists", save.TelegramID)
	}

	for _, c := range complexes {
		c.PlayerID = player.ID
	}
	if len(complexes) > 0 {
		if _, err := m.pgDB.NewInsert().Model(&complexes).Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to insert complexes: %w", err)
		}
	}

	for _, b := range boosters {
		b.PlayerID = player.ID
	}
	if len(boosters) > 0 {
		if _, err := m.pgDB.NewInsert().Model(&boosters).Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to insert boosters: %w", err)
		}
	}

	meta, _ := json.Marshal(map[string]any{
		"complexes": len(complexes),
		"boosters":  len(boosters),
	})
	return &models.LedgerEntry{
		ID:                snowflake.New(now),
		PlayerID:          player.ID,
		Timestamp:         now,
		Source:            models.SourceLegacyImport,
		EnergonsDelta:     save.Resources.Energons,
		NeutronsDelta:     save.Resources.Neutrons,
		ParticlesDelta:    save.Resources.Particles,
		EnergonRateDelta:  prod.Base.Energons,
		NeutronRateDelta:  prod.Base.Neutrons,
		ParticleRateDelta: prod.Base.Particles,
		Metadata:          meta,
	}, nil
}

// flushLedger bulk-writes seed ledger entries, preferring pgx CopyFrom when
// a pool is configured.
func (m *Migrator) flushLedger(ctx context.Context, entries []*models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if m.pool != nil {
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{
				int64(e.ID), e.PlayerID, e.Timestamp, e.Source,
				e.EnergonsDelta, e.NeutronsDelta, e.ParticlesDelta,
				e.EnergonRateDelta, e.NeutronRateDelta, e.ParticleRateDelta,
				e.ElapsedSeconds, e.Metadata,
			})
		}
		_, err := m.pool.CopyFrom(ctx,
			pgx.Identifier{"resource_ledger"},
			[]string{
				"id", "player_id", "timestamp", "source",
				"energons_delta", "neutrons_delta", "particles_delta",
				"energon_rate_delta", "neutron_rate_delta", "particle_rate_delta",
				"elapsed_seconds", "metadata",
			},
			pgx.CopyFromRows(rows),
		)
		if err == nil {
			return nil
		}
		slog.Warn("Ledger COPY failed, falling back to batch insert",
			slog.String("type", "db"),
			slog.String("error", err.Error()))
	}

	if _, err := m.pgDB.NewInsert().Model(&entries).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert ledger seed entries: %w", err)
	}
	return nil
}
