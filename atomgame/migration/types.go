package migration

import "time"

// MongoSave mirrors one player document from the legacy save store.
type MongoSave struct {
	TelegramID int64  `bson:"telegramId"`
	Username   string `bson:"username"`
	FirstName  string `bson:"firstName"`
	LastName   string `bson:"lastName"`
	Resources  struct {
		Energons  float64 `bson:"energons"`
		Neutrons  float64 `bson:"neutrons"`
		Particles float64 `bson:"particles"`
	} `bson:"resources"`
	Complexes    []MongoComplex `bson:"complexes"`
	ActiveBoosts []MongoBoost   `bson:"activeBoosts"`
	TotalClicks  int64          `bson:"totalClicks"`
	LastActivity time.Time      `bson:"lastActivity"`
	CreatedAt    time.Time      `bson:"createdAt"`
}

type MongoComplex struct {
	Type      string    `bson:"type"`
	Level     int       `bson:"level"`
	BoughtAt  time.Time `bson:"boughtAt"`
	UpgradeAt time.Time `bson:"upgradeAt"`
}

type MongoBoost struct {
	Type      string    `bson:"type"`
	StartTime time.Time `bson:"startTime"`
	EndTime   time.Time `bson:"endTime"`
}

// TableStats tracks per-table migration counters.
type TableStats struct {
	Read     int
	Imported int
	Skipped  int
}

type MigrationStats struct {
	Tables    map[string]*TableStats
	StartTime time.Time
	EndTime   time.Time
}
