package db

import (
	"context"
	"time"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// WinnerRecord is one archived winner row.
type WinnerRecord struct {
	ID         uint      `gorm:"primaryKey"`
	GameID     string    `gorm:"index;size:36"`
	CardID     string    `gorm:"size:36"`
	CardNumber int
	PlayerName string
	Pattern    string `gorm:"size:32"`
	SongID     string `gorm:"size:36"`
	Round      int
	DetectedAt time.Time
	ArchivedAt time.Time
}

func (WinnerRecord) TableName() string {
	return "winner_history"
}

// Archive stores the winners of finished rounds.
type Archive struct {
	db  *gorm.DB
	log zerolog.Logger
}

// OpenArchive opens (creating if needed) the sqlite database at path and
// migrates the schema.
func OpenArchive(path string, log zerolog.Logger) (*Archive, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, errors.Wrapf(err, "open archive %s", path)
	}
	return NewArchive(gdb, log)
}

func NewArchive(gdb *gorm.DB, log zerolog.Logger) (*Archive, error) {
	if err := gdb.AutoMigrate(&WinnerRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate archive")
	}
	return &Archive{db: gdb, log: log.With().Str("component", "archive").Logger()}, nil
}

func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return errors.Wrap(err, "archive handle")
	}
	return sqlDB.Close()
}

// ArchiveWinners appends the winners of a round for gameID. An empty list is a no-op.
func (a *Archive) ArchiveWinners(ctx context.Context, gameID uuid.UUID, winners []models.Winner) error {
	if len(winners) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]WinnerRecord, len(winners))
	for i, w := range winners {
		rows[i] = WinnerRecord{
			GameID:     gameID.String(),
			CardID:     w.CardID.String(),
			CardNumber: w.CardNumber,
			PlayerName: w.PlayerName,
			Pattern:    string(w.Pattern),
			SongID:     w.SongID.String(),
			Round:      w.Round,
			DetectedAt: w.DetectedAt,
			ArchivedAt: now,
		}
	}
	if err := a.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return errors.Wrapf(err, "archive winners for game %s", gameID)
	}
	a.log.Info().Str("game_id", gameID.String()).Int("winners", len(rows)).Msg("winners archived")
	return nil
}

// History returns the archived winners of a game, oldest round first.
func (a *Archive) History(ctx context.Context, gameID uuid.UUID) ([]models.Winner, error) {
	var rows []WinnerRecord
	err := a.db.WithContext(ctx).
		Where("game_id = ?", gameID.String()).
		Order("round asc").Order("detected_at asc").Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "load history for game %s", gameID)
	}
	out := make([]models.Winner, 0, len(rows))
	for _, r := range rows {
		w := models.Winner{
			CardNumber: r.CardNumber,
			PlayerName: r.PlayerName,
			Pattern:    models.PatternType(r.Pattern),
			Round:      r.Round,
			DetectedAt: r.DetectedAt,
		}
		w.CardID, _ = uuid.Parse(r.CardID)
		w.SongID, _ = uuid.Parse(r.SongID)
		out = append(out, w)
	}
	return out, nil
}
