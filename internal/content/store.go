package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrMissingTable = errors.New("game_images table does not exist")

// undefined_table
const pgUndefinedTable = "42P01"

// GameImage is one custom image uploaded by the operators.
type GameImage struct {
	ID        uint           `gorm:"primaryKey"`
	URL       string         `gorm:"not null"`
	Answers   pq.StringArray `gorm:"type:text[];not null"`
	Hints     pq.StringArray `gorm:"type:text[]"`
	Active    bool           `gorm:"not null;default:true;index"`
	CreatedAt time.Time
}

func (GameImage) TableName() string { return "game_images" }

func OpenStore(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// StoreSource reads active rows from game_images, newest first.
type StoreSource struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewStoreSource(db *gorm.DB, log *zap.Logger) *StoreSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &StoreSource{db: db, log: log}
}

func (s *StoreSource) Name() string { return "db" }

// Migrate creates or updates the game_images table.
func (s *StoreSource) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&GameImage{})
}

func (s *StoreSource) Load(ctx context.Context) ([]engine.RoundDefinition, error) {
	var rows []GameImage
	err := s.db.WithContext(ctx).
		Select("url", "answers", "hints").
		Where("active = ?", true).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		if isUndefinedTable(err) {
			s.log.Warn("game_images table is missing; run with --db-migrate to create it")
			return nil, ErrMissingTable
		}
		return nil, fmt.Errorf("query game_images: %w", err)
	}
	return imageRounds(rows), nil
}

func imageRounds(rows []GameImage) []engine.RoundDefinition {
	rounds := make([]engine.RoundDefinition, 0, len(rows))
	for _, row := range rows {
		if len(row.Answers) == 0 {
			continue
		}
		rounds = append(rounds, engine.RoundDefinition{
			ImageSource: row.URL,
			Answers:     []string(row.Answers),
			Hints:       []string(row.Hints),
		})
	}
	return rounds
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}
