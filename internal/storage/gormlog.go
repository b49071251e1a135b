package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/parisxmas/vacancyform/internal/models"
)

// submissionRow stores the ordered fields as a JSON array so the label
// order survives the round trip.
type submissionRow struct {
	ID          string    `gorm:"primaryKey;size:36"`
	SubmittedAt time.Time `gorm:"index;not null"`
	Fields      string    `gorm:"type:text;not null"`
	CreatedAt   time.Time
}

func (submissionRow) TableName() string { return "vacancy_submissions" }

// GormLog keeps the submission log in Postgres or SQLite. Each append is a
// single insert, so concurrent submissions cannot overwrite each other.
type GormLog struct {
	db *gorm.DB
}

// OpenGormLog connects with driver "postgres" or "sqlite" and migrates the
// table.
func OpenGormLog(driver, dsn string) (*GormLog, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported log driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if err := db.AutoMigrate(&submissionRow{}); err != nil {
		return nil, fmt.Errorf("migrate submissions: %w", err)
	}
	return &GormLog{db: db}, nil
}

func (l *GormLog) Append(ctx context.Context, rec *models.Record) error {
	fields, err := json.Marshal(rec.Fields())
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	id := rec.ID()
	if id == "" {
		id = uuid.NewString()
	}
	row := submissionRow{ID: id, SubmittedAt: rec.SubmittedAt(), Fields: string(fields)}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (l *GormLog) Records(ctx context.Context) ([]*models.Record, error) {
	var rows []submissionRow
	if err := l.db.WithContext(ctx).Order("submitted_at asc").Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	out := make([]*models.Record, 0, len(rows))
	for _, r := range rows {
		var fields []models.Field
		if err := json.Unmarshal([]byte(r.Fields), &fields); err != nil {
			return nil, fmt.Errorf("decode submission %s: %w", r.ID, err)
		}
		out = append(out, models.NewRecord(r.ID, r.SubmittedAt, fields))
	}
	return out, nil
}

func (l *GormLog) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
