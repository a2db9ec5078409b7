// Package sink pushes timeslot records into the relational store. Every push
// runs in one transaction; a rejected record becomes a per-row error and the
// push carries on with the next one.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"event-template-cli/internal/config"
	"event-template-cli/internal/logger"
	"event-template-cli/internal/model"
)

// CancelledMessage is the row error recorded when a push is cancelled.
const CancelledMessage = "Cancelled by user"

// ErrBlocked rejects a record identical to a stored timeslot.
var ErrBlocked = errors.New("timeslot already exists")

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", "2006/01/02"}

type EventTimeslotModel struct {
	ID                     int64   `gorm:"column:id;primaryKey"`
	BatchID                string  `gorm:"column:batch_id;index"`
	EventName              *string `gorm:"column:event_name"`
	AssetName              *string `gorm:"column:asset_name"`
	ConfigurationName      *string `gorm:"column:configuration_name"`
	Capacity               int64   `gorm:"column:capacity"`
	InsertedUser           string  `gorm:"column:inserted_user"`
	Date                   string  `gorm:"column:date;index"`
	StartTime              *string `gorm:"column:start_time"`
	EndTime                *string `gorm:"column:end_time"`
	Preliminary            int     `gorm:"column:preliminary"`
	IsSingleEventExclusive int     `gorm:"column:is_single_event_exclusive"`
	Ref                    *string `gorm:"column:ref"`
	SourceSheet            string  `gorm:"column:source_sheet"`
	SourceRow              int     `gorm:"column:source_row"`
	CreatedAtUnix          int64   `gorm:"column:created_at;autoCreateTime"`
}

func (EventTimeslotModel) TableName() string { return "event_timeslots" }

// Result summarises one push.
type Result struct {
	BatchID string
	// Attempted counts records inserted inside the transaction before it ended.
	Attempted int
	// Pushed counts committed records. It is 0 when the push was cancelled.
	Pushed    int
	Committed bool
	Errors    []model.PushError
}

// Store is the SQLite-backed record sink.
type Store struct {
	db   *gorm.DB
	user string
}

// Open creates the database file if needed and migrates the timeslot table.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sink: database path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&EventTimeslotModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return &Store{db: db, user: cfg.InsertedUser}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Push inserts records in order. ctx is checked between records; on
// cancellation the transaction is rolled back, nothing counts as pushed and a
// CancelledMessage error is recorded against the record that was next. Begin and commit failures are
// returned as errors.
func (s *Store) Push(ctx context.Context, records []model.TimeslotRecord) (Result, error) {
	res := Result{BatchID: uuid.NewString()}
	tx := s.db.WithContext(context.WithoutCancel(ctx)).Begin()
	if tx.Error != nil {
		return res, fmt.Errorf("begin push: %w", tx.Error)
	}
	for i, rec := range records {
		if ctx.Err() != nil {
			if err := tx.Rollback().Error; err != nil {
				logger.Warnf("rollback after cancel: %v", err)
			}
			res.Errors = append(res.Errors, model.PushError{Sheet: rec.Sheet, RowNumber: rec.RowNumber, Message: CancelledMessage})
			logger.Infof("push cancelled at %s row %d; %d inserted rows rolled back", rec.Sheet, rec.RowNumber, res.Attempted)
			return res, nil
		}
		m, err := s.toModel(rec, res.BatchID)
		if err != nil {
			res.Errors = append(res.Errors, model.PushError{Sheet: rec.Sheet, RowNumber: rec.RowNumber, Message: err.Error()})
			continue
		}
		sp := fmt.Sprintf("rec_%d", i)
		if err := tx.SavePoint(sp).Error; err != nil {
			tx.Rollback()
			return res, fmt.Errorf("savepoint: %w", err)
		}
		if err := insertChecked(tx, m); err != nil {
			if rerr := tx.RollbackTo(sp).Error; rerr != nil {
				tx.Rollback()
				return res, fmt.Errorf("rollback to savepoint: %w", rerr)
			}
			res.Errors = append(res.Errors, model.PushError{Sheet: rec.Sheet, RowNumber: rec.RowNumber, Message: err.Error()})
			continue
		}
		res.Attempted++
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return res, fmt.Errorf("commit push: %w", err)
	}
	res.Committed = true
	res.Pushed = res.Attempted
	logger.Infof("pushed %d timeslots in batch %s (%d rejected)", res.Pushed, res.BatchID, len(res.Errors))
	return res, nil
}

// insertChecked refuses a timeslot that matches a stored one on event, asset,
// configuration, date and times.
func insertChecked(tx *gorm.DB, m *EventTimeslotModel) error {
	var n int64
	err := tx.Model(&EventTimeslotModel{}).
		Where("COALESCE(event_name, '') = ? AND COALESCE(asset_name, '') = ? AND COALESCE(configuration_name, '') = ?",
			deref(m.EventName), deref(m.AssetName), deref(m.ConfigurationName)).
		Where("date = ? AND COALESCE(start_time, '') = ? AND COALESCE(end_time, '') = ?",
			m.Date, deref(m.StartTime), deref(m.EndTime)).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %s %s %s %s", ErrBlocked, deref(m.EventName), deref(m.AssetName), m.Date, deref(m.StartTime))
	}
	return tx.Create(m).Error
}

// Batch returns the stored rows of one push in insertion order.
func (s *Store) Batch(ctx context.Context, batchID string) ([]EventTimeslotModel, error) {
	var rows []EventTimeslotModel
	err := s.db.WithContext(ctx).Where("batch_id = ?", batchID).Order("id").Find(&rows).Error
	return rows, err
}

func (s *Store) toModel(rec model.TimeslotRecord, batchID string) (*EventTimeslotModel, error) {
	date, ok := parseDate(rec.Date)
	if !ok {
		return nil, fmt.Errorf("invalid date %q", rec.Date)
	}
	return &EventTimeslotModel{
		BatchID:           batchID,
		EventName:         textOrNil(rec.Event),
		AssetName:         textOrNil(rec.Resource),
		ConfigurationName: textOrNil(rec.Configuration),
		Capacity:          capacity(rec.Capacity),
		InsertedUser:      s.user,
		Date:              date,
		StartTime:         timeOrNil(rec.StartTime),
		EndTime:           timeOrNil(rec.EndTime),
		Ref:               textOrNil(rec.Reference),
		SourceSheet:       rec.Sheet,
		SourceRow:         rec.RowNumber,
	}, nil
}

// capacity truncates to a whole number; blank or garbage becomes 0.
func capacity(v string) int64 {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return d.IntPart()
}

func parseDate(v string) (string, bool) {
	s := strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly), true
		}
	}
	return "", false
}

func timeOrNil(v string) *string {
	s := strings.TrimSpace(v)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			out := t.Format(time.TimeOnly)
			return &out
		}
	}
	return nil
}

func textOrNil(v string) *string {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
