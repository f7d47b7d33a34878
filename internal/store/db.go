package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&DecisionLog{}, &FraudCase{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// GORM exposes the raw gorm.DB handle.
func (d *Database) GORM() *gorm.DB {
	return d.gorm
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveDecisionLog creates an audit row for a completed evaluation.
func (d *Database) SaveDecisionLog(log *DecisionLog) error {
	if log == nil {
		return errors.New("decision log is nil")
	}
	log.ApplicantID = strings.TrimSpace(log.ApplicantID)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(log).Error
}

// ListDecisions returns a page of decision logs, newest first.
func (d *Database) ListDecisions(offset, limit int) ([]DecisionLog, int64, error) {
	var total int64
	if err := d.gorm.Model(&DecisionLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []DecisionLog
	err := d.gorm.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

// CreateCase opens a fraud case for the given decision log.
func (d *Database) CreateCase(log *DecisionLog) (*FraudCase, error) {
	if log == nil || log.ID == 0 {
		return nil, errors.New("decision log not persisted")
	}
	fraudCase := &FraudCase{
		ID:            uuid.NewString(),
		DecisionLogID: log.ID,
		ApplicantID:   log.ApplicantID,
		RiskCategory:  log.RiskCategory,
		Status:        CaseOpen,
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.gorm.Create(fraudCase).Error; err != nil {
		return nil, err
	}
	return fraudCase, nil
}

// ListCases returns a page of cases, optionally filtered by status.
func (d *Database) ListCases(status string, offset, limit int) ([]FraudCase, int64, error) {
	query := d.gorm.Model(&FraudCase{})
	if trimmed := strings.TrimSpace(status); trimmed != "" {
		query = query.Where("status = ?", strings.ToUpper(trimmed))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []FraudCase
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

// GetCase fetches one case by identifier.
func (d *Database) GetCase(id string) (*FraudCase, error) {
	var fraudCase FraudCase
	if err := d.gorm.First(&fraudCase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &fraudCase, nil
}

// AssignCase hands the case to an analyst and marks it in progress.
func (d *Database) AssignCase(id, assignee string) (*FraudCase, error) {
	assignee = strings.TrimSpace(assignee)
	if assignee == "" {
		return nil, errors.New("assignee is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var fraudCase FraudCase
	if err := d.gorm.First(&fraudCase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if fraudCase.Status == CaseResolved {
		return nil, fmt.Errorf("case %s already resolved", id)
	}
	fraudCase.AssignedTo = assignee
	fraudCase.Status = CaseInProgress
	fraudCase.UpdatedAt = time.Now().UTC()
	if err := d.gorm.Save(&fraudCase).Error; err != nil {
		return nil, err
	}
	return &fraudCase, nil
}

// ResolveCase closes the case with the analyst's resolution note.
func (d *Database) ResolveCase(id, resolution string) (*FraudCase, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var fraudCase FraudCase
	if err := d.gorm.First(&fraudCase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	fraudCase.Status = CaseResolved
	fraudCase.Resolution = strings.TrimSpace(resolution)
	fraudCase.UpdatedAt = time.Now().UTC()
	if err := d.gorm.Save(&fraudCase).Error; err != nil {
		return nil, err
	}
	return &fraudCase, nil
}
