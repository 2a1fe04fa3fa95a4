package database

import (
	"encoding/json"
	"errors"
	"time"

	"loanrisk-backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist or sits outside the
// caller's ownership scope. Ownership filtering hides rows rather than
// forbidding them, so both cases surface as 404.
var ErrNotFound = errors.New("record not found")

// Package-level stores, bound to GORM implementations by Connect(). Tests
// swap in the in-memory versions from memory.go.
var (
	Users       UserStore
	Analyses    AnalysisStore
	Idempotency IdempotencyStore
)

// UserStore resolves identity-provider subjects to local user rows.
type UserStore interface {
	// GetOrCreate returns the user for externalID, creating it on first
	// sight. Re-authenticating the same subject never creates a second row.
	GetOrCreate(externalID, email string) (*models.User, error)
}

// AnalysisStore persists analysis requests scoped to their owner.
type AnalysisStore interface {
	// Create writes the durable pending row before any external call.
	Create(a *models.Analysis) error
	// SaveResult overwrites the result payload only; status is untouched.
	SaveResult(id string, result map[string]any) error
	UpdateStatus(id, status string) error
	// ListByOwner returns the caller's rows newest-first; staff sees all.
	ListByOwner(userID string, staff bool) ([]models.Analysis, error)
	GetByOwner(id, userID string, staff bool) (*models.Analysis, error)
	DeleteByOwner(id, userID string, staff bool) error
}

// IdempotencyStore backs the Idempotency middleware.
type IdempotencyStore interface {
	Lookup(key string) (*models.IdempotencyKey, error)
	Create(rec *models.IdempotencyKey) error
	Complete(key string, status int, body []byte) error
}

type gormUserStore struct{ db *gorm.DB }

func (s *gormUserStore) GetOrCreate(externalID, email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("external_id = ?", externalID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{ExternalID: externalID, Email: email}
	if createErr := s.db.Create(&user).Error; createErr != nil {
		// Unique race: another request created the row first. Read again.
		if err := s.db.Where("external_id = ?", externalID).First(&user).Error; err != nil {
			return nil, createErr
		}
	}
	return &user, nil
}

type gormAnalysisStore struct{ db *gorm.DB }

func (s *gormAnalysisStore) Create(a *models.Analysis) error {
	if a.Status == "" {
		a.Status = models.StatusPending
	}
	if len(a.AnalysisResult) == 0 {
		a.AnalysisResult = datatypes.JSON([]byte(`{}`))
	}
	return s.db.Create(a).Error
}

func (s *gormAnalysisStore) SaveResult(id string, result map[string]any) error {
	blob, err := json.Marshal(result)
	if err != nil {
		return err
	}
	res := s.db.Model(&models.Analysis{}).Where("id = ?", id).
		Update("analysis_result", datatypes.JSON(blob))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormAnalysisStore) UpdateStatus(id, status string) error {
	res := s.db.Model(&models.Analysis{}).Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormAnalysisStore) ListByOwner(userID string, staff bool) ([]models.Analysis, error) {
	q := s.db.Model(&models.Analysis{}).Order("created_at DESC")
	if !staff {
		q = q.Where("user_id = ?", userID)
	}
	var out []models.Analysis
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *gormAnalysisStore) GetByOwner(id, userID string, staff bool) (*models.Analysis, error) {
	q := s.db.Where("id = ?", id)
	if !staff {
		q = q.Where("user_id = ?", userID)
	}
	var a models.Analysis
	if err := q.First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *gormAnalysisStore) DeleteByOwner(id, userID string, staff bool) error {
	q := s.db.Where("id = ?", id)
	if !staff {
		q = q.Where("user_id = ?", userID)
	}
	res := q.Delete(&models.Analysis{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormIdempotencyStore struct{ db *gorm.DB }

func (s *gormIdempotencyStore) Lookup(key string) (*models.IdempotencyKey, error) {
	var rec models.IdempotencyKey
	if err := s.db.Where("key = ?", key).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *gormIdempotencyStore) Create(rec *models.IdempotencyKey) error {
	return s.db.Create(rec).Error
}

func (s *gormIdempotencyStore) Complete(key string, status int, body []byte) error {
	now := time.Now().UTC()
	return s.db.Model(&models.IdempotencyKey{}).
		Where("key = ?", key).
		Updates(map[string]any{
			"response_status": status,
			"response_body":   body,
			"completed_at":    &now,
		}).Error
}
