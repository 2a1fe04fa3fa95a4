package database

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"loanrisk-backend/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// In-memory store implementations for handler tests. They honor the same
// contracts as the GORM stores (pending defaults, ownership scoping,
// newest-first ordering) without a SQL connection.

type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User // keyed by external id
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*models.User)}
}

func (s *MemoryUserStore) GetOrCreate(externalID, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[externalID]; ok {
		cp := *u
		return &cp, nil
	}
	u := &models.User{
		Id:         uuid.NewString(),
		ExternalID: externalID,
		Email:      email,
		CreatedAt:  time.Now(),
	}
	s.users[externalID] = u
	cp := *u
	return &cp, nil
}

// Count reports how many distinct subjects have been resolved.
func (s *MemoryUserStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type MemoryAnalysisStore struct {
	mu   sync.Mutex
	rows map[string]*models.Analysis
}

func NewMemoryAnalysisStore() *MemoryAnalysisStore {
	return &MemoryAnalysisStore{rows: make(map[string]*models.Analysis)}
}

func (s *MemoryAnalysisStore) Create(a *models.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Id == "" {
		a.Id = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.StatusPending
	}
	if len(a.AnalysisResult) == 0 {
		a.AnalysisResult = datatypes.JSON([]byte(`{}`))
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.UpdatedAt = a.CreatedAt
	cp := *a
	s.rows[a.Id] = &cp
	return nil
}

func (s *MemoryAnalysisStore) SaveResult(id string, result map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	blob, err := json.Marshal(result)
	if err != nil {
		return err
	}
	row.AnalysisResult = datatypes.JSON(blob)
	row.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryAnalysisStore) UpdateStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	row.Status = status
	row.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryAnalysisStore) ListByOwner(userID string, staff bool) ([]models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Analysis, 0, len(s.rows))
	for _, row := range s.rows {
		if staff || row.UserID == userID {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryAnalysisStore) GetByOwner(id, userID string, staff bool) (*models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || (!staff && row.UserID != userID) {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *MemoryAnalysisStore) DeleteByOwner(id, userID string, staff bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || (!staff && row.UserID != userID) {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

type MemoryIdempotencyStore struct {
	mu   sync.Mutex
	recs map[string]*models.IdempotencyKey
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{recs: make(map[string]*models.IdempotencyKey)}
}

func (s *MemoryIdempotencyStore) Lookup(key string) (*models.IdempotencyKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryIdempotencyStore) Create(rec *models.IdempotencyKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.CreatedAt = time.Now()
	cp := *rec
	s.recs[rec.Key] = &cp
	return nil
}

func (s *MemoryIdempotencyStore) Complete(key string, status int, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[key]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	rec.ResponseStatus = status
	rec.ResponseBody = append([]byte(nil), body...)
	rec.CompletedAt = &now
	return nil
}
