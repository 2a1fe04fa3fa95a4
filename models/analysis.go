package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Analysis lifecycle states. The LLM call never writes Status; after creation
// it only changes through the manual status endpoint.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusReview    = "review"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusReview, StatusCancelled:
		return true
	}
	return false
}

// Analysis is one submitted loan application together with its assessment.
// AnalysisResult starts as an empty object; after the LLM call it holds either
// the structured assessment or {"error": "<message>"}.
type Analysis struct {
	Id             string         `json:"id" gorm:"primaryKey"`
	UserID         string         `json:"-" gorm:"index;not null"`
	User           User           `json:"-" gorm:"foreignKey:UserID;references:Id;constraint:OnDelete:CASCADE"`
	UserEmail      string         `json:"user_email,omitempty" gorm:"-"`
	CustomerInput  datatypes.JSON `json:"customer_input" gorm:"type:jsonb;not null"`
	CustomerPhone  string         `json:"customer_phone" gorm:"size:20;not null"`
	Status         string         `json:"status" gorm:"size:50;not null;default:pending"`
	AnalysisResult datatypes.JSON `json:"analysis_result" gorm:"type:jsonb"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (a *Analysis) BeforeCreate(tx *gorm.DB) (err error) {
	if a.Id == "" {
		a.Id = uuid.NewString()
	}
	return
}
