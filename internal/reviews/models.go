package reviews

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Review struct {
	UID        uuid.UUID  `json:"uid" gorm:"primaryKey;type:uuid"`
	Rating     int        `json:"rating" gorm:"not null"`
	ReviewText string     `json:"review_text" gorm:"type:text;not null"`
	UserUID    *uuid.UUID `json:"user_uid" gorm:"type:uuid;index"`
	BookUID    *uuid.UUID `json:"book_uid" gorm:"type:uuid;index"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.UID == uuid.Nil {
		r.UID = uuid.New()
	}
	return nil
}

// CreateReviewRequest is the body of POST /reviews/book/:book_uid
type CreateReviewRequest struct {
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	ReviewText string `json:"review_text" validate:"required,max=2000"`
}
