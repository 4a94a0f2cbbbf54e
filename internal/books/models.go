package books

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"bookly/internal/reviews"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = v
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case nil:
		d.Time = time.Time{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

func (d *Date) scanString(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Book struct {
	UID           uuid.UUID        `json:"uid" gorm:"primaryKey;type:uuid"`
	Title         string           `json:"title" gorm:"not null"`
	Author        string           `json:"author" gorm:"not null"`
	Publisher     string           `json:"publisher" gorm:"not null"`
	PublishedDate Date             `json:"published_date" gorm:"type:date;not null"`
	PageCount     int              `json:"page_count" gorm:"not null"`
	Language      string           `json:"language" gorm:"not null"`
	UserUID       *uuid.UUID       `json:"user_uid" gorm:"type:uuid;index"`
	Reviews       []reviews.Review `json:"reviews,omitempty" gorm:"foreignKey:BookUID;references:UID"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.UID == uuid.Nil {
		b.UID = uuid.New()
	}
	return nil
}

type CreateBookRequest struct {
	Title         string `json:"title" validate:"required,max=255"`
	Author        string `json:"author" validate:"required,max=255"`
	Publisher     string `json:"publisher" validate:"required,max=255"`
	PublishedDate string `json:"published_date" validate:"required,datetime=2006-01-02"`
	PageCount     int    `json:"page_count" validate:"required,min=1"`
	Language      string `json:"language" validate:"required,max=50"`
}

// UpdateBookRequest carries a partial update; nil fields are left unchanged.
type UpdateBookRequest struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=255"`
	Author        *string `json:"author" validate:"omitempty,min=1,max=255"`
	Publisher     *string `json:"publisher" validate:"omitempty,min=1,max=255"`
	PublishedDate *string `json:"published_date" validate:"omitempty,datetime=2006-01-02"`
	PageCount     *int    `json:"page_count" validate:"omitempty,min=1"`
	Language      *string `json:"language" validate:"omitempty,min=1,max=50"`
}

func (r *UpdateBookRequest) apply(b *Book) error {
	if r.Title != nil {
		b.Title = *r.Title
	}
	if r.Author != nil {
		b.Author = *r.Author
	}
	if r.Publisher != nil {
		b.Publisher = *r.Publisher
	}
	if r.PublishedDate != nil {
		d, err := ParseDate(*r.PublishedDate)
		if err != nil {
			return err
		}
		b.PublishedDate = d
	}
	if r.PageCount != nil {
		b.PageCount = *r.PageCount
	}
	if r.Language != nil {
		b.Language = *r.Language
	}
	return nil
}
