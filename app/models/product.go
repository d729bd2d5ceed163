package models

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Product is a catalog entry offered by the storefront.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Type        string    `gorm:"type:varchar(50);not null;index" json:"type" validate:"required,max=50"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	PriceCents  int64     `gorm:"column:price;not null" json:"price" validate:"gte=0"`
	ImageURL    string    `gorm:"type:varchar(500);default:null" json:"image_url" validate:"max=500"`
	Description string    `gorm:"type:text" json:"description"`
	Active      bool      `gorm:"default:true;index" json:"active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Product) Validate() error {
	v := validator.New()
	return v.Struct(p)
}

var ErrInvalidPrice = errors.New("invalid price")

// ParsePriceCents converts an admin price input into cents. Accepted forms are
// Brazilian notation ("1.234,56", "12,5"), dot decimals ("12.50") and plain
// integers, which are read as whole reais ("12" -> 1200).
func ParsePriceCents(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, nil
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if strings.Count(s, ".") > 1 {
		s = strings.ReplaceAll(s, ".", "")
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, ErrInvalidPrice
	}
	for len(frac) < 2 {
		frac += "0"
	}

	reais, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || reais < 0 {
		return 0, ErrInvalidPrice
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || cents < 0 {
		return 0, ErrInvalidPrice
	}
	return reais*100 + cents, nil
}
