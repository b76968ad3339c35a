package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Offer categories shown by the storefront filter
const (
	CategorySpa          = "Spa"
	CategoryRestaurantes = "Restaurantes"
	CategoryOcio         = "Ocio"
	CategoryViajes       = "Viajes"
	CategoryBelleza      = "Belleza"
)

// OfferCategories lists every category an offer can be published under, in display order
var OfferCategories = []string{
	CategorySpa,
	CategoryRestaurantes,
	CategoryOcio,
	CategoryViajes,
	CategoryBelleza,
}

// IsOfferCategory reports whether category is one of OfferCategories (case-sensitive)
func IsOfferCategory(category string) bool {
	for _, c := range OfferCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Location is the map position of the place an offer is redeemed at
type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Offer represents a discounted listing for a place or service
type Offer struct {
	ID               string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title            string     `gorm:"not null" json:"title"`
	ShortDescription string     `gorm:"not null" json:"shortDescription"`
	Description      string     `gorm:"type:text;not null" json:"description"`
	Images           []string   `gorm:"serializer:json;type:json;not null" json:"images"`
	Category         string     `gorm:"index;not null" json:"category"`
	PlaceName        string     `gorm:"not null" json:"placeName"`
	Location         Location   `gorm:"serializer:json;type:json;not null" json:"location"`
	Price            float64    `gorm:"type:decimal(10,2);not null" json:"price"`
	Discount         *int       `json:"discount"`
	UserID           string     `gorm:"type:varchar(36);index;not null" json:"userId"`
	IsDeleted        *time.Time `gorm:"index" json:"isDeleted"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns a random UUID when the offer has no id yet
func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// Deleted reports whether the offer has been soft-deleted
func (o Offer) Deleted() bool {
	return o.IsDeleted != nil
}

// FinalPrice is the price the customer pays once the discount is applied
func (o Offer) FinalPrice() float64 {
	return FinalPrice(o.Price, o.Discount)
}

// FinalPrice applies an optional percentage discount to price and rounds the
// result to two decimals. A nil discount is treated as zero.
func FinalPrice(price float64, discount *int) float64 {
	d := 0
	if discount != nil {
		d = *discount
	}
	return math.Round(price*float64(100-d)) / 100
}

// ActiveOffers restricts a query to offers that have not been soft-deleted.
// Every storefront read goes through this scope.
func ActiveOffers(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted IS NULL")
}
