package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestFinalPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		discount *int
		want     float64
	}{
		{"42 percent off 60", 60, intPtr(42), 34.80},
		{"nil discount", 60, nil, 60},
		{"zero discount", 19.99, intPtr(0), 19.99},
		{"full discount", 80, intPtr(100), 0},
		{"rounds to cents", 10, intPtr(33), 6.70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FinalPrice(tt.price, tt.discount), 0.0001)
		})
	}
}

func TestOffer_FinalPriceUsesOwnFields(t *testing.T) {
	offer := Offer{Price: 120, Discount: intPtr(50)}
	assert.InDelta(t, 60.0, offer.FinalPrice(), 0.0001)
}

func TestOffer_Deleted(t *testing.T) {
	offer := Offer{}
	assert.False(t, offer.Deleted())

	now := time.Now()
	offer.IsDeleted = &now
	assert.True(t, offer.Deleted())
}

func TestIsOfferCategory(t *testing.T) {
	for _, c := range OfferCategories {
		assert.True(t, IsOfferCategory(c), c)
	}
	assert.False(t, IsOfferCategory("spa"), "categories are case-sensitive")
	assert.False(t, IsOfferCategory(""))
	assert.False(t, IsOfferCategory("Deportes"))
}

func TestUser_PasswordHashing(t *testing.T) {
	user := &User{Password: "secret1"}
	assert.NoError(t, user.HashPassword())
	assert.NotEqual(t, "secret1", user.Password)
	assert.True(t, user.CheckPassword("secret1"))
	assert.False(t, user.CheckPassword("secret2"))
}

func TestUser_IsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleUser}).IsAdmin())
}
