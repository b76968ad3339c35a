package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/franciscosanchezn/bonos-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Offer{}, &models.OAuthClient{}, &models.OAuthToken{}))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	user := &models.User{
		Email:    email,
		Name:     "Test",
		LastName: "User",
		Password: "secret1",
		Role:     role,
	}
	require.NoError(t, user.HashPassword())
	require.NoError(t, db.Create(user).Error)
	return user
}

func ptr[T any](v T) *T { return &v }

func validOfferInput() OfferInput {
	return OfferInput{
		Title:            "Circuito Spa",
		ShortDescription: "Relax total",
		Description:      "Circuito termal de dos horas",
		Images:           []string{"/images/spa.jpg"},
		Category:         models.CategorySpa,
		PlaceName:        "Hotel Botanico",
		Location:         &models.Location{Lat: 28.41, Lng: -16.54},
		Price:            ptr(60.0),
		Discount:         ptr(42),
	}
}

// countingStore records bumps so cache behaviour can be asserted. afterLoad,
// when set, runs once between a load and the write of its result.
type countingStore struct {
	mu        sync.Mutex
	data      map[string][]byte
	gens      map[string]int64
	bumps     int
	afterLoad func()
}

func newCountingStore() *countingStore {
	return &countingStore{data: map[string][]byte{}, gens: map[string]int64{}}
}

func (c *countingStore) GetOrLoad(ctx context.Context, key string, _ time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	b, ok := c.data[key]
	c.mu.Unlock()
	if ok {
		return b, nil
	}
	b, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	hook := c.afterLoad
	c.afterLoad = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	c.mu.Lock()
	c.data[key] = b
	c.mu.Unlock()
	return b, nil
}

func (c *countingStore) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *countingStore) Generation(_ context.Context, name string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[name], nil
}

func (c *countingStore) Bump(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[name]++
	c.bumps++
	return nil
}
