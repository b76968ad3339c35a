package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/franciscosanchezn/bonos-api/internal/cache"
	"github.com/franciscosanchezn/bonos-api/internal/metrics"
	"github.com/franciscosanchezn/bonos-api/internal/models"
	"github.com/franciscosanchezn/bonos-api/internal/validators"
)

// OfferFilter narrows offer listings
type OfferFilter struct {
	// Category keeps only offers with exactly this category when non-empty
	Category string
	// IncludeDeleted also returns soft-deleted offers (admin listings only)
	IncludeDeleted bool
}

// OfferInput is the payload accepted when creating an offer
type OfferInput struct {
	Title            string           `json:"title" validate:"required,notblank,max=255"`
	ShortDescription string           `json:"shortDescription" validate:"required,notblank,max=255"`
	Description      string           `json:"description" validate:"required,notblank"`
	Images           []string         `json:"images" validate:"required,min=1,dive,required"`
	Category         string           `json:"category" validate:"required,offer_category"`
	PlaceName        string           `json:"placeName" validate:"required,notblank,max=255"`
	Location         *models.Location `json:"location" validate:"required"`
	Price            *float64         `json:"price" validate:"required,gte=0,lte=99999999.99,cents"`
	Discount         *int             `json:"discount" validate:"omitnil,gte=0,lte=100"`
}

// OfferPatch lists the fields an update may change. Nil fields are left untouched.
type OfferPatch struct {
	Title            *string          `json:"title" validate:"omitnil,notblank,max=255"`
	ShortDescription *string          `json:"shortDescription" validate:"omitnil,notblank,max=255"`
	Description      *string          `json:"description" validate:"omitnil,notblank"`
	Images           *[]string        `json:"images" validate:"omitnil,min=1,dive,required"`
	Category         *string          `json:"category" validate:"omitnil,offer_category"`
	PlaceName        *string          `json:"placeName" validate:"omitnil,notblank,max=255"`
	Location         *models.Location `json:"location" validate:"omitnil"`
	Price            *float64         `json:"price" validate:"omitnil,gte=0,lte=99999999.99,cents"`
	Discount         *int             `json:"discount" validate:"omitnil,gte=0,lte=100"`
	IsDeleted        OptionalTime     `json:"isDeleted" validate:"-"`
}

// OptionalTime distinguishes an absent JSON field from an explicit null
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// OfferService manages the offer lifecycle: ACTIVE until soft-deleted
type OfferService interface {
	// List returns active offers in creation order
	List(ctx context.Context, filter OfferFilter) ([]models.Offer, error)
	// ListAll returns offers for the admin console, deleted ones only when asked
	ListAll(ctx context.Context, filter OfferFilter) ([]models.Offer, error)
	// Get returns an offer whatever its state
	Get(ctx context.Context, id string) (*models.Offer, error)
	// GetActive returns an offer only if it has not been deleted
	GetActive(ctx context.Context, id string) (*models.Offer, error)
	// Create validates and stores a new active offer owned by ownerID
	Create(ctx context.Context, input OfferInput, ownerID string) (*models.Offer, error)
	// Update merges the patch into an existing offer
	Update(ctx context.Context, id string, patch OfferPatch) (*models.Offer, error)
	// SoftDelete marks the offer deleted; repeated calls are no-ops
	SoftDelete(ctx context.Context, id string) (*models.Offer, error)
}

// OfferOption customises an OfferService
type OfferOption func(*offerService)

// WithCache caches active listings in store for ttl
func WithCache(store cache.Store, ttl time.Duration) OfferOption {
	return func(s *offerService) {
		s.cache = store
		s.cacheTTL = ttl
	}
}

// WithClock overrides the time source used for soft deletes
func WithClock(now func() time.Time) OfferOption {
	return func(s *offerService) {
		s.now = now
	}
}

type offerService struct {
	db       *gorm.DB
	cache    cache.Store
	cacheTTL time.Duration
	now      func() time.Time
}

// NewOfferService creates a new instance of OfferService
func NewOfferService(db *gorm.DB, opts ...OfferOption) OfferService {
	s := &offerService{
		db:       db,
		cache:    cache.Noop{},
		cacheTTL: time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// offerListSpace is the cache key space of active listings. Every mutation
// bumps its generation, so a listing loaded before a write finished is stored
// under a key no reader asks for again.
const offerListSpace = "offers:active"

func offerListKey(gen int64, category string) string {
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("%s:%d:%s", offerListSpace, gen, category)
}

func (s *offerService) List(ctx context.Context, filter OfferFilter) ([]models.Offer, error) {
	// Only known categories are cached so arbitrary query strings cannot grow the key space
	if filter.Category != "" && !models.IsOfferCategory(filter.Category) {
		return s.find(ctx, OfferFilter{Category: filter.Category})
	}
	gen, err := s.cache.Generation(ctx, offerListSpace)
	if err != nil {
		log.WithError(err).Warn("Reading offer list generation failed, skipping cache")
		return s.find(ctx, OfferFilter{Category: filter.Category})
	}
	offers, err := cache.GetOrLoadJSON(s.cache, ctx, offerListKey(gen, filter.Category), s.cacheTTL,
		func(ctx context.Context) ([]models.Offer, error) {
			return s.find(ctx, OfferFilter{Category: filter.Category})
		})
	if err != nil {
		return nil, err
	}
	if offers == nil {
		offers = []models.Offer{}
	}
	return offers, nil
}

func (s *offerService) ListAll(ctx context.Context, filter OfferFilter) ([]models.Offer, error) {
	return s.find(ctx, filter)
}

func (s *offerService) find(ctx context.Context, filter OfferFilter) ([]models.Offer, error) {
	query := s.db.WithContext(ctx).Model(&models.Offer{})
	if !filter.IncludeDeleted {
		query = query.Scopes(models.ActiveOffers)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	offers := []models.Offer{}
	if err := query.Order("created_at ASC").Order("id ASC").Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("listing offers: %w", err)
	}
	return offers, nil
}

func (s *offerService) Get(ctx context.Context, id string) (*models.Offer, error) {
	return s.first(s.db.WithContext(ctx), id)
}

func (s *offerService) GetActive(ctx context.Context, id string) (*models.Offer, error) {
	return s.first(s.db.WithContext(ctx).Scopes(models.ActiveOffers), id)
}

func (s *offerService) first(query *gorm.DB, id string) (*models.Offer, error) {
	var offer models.Offer
	if err := query.Where("id = ?", id).First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding offer: %w", err)
	}
	return &offer, nil
}

func (s *offerService) Create(ctx context.Context, input OfferInput, ownerID string) (*models.Offer, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	if err := validators.Validate(input); err != nil {
		return nil, newValidationError(err)
	}

	offer := &models.Offer{
		Title:            input.Title,
		ShortDescription: input.ShortDescription,
		Description:      input.Description,
		Images:           append([]string(nil), input.Images...),
		Category:         input.Category,
		PlaceName:        input.PlaceName,
		Location:         *input.Location,
		Price:            *input.Price,
		Discount:         input.Discount,
		UserID:           ownerID,
		IsDeleted:        nil,
	}
	if err := s.db.WithContext(ctx).Create(offer).Error; err != nil {
		return nil, fmt.Errorf("creating offer: %w", err)
	}

	metrics.OfferMutations.WithLabelValues("created").Inc()
	s.invalidate(ctx)
	log.WithFields(log.Fields{"offer_id": offer.ID, "user_id": ownerID}).Info("Offer created")
	return offer, nil
}

func (s *offerService) Update(ctx context.Context, id string, patch OfferPatch) (*models.Offer, error) {
	if err := validators.Validate(patch); err != nil {
		return nil, newValidationError(err)
	}

	var (
		offer   models.Offer
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&offer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("loading offer: %w", err)
		}
		if changed = patch.apply(&offer); !changed {
			return nil
		}
		if err := tx.Save(&offer).Error; err != nil {
			return fmt.Errorf("saving offer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		metrics.OfferMutations.WithLabelValues("updated").Inc()
		s.invalidate(ctx)
		log.WithField("offer_id", offer.ID).Info("Offer updated")
	}
	return &offer, nil
}

// apply copies the set fields onto offer and reports whether anything was set
func (p OfferPatch) apply(offer *models.Offer) bool {
	changed := false
	if p.Title != nil {
		offer.Title, changed = *p.Title, true
	}
	if p.ShortDescription != nil {
		offer.ShortDescription, changed = *p.ShortDescription, true
	}
	if p.Description != nil {
		offer.Description, changed = *p.Description, true
	}
	if p.Images != nil {
		offer.Images, changed = append([]string(nil), (*p.Images)...), true
	}
	if p.Category != nil {
		offer.Category, changed = *p.Category, true
	}
	if p.PlaceName != nil {
		offer.PlaceName, changed = *p.PlaceName, true
	}
	if p.Location != nil {
		offer.Location, changed = *p.Location, true
	}
	if p.Price != nil {
		offer.Price, changed = *p.Price, true
	}
	if p.Discount != nil {
		offer.Discount, changed = p.Discount, true
	}
	if p.IsDeleted.Set {
		offer.IsDeleted, changed = p.IsDeleted.Value, true
	}
	return changed
}

func (s *offerService) SoftDelete(ctx context.Context, id string) (*models.Offer, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ? AND is_deleted IS NULL", id).
		Update("is_deleted", s.now().UTC())
	if result.Error != nil {
		return nil, fmt.Errorf("soft deleting offer: %w", result.Error)
	}

	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if result.RowsAffected > 0 {
		metrics.OfferMutations.WithLabelValues("deleted").Inc()
		s.invalidate(ctx)
		log.WithField("offer_id", id).Info("Offer soft-deleted")
	} else {
		log.WithField("offer_id", id).Debug("Offer already deleted")
	}
	return offer, nil
}

// invalidate retires every cached active listing. Old generations expire with their TTL.
func (s *offerService) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx, offerListSpace); err != nil {
		log.WithError(err).Error("Failed to invalidate offer list cache")
	}
}
