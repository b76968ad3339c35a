package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/bonos-api/internal/models"
	"github.com/franciscosanchezn/bonos-api/internal/services"
)

// OfferController handles HTTP requests related to offers
type OfferController interface {
	// ListOffers retrieves active offers for the storefront
	ListOffers(c *gin.Context)
	// GetOffer retrieves an active offer by its ID
	GetOffer(c *gin.Context)
	// AdminListOffers retrieves offers for the back-office, optionally including deleted ones
	AdminListOffers(c *gin.Context)
	// AdminGetOffer retrieves an offer by its ID whatever its state
	AdminGetOffer(c *gin.Context)
	// CreateOffer creates a new offer
	CreateOffer(c *gin.Context)
	// UpdateOffer updates an existing offer
	UpdateOffer(c *gin.Context)
	// DeleteOffer soft-deletes an offer by its ID
	DeleteOffer(c *gin.Context)
}

type controller struct {
	service services.OfferService
}

// NewOfferController creates a new instance of OfferController
func NewOfferController(service services.OfferService) *controller {
	return &controller{service: service}
}

// ListOffers godoc
// @Summary List offers
// @Description List active offers in creation order, optionally filtered by exact category
// @Tags offers
// @Produce json
// @Param category query string false "Category (Spa, Restaurantes, Ocio, Viajes, Belleza)"
// @Success 200 {array} models.Offer
// @Failure 500 {object} models.APIError
// @Router /api/v1/public/offers [get]
func (c *controller) ListOffers(ctx *gin.Context) {
	offers, err := c.service.List(ctx.Request.Context(), services.OfferFilter{Category: ctx.Query("category")})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, offers)
}

// GetOffer godoc
// @Summary Get offer by ID
// @Description Get a single active offer. Deleted offers are reported as not found.
// @Tags offers
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {object} models.Offer
// @Failure 404 {object} models.APIError
// @Router /api/v1/public/offers/{id} [get]
func (c *controller) GetOffer(ctx *gin.Context) {
	offer, err := c.service.GetActive(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, offer)
}

// AdminListOffers godoc
// @Summary List offers for administration
// @Description List offers in creation order. Deleted offers are included when includeDeleted is true.
// @Tags admin
// @Produce json
// @Param category query string false "Category"
// @Param includeDeleted query bool false "Include soft-deleted offers"
// @Success 200 {array} models.Offer
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/offers [get]
func (c *controller) AdminListOffers(ctx *gin.Context) {
	filter := services.OfferFilter{Category: ctx.Query("category")}
	if raw := ctx.Query("includeDeleted"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "includeDeleted must be a boolean"))
			return
		}
		filter.IncludeDeleted = include
	}

	offers, err := c.service.ListAll(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, offers)
}

// AdminGetOffer godoc
// @Summary Get any offer by ID
// @Description Get a single offer whether or not it has been deleted
// @Tags admin
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {object} models.Offer
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/offers/{id} [get]
func (c *controller) AdminGetOffer(ctx *gin.Context) {
	offer, err := c.service.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, offer)
}

// CreateOffer godoc
// @Summary Create a new offer
// @Description Create an active offer owned by the authenticated admin
// @Tags admin
// @Accept json
// @Produce json
// @Param offer body services.OfferInput true "Offer payload"
// @Success 201 {object} models.Offer
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 500 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/offers [post]
func (c *controller) CreateOffer(ctx *gin.Context) {
	session, ok := mustSession(ctx)
	if !ok {
		return
	}

	var input services.OfferInput
	if err := decodeStrict(ctx, &input); err != nil {
		respondError(ctx, err)
		return
	}

	offer, err := c.service.Create(ctx.Request.Context(), input, session.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, offer)
}

// UpdateOffer godoc
// @Summary Update an offer
// @Description Change selected fields of an offer. Unknown fields are rejected. An explicit isDeleted of null restores a deleted offer.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Offer ID"
// @Param offer body services.OfferPatch true "Fields to change"
// @Success 200 {object} models.Offer
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/offers/{id} [put]
func (c *controller) UpdateOffer(ctx *gin.Context) {
	if _, ok := mustSession(ctx); !ok {
		return
	}

	var patch services.OfferPatch
	if err := decodeStrict(ctx, &patch); err != nil {
		respondError(ctx, err)
		return
	}

	offer, err := c.service.Update(ctx.Request.Context(), ctx.Param("id"), patch)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, offer)
}

// DeleteOffer godoc
// @Summary Delete an offer
// @Description Soft-delete an offer. Deleting an already deleted offer succeeds and keeps the original timestamp.
// @Tags admin
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {object} models.Offer
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/offers/{id} [delete]
func (c *controller) DeleteOffer(ctx *gin.Context) {
	if _, ok := mustSession(ctx); !ok {
		return
	}

	offer, err := c.service.SoftDelete(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, offer)
}
