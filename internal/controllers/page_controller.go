package controllers

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/bonos-api/internal/middleware"
	"github.com/franciscosanchezn/bonos-api/internal/models"
	"github.com/franciscosanchezn/bonos-api/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"price": func(v float64) string { return fmt.Sprintf("%.2f €", v) },
	"finalPrice": func(o models.Offer) string {
		return fmt.Sprintf("%.2f €", o.FinalPrice())
	},
	"hasDiscount": func(o models.Offer) bool { return o.Discount != nil && *o.Discount > 0 },
	"firstImage": func(o models.Offer) string {
		if len(o.Images) == 0 {
			return ""
		}
		return o.Images[0]
	},
}

// LoadTemplates parses the embedded page templates
func LoadTemplates() (*template.Template, error) {
	return template.New("pages").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

// PageController renders the storefront and the admin console
type PageController struct {
	offers services.OfferService
}

func NewPageController(offers services.OfferService) *PageController {
	return &PageController{offers: offers}
}

func (pc *PageController) render(c *gin.Context, status int, name string, data gin.H) {
	data["Session"] = middleware.CurrentSession(c)
	data["Categories"] = models.OfferCategories
	c.HTML(status, name, data)
}

func (pc *PageController) notFound(c *gin.Context) {
	pc.render(c, http.StatusNotFound, "not_found.html", gin.H{"Title": "Not found"})
}

func (pc *PageController) failed(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) {
		pc.notFound(c)
		return
	}
	_ = c.Error(err)
	pc.render(c, http.StatusInternalServerError, "error.html", gin.H{"Title": "Error"})
}

// Storefront lists active offers, optionally for one category
func (pc *PageController) Storefront(c *gin.Context) {
	category := c.Query("category")
	offers, err := pc.offers.List(c.Request.Context(), services.OfferFilter{Category: category})
	if err != nil {
		pc.failed(c, err)
		return
	}
	pc.render(c, http.StatusOK, "storefront.html", gin.H{
		"Title":    "Bonos",
		"Offers":   offers,
		"Category": category,
	})
}

// OfferDetail shows one active offer
func (pc *PageController) OfferDetail(c *gin.Context) {
	offer, err := pc.offers.GetActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		pc.failed(c, err)
		return
	}
	pc.render(c, http.StatusOK, "offer.html", gin.H{"Title": offer.Title, "Offer": offer})
}

func (pc *PageController) Login(c *gin.Context) {
	pc.render(c, http.StatusOK, "login.html", gin.H{"Title": "Login"})
}

func (pc *PageController) SignUp(c *gin.Context) {
	pc.render(c, http.StatusOK, "signup.html", gin.H{"Title": "Sign up", "Islands": models.Islands})
}

// AdminDashboard lists every offer including deleted ones
func (pc *PageController) AdminDashboard(c *gin.Context) {
	offers, err := pc.offers.ListAll(c.Request.Context(), services.OfferFilter{IncludeDeleted: true})
	if err != nil {
		pc.failed(c, err)
		return
	}
	pc.render(c, http.StatusOK, "admin.html", gin.H{"Title": "Admin", "Offers": offers})
}

func (pc *PageController) AdminCreateOffer(c *gin.Context) {
	pc.render(c, http.StatusOK, "offer_form.html", gin.H{"Title": "New offer"})
}

func (pc *PageController) AdminEditOffer(c *gin.Context) {
	offer, err := pc.offers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		pc.failed(c, err)
		return
	}
	pc.render(c, http.StatusOK, "offer_form.html", gin.H{"Title": "Edit offer", "Offer": offer})
}
