package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/bonos-api/internal/models"
)

// Demo accounts created by SeedDemoData
const (
	DemoAdminEmail    = "admin@example.com"
	DemoAdminPassword = "password123"
	DemoUserEmail     = "user@example.com"
	DemoUserPassword  = "User.2025"
)

func intPtr(v int) *int { return &v }

func demoOffers() []models.Offer {
	return []models.Offer{
		{
			Title:            "Brunch Isla Baja para 2 con vistas de ensueño",
			ShortDescription: "Experiencia gastronómica frente al mar",
			Description:      "Disfruta de un brunch completo para dos personas con vistas espectaculares al océano. Incluye selección de panes artesanales, embutidos selectos, huevos, café y cava.",
			Images:           []string{"/images/brunch-isla.jpeg"},
			Category:         models.CategoryRestaurantes,
			PlaceName:        "Restaurante Mirador de Garachico",
			Location:         models.Location{Lat: 28.3717, Lng: -16.5512},
			Price:            60,
			Discount:         intPtr(42),
		},
		{
			Title:            "12 minutos + 2 vueltas de regalo en Karting Club Tenerife",
			ShortDescription: "Adrenalina pura en el mejor circuito",
			Description:      "Siente la velocidad en el circuito de karts más moderno de la isla. Incluye equipo completo de seguridad y briefing con instructor.",
			Images:           []string{"/images/karting.jpeg"},
			Category:         models.CategoryOcio,
			PlaceName:        "Karting Club Tenerife",
			Location:         models.Location{Lat: 28.0489, Lng: -16.5412},
			Price:            10,
			Discount:         intPtr(20),
		},
		{
			Title:            "Circuito Termal Rock Spa de lujo + almuerzo buffet",
			ShortDescription: "Relax total en un entorno único",
			Description:      "Acceso completo al circuito termal que incluye piscinas de hidromasaje, sauna, baño turco y zona de relajación. Completa la experiencia con un buffet de lujo.",
			Images:           []string{"/images/spa-rock.jpeg"},
			Category:         models.CategorySpa,
			PlaceName:        "Hard Rock Hotel Tenerife",
			Location:         models.Location{Lat: 28.1289, Lng: -16.7777},
			Price:            75,
			Discount:         intPtr(35),
		},
		{
			Title:            "Circuito Spa para 2 con opción de almuerzo buffet",
			ShortDescription: "Escapada romántica de bienestar",
			Description:      "Disfruta de un circuito spa completo en pareja incluyendo jacuzzi, piscina climatizada y zona de relax. Opción de añadir buffet gourmet.",
			Images:           []string{"/images/spa-couple.webp"},
			Category:         models.CategorySpa,
			PlaceName:        "Natural Spa Hotel Troya",
			Location:         models.Location{Lat: 28.0567, Lng: -16.7323},
			Price:            34,
			Discount:         intPtr(15),
		},
		{
			Title:            "El Monasterio: Brunch épico Mirador para 2 con vistas",
			ShortDescription: "Gastronomía en un entorno histórico",
			Description:      "Experiencia culinaria única en un edificio histórico con las mejores vistas. Incluye cava, selección de quesos locales y productos gourmet.",
			Images:           []string{"/images/monasterio.jpeg"},
			Category:         models.CategoryRestaurantes,
			PlaceName:        "El Monasterio",
			Location:         models.Location{Lat: 28.4123, Lng: -16.5481},
			Price:            50,
			Discount:         intPtr(40),
		},
		{
			Title:            "Brunch sobre el mar para 2 frente a la montaña de El Médano",
			ShortDescription: "Desayuno con vistas panorámicas",
			Description:      "Brunch gourmet con vistas al mar y a la montaña. Incluye bebidas premium, selección de panes recién horneados y productos locales.",
			Images:           []string{"/images/brunch-medano.jpeg"},
			Category:         models.CategoryRestaurantes,
			PlaceName:        "Hotel Médano",
			Location:         models.Location{Lat: 28.0447, Lng: -16.5359},
			Price:            40,
			Discount:         intPtr(25),
		},
		{
			Title:            "Brunch Lido con vistas al mar para 2",
			ShortDescription: "Experiencia gastronómica frente al océano",
			Description:      "Disfruta de un brunch de lujo con vistas panorámicas al océano. Incluye cava, zumos naturales y una amplia selección de platos gourmet.",
			Images:           []string{"/images/brunch-lido.jpeg"},
			Category:         models.CategoryRestaurantes,
			PlaceName:        "Lido San Telmo",
			Location:         models.Location{Lat: 28.4804, Lng: -16.3147},
			Price:            40,
			Discount:         intPtr(20),
		},
		{
			Title:            "Excursión en Catamarán con almuerzo + bebidas ilimitadas",
			ShortDescription: "Aventura marítima con todo incluido",
			Description:      "Navega por las costas de Tenerife en un lujoso catamarán. Incluye almuerzo, bebidas ilimitadas y parada para snorkel.",
			Images:           []string{"/images/catamaran.jpeg"},
			Category:         models.CategoryOcio,
			PlaceName:        "Maxicat",
			Location:         models.Location{Lat: 28.0798, Lng: -16.7323},
			Price:            45,
			Discount:         intPtr(47),
		},
	}
}

// SeedDemoData creates the demo admin, the demo user and the demo offers.
// Accounts that already exist are kept and offers are only added to an empty
// table, so running it twice changes nothing.
func SeedDemoData(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin, err := ensureUser(tx, &models.User{
			Role:     models.RoleAdmin,
			Name:     "Admin",
			LastName: "User",
			Email:    DemoAdminEmail,
			Password: DemoAdminPassword,
			Isla:     models.DefaultIsland,
		})
		if err != nil {
			return err
		}
		if _, err := ensureUser(tx, &models.User{
			Role:     models.RoleUser,
			Name:     "Normal",
			LastName: "User",
			Email:    DemoUserEmail,
			Password: DemoUserPassword,
			Isla:     models.DefaultIsland,
		}); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Offer{}).Count(&count).Error; err != nil {
			return fmt.Errorf("counting offers: %w", err)
		}
		if count > 0 {
			log.WithField("offers", count).Info("Offers already present, skipping demo offers")
			return nil
		}

		offers := demoOffers()
		for i := range offers {
			offers[i].UserID = admin.ID
			// One at a time so created_at keeps the listing order above
			if err := tx.Create(&offers[i]).Error; err != nil {
				return fmt.Errorf("creating demo offer %q: %w", offers[i].Title, err)
			}
		}
		log.WithField("offers", len(offers)).Info("Demo offers created")
		return nil
	})
}

func ensureUser(tx *gorm.DB, user *models.User) (*models.User, error) {
	var existing models.User
	err := tx.Where("email = ?", user.Email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up %s: %w", user.Email, err)
	}

	if err := user.HashPassword(); err != nil {
		return nil, err
	}
	if err := tx.Create(user).Error; err != nil {
		return nil, fmt.Errorf("creating %s: %w", user.Email, err)
	}
	log.WithFields(logrus.Fields{"email": user.Email, "role": user.Role}).Info("Demo user created")
	return user, nil
}
