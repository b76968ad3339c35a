package validators

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	nonstandard "github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/franciscosanchezn/bonos-api/internal/models"
)

// FieldErrors maps a JSON field name to the rule it failed
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, f[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

var (
	once     sync.Once
	instance *validator.Validate
)

// Engine returns the shared validator with the domain rules registered
func Engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("offer_category", func(fl validator.FieldLevel) bool {
			return models.IsOfferCategory(fl.Field().String())
		})
		_ = v.RegisterValidation("isla", func(fl validator.FieldLevel) bool {
			for _, isla := range models.Islands {
				if fl.Field().String() == isla {
					return true
				}
			}
			return false
		})
		_ = v.RegisterValidation("notblank", nonstandard.NotBlank)
		_ = v.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
			return hasCents(fl.Field().Float())
		})
		_ = v.RegisterValidation("oauth_scopes", func(fl validator.FieldLevel) bool {
			for _, scope := range strings.Fields(fl.Field().String()) {
				if !models.IsOAuthScope(scope) {
					return false
				}
			}
			return true
		})
		instance = v
	})
	return instance
}

// hasCents reports whether v has at most two fractional digits, judged on the
// shortest decimal that parses back to v
func hasCents(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s)-i-1 <= 2
	}
	return true
}

// Validate checks s against its `validate` tags. It returns FieldErrors when a
// rule fails and passes through any other error untouched.
func Validate(s interface{}) error {
	err := Engine().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := FieldErrors{}
	for _, fe := range verrs {
		fields[fieldPath(fe)] = describe(fe)
	}
	return fields
}

// fieldPath drops the top-level struct name from the namespace so nested
// fields read as "location.lat" and slice items as "images[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at least %s element(s) or character(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at most %s element(s) or character(s)", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "offer_category":
		return "must be one of " + strings.Join(models.OfferCategories, ", ")
	case "isla":
		return "must be one of " + strings.Join(models.Islands, ", ")
	case "notblank":
		return "must not be blank"
	case "cents":
		return "must have at most two decimal places"
	case "oauth_scopes":
		return "must only contain " + strings.Join(models.OAuthScopes, ", ")
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}
