package validators

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"floreria/internal/models"
	"floreria/internal/utils"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var slotIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)

func init() {
	validate = validator.New()

	// Report fields by their wire names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	// Register custom validation functions
	validate.RegisterValidation("delivery_type", validateDeliveryType)
	validate.RegisterValidation("iso_date", validateISODate)
	validate.RegisterValidation("commune_name", validateCommuneName)
	validate.RegisterValidation("slot_id", validateSlotID)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// ToMap keys messages by field, keeping the first message per field.
func (v ValidationErrors) ToMap() map[string]string {
	out := make(map[string]string, len(v))
	for _, err := range v {
		if _, ok := out[err.Field]; !ok {
			out[err.Field] = err.Message
		}
	}
	return out
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return ValidationErrors{{Field: "request", Message: err.Error()}}
		}
		for _, err := range fieldErrors {
			validationError := ValidationError{
				Field:   err.Field(),
				Tag:     err.Tag(),
				Value:   fmt.Sprintf("%v", err.Value()),
				Message: getErrorMessage(err),
			}
			validationErrors = append(validationErrors, validationError)
		}
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "min":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "delivery_type":
		return fmt.Sprintf("Delivery type must be one of %s", deliveryTypeList())
	case "iso_date":
		return "Date must be YYYY-MM-DD or RFC 3339"
	case "commune_name":
		return "Invalid commune name"
	case "slot_id":
		return "Invalid slot id"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

func validateDeliveryType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.DeliveryTypeCode(value).Valid()
}

func validateISODate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := utils.ParseDeliveryDate(value, time.UTC)
	return err == nil
}

// Commune names only need to be printable; whether the commune exists is
// the engine's call.
func validateCommuneName(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	if strings.TrimSpace(value) != value || utf8.RuneCountInString(value) > utils.MaxCommuneNameLength {
		return false
	}
	for _, r := range value {
		if unicode.IsControl(r) || r == utf8.RuneError {
			return false
		}
	}
	return true
}

func validateSlotID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slotIDRegex.MatchString(value)
}

func SanitizeInput(input string) string {
	// Remove HTML tags and trim whitespace
	htmlRegex := regexp.MustCompile(`<[^>]*>`)
	cleaned := htmlRegex.ReplaceAllString(input, "")
	return strings.TrimSpace(cleaned)
}

func deliveryTypeList() string {
	codes := make([]string, len(models.DeliveryTypeCodes))
	for i, c := range models.DeliveryTypeCodes {
		codes[i] = string(c)
	}
	return strings.Join(codes, ", ")
}
