package apiclient

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tbourn/planner-admin/internal/apierr"
)

// CreateItemType is the payload for POST /item-types.
type CreateItemType struct {
	ID   int64  `json:"id"   validate:"required,gt=0"`
	Name string `json:"name" validate:"required,notblank,max=75"`
}

// RenameItemType is the payload for PUT /item-types/:id.
type RenameItemType struct {
	Name string `json:"name" validate:"required,notblank,max=75"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// Report JSON names so messages match what the backend would say.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// checkPayload validates a write payload, returning a 400 *apierr.Error that
// names the first offending field.
func checkPayload(p any) *apierr.Error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		return apierr.Invalid(fieldMessage(ves[0]), err)
	}
	return apierr.Invalid("invalid request payload", err)
}

// checkID rejects non-positive identifiers before any request is sent.
func checkID(id int64) *apierr.Error {
	if id <= 0 {
		return apierr.Invalid(fmt.Sprintf("id must be a positive integer, got %d", id), nil)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gt":
		return fe.Field() + " must be a positive integer"
	case "uuid":
		return fe.Field() + " must be a UUID"
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
