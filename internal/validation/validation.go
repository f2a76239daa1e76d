// Package validation configures the shared request validator.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"catalog/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// New returns a validator that reports JSON field names, compares decimals numerically and
// enforces the second-hand condition rule on product creation.
func New() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// money columns keep two decimal places, so an amount must stay positive once rounded.
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.Float64 {
			return false
		}
		return decimal.NewFromFloat(field.Float()).Round(2).IsPositive()
	})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(models.ProductCreateRequest)
		if req.IsSecondHand && req.Condition == nil {
			sl.ReportError(req.Condition, "condition", "Condition", "required_for_second_hand", "")
		}
	}, models.ProductCreateRequest{})

	return v
}

// Details turns validator errors into a field to message map. Other errors map to "_".
func Details(err error) map[string]any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]any{"_": err.Error()}
	}
	details := make(map[string]any, len(verrs))
	for _, e := range verrs {
		details[fieldPath(e)] = message(e)
	}
	return details
}

// fieldPath drops the root struct name from the namespace, e.g. "dimensions.length".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_for_second_hand":
		return "is required when is_second_hand is true"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "money":
		return "must be a positive amount of at least 0.01"
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "uuid":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email address"
	case "iso4217":
		return "must be an ISO 4217 currency code"
	default:
		return fmt.Sprintf("failed on the '%s' tag", e.Tag())
	}
}
