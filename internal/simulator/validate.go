package simulator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("range_order", validRangeOrder)
		_ = v.RegisterValidation("trait_range", validTraitRange)
		validate = v
	})
	return validate
}

func rangeBounds(fl validator.FieldLevel) (int64, int64, bool) {
	field := fl.Field()
	if field.Kind() != reflect.Array || field.Len() != 2 {
		return 0, 0, false
	}
	return field.Index(0).Int(), field.Index(1).Int(), true
}

func validRangeOrder(fl validator.FieldLevel) bool {
	lo, hi, ok := rangeBounds(fl)
	return ok && lo >= 0 && lo <= hi
}

func validTraitRange(fl validator.FieldLevel) bool {
	lo, hi, ok := rangeBounds(fl)
	return ok && lo >= 0 && hi <= 100 && lo <= hi
}

// Validate checks a generation config: every range ordered, traits within 0-100.
func (c GenerationConfig) Validate() error {
	return describe(validatorInstance().Struct(c))
}

// Validate checks the user-editable product fields.
func (p Product) Validate() error {
	return describe(validatorInstance().Struct(p))
}

// describe flattens validator errors into one readable message.
func describe(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "GenerationConfig.")
		field = strings.TrimPrefix(field, "Product.")
		switch fe.Tag() {
		case "range_order":
			parts = append(parts, fmt.Sprintf("%s must be a [min,max] pair with 0 <= min <= max", field))
		case "trait_range":
			parts = append(parts, fmt.Sprintf("%s must be a [min,max] pair within 0-100", field))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of %s", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}
