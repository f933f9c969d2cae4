package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/harentsoaR/medadmin-api/internal/passwordpolicy"
)

// InitValidation configures the validator behind gin's binding: JSON tag names
// in errors and the password_policy tag. Safe to call more than once.
func InitValidation() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding is not backed by validator/v10")
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("password_policy", func(fl validator.FieldLevel) bool {
		return passwordpolicy.IsValid(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register password_policy: %w", err)
	}
	return nil
}

// OnlyTagFailed reports whether err is a validation error in which every
// failure is the given tag.
func OnlyTagFailed(err error, tag string) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return false
	}
	for _, fe := range verrs {
		if fe.Tag() != tag {
			return false
		}
	}
	return true
}

// ToDetails converts binding errors into a field -> message map.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "password_policy":
		return "does not meet the password policy"
	case "eqfield":
		return "must match " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
