package metadata

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	sdkVersionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		// Report descriptor keys rather than Go field names.
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("sdkversion", func(fl validator.FieldLevel) bool {
			return sdkVersionPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// convertValidationError turns the first validator failure into a ValidationError keyed by descriptor path.
func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := descriptorPath(ve.Namespace())
		msg := fmt.Sprintf("value %v failed validation for tag '%s'", ve.Value(), ve.Tag())
		return ovenerrors.NewValidationError(field, msg, err)
	}

	return ovenerrors.NewValidationError("", err.Error(), err)
}

// descriptorPath drops the root struct name from a validator namespace.
func descriptorPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}
