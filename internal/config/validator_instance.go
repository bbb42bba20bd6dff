package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"

	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance configures and returns the shared validator instance used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
			return doublestar.ValidatePattern(fl.Field().String())
		})

		_ = v.RegisterValidation("path", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			return strings.TrimSpace(value) != "" && !strings.Contains(value, "\x00")
		})

		validateInst = v
	})

	return validateInst
}

// GetValidator returns the configured validator instance for use outside the config package.
func GetValidator() *validator.Validate {
	return validatorInstance()
}

// convertValidationError normalizes validator errors into config errors naming the offending option.
func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		option := flagName(ve.StructField())
		msg := fmt.Sprintf("value %v failed validation for tag '%s'", ve.Value(), ve.Tag())
		if ve.Param() != "" {
			msg = fmt.Sprintf("%s (%s)", msg, ve.Param())
		}
		return ovenerrors.NewConfigError(option, msg, err)
	}

	return ovenerrors.NewConfigError("", err.Error(), err)
}

// flagName maps a struct field back to the CLI flag that sets it.
func flagName(field string) string {
	switch field {
	case "StagingDir":
		return "build"
	case "ResultDir":
		return "destination"
	case "ResultFilename":
		return "filename"
	case "DownloadDir":
		return "download-dir"
	case "TargetAPI":
		return "target-api"
	case "Formats":
		return "format"
	case "GitBranch":
		return "git-branch"
	}
	return strings.ToLower(field)
}
