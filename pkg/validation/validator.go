// Package validation wraps go-playground/validator with the custom tags used by the pipeline.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/selivandex/spectrum-feed/pkg/models"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator with custom tags registered:
//
//	ideology  value belongs to the full ideology vocabulary
//	spectrum  value belongs to the post spectrum subset
//	nonblank  string contains at least one non-space rune
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		mustRegister(v, "ideology", func(fl validator.FieldLevel) bool {
			return models.Ideology(fl.Field().String()).Valid()
		})
		mustRegister(v, "spectrum", func(fl validator.FieldLevel) bool {
			return models.Ideology(fl.Field().String()).ValidSpectrum()
		})
		mustRegister(v, "nonblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		instance = v
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// Struct validates s and flattens field errors into a single readable error
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(parts, "; "))
}
