// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Pillars lists the five dimensions an analysis scores.
var Pillars = []string{"geist", "herz", "seele", "koerper", "aura"}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError is one failed rule on one field.
type ValidationError struct {
	field   string
	tag     string
	message string
}

// Field returns the JSON name of the failing field.
func (e *ValidationError) Field() string { return e.field }

// Tag returns the failing rule, e.g. "max" or "pillar".
func (e *ValidationError) Tag() string { return e.tag }

func (e *ValidationError) Error() string { return e.message }

// RequestValidationError collects every failed rule of one value.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the individual failures in field order.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.errors))
	for i := range ve.errors {
		msgs[i] = ve.errors[i].message
	}
	return strings.Join(msgs, "; ")
}

// GetValidator returns the shared validator with the notblank and pillar
// rules registered. Field names in errors are JSON names.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			switch name {
			case "-":
				return ""
			case "":
				return fld.Name
			}
			return name
		})

		// Registration only fails for empty tags or nil funcs.
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			f := fl.Field()
			return f.Kind() == reflect.String && strings.TrimSpace(f.String()) != ""
		})
		_ = validate.RegisterValidation("pillar", func(fl validator.FieldLevel) bool {
			f := fl.Field()
			return f.Kind() == reflect.String && slices.Contains(Pillars, f.String())
		})
	})
	return validate
}

// ValidateStruct returns nil when s passes every rule.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{errors: []ValidationError{{field: "unknown", tag: "unknown", message: err.Error()}}}
	}

	out := make([]ValidationError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = ValidationError{field: fe.Field(), tag: fe.Tag(), message: message(fe)}
	}
	return &RequestValidationError{errors: out}
}

func message(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "notblank":
		return field + " must not be blank"
	case "pillar":
		return fmt.Sprintf("%s must be one of %s", field, strings.Join(Pillars, ", "))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "min", "max":
		unit := ""
		switch fe.Kind() {
		case reflect.String:
			unit = " characters"
		case reflect.Slice, reflect.Array, reflect.Map:
			unit = " items"
		}
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		return fmt.Sprintf("%s must be %s %s%s", field, bound, param, unit)
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
