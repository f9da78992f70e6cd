package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/andyle182810/wpsec/apierror"
	"github.com/go-playground/validator/v10"
)

const (
	TagSiteURL  = "siteurl"
	TagReportID = "reportid"
)

//nolint:gochecknoglobals
var reportIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

type Validator struct {
	Validator *validator.Validate
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, err := range v {
		msgs = append(msgs, err.Message)
	}

	return strings.Join(msgs, "; ")
}

// New returns a validator that reports fields by their json name and knows the
// siteurl and reportid tags.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		const maxSplits = 2
		name := strings.SplitN(fld.Tag.Get("json"), ",", maxSplits)[0]

		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation(TagSiteURL, func(fl validator.FieldLevel) bool {
		return CheckSiteURL(fl.Field().String()) == nil
	})

	_ = v.RegisterValidation(TagReportID, func(fl validator.FieldLevel) bool {
		return IsReportID(fl.Field().String())
	})

	return &Validator{Validator: v}
}

// Validate checks a struct and returns a validation-kind *apierror.Error whose
// cause is the ValidationErrors list.
func (v *Validator) Validate(i any) error {
	return v.wrap(v.Validator.Struct(i))
}

// ValidateVar checks a single value against tag, reporting it under field.
func (v *Validator) ValidateVar(field string, value any, tag string) error {
	err := v.Validator.Var(value, tag)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return v.wrap(err)
	}

	validationErrs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		validationErrs = append(validationErrs, v.toValidationError(field, fieldErr))
	}

	return apierror.Wrap(apierror.KindValidation, validationErrs, validationErrs.Error())
}

func (v *Validator) wrap(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		validationErrs := v.formatValidationErrors(fieldErrs)

		return apierror.Wrap(apierror.KindValidation, validationErrs, validationErrs.Error())
	}

	return apierror.Wrap(apierror.KindValidation, err, err.Error())
}

func (v *Validator) formatValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	validationErrs := make(ValidationErrors, 0, len(errs))

	for _, err := range errs {
		field := err.Field()
		if field == "" {
			field = err.StructField()
		}

		validationErrs = append(validationErrs, v.toValidationError(field, err))
	}

	return validationErrs
}

func (v *Validator) toValidationError(field string, err validator.FieldError) ValidationError {
	return ValidationError{
		Field:   field,
		Tag:     err.Tag(),
		Value:   fmt.Sprintf("%v", err.Value()),
		Message: v.generateErrorMessage(field, err),
	}
}

func (v *Validator) generateErrorMessage(field string, err validator.FieldError) string {
	msg := v.getSimpleErrorMessage(field, err)
	if msg != "" {
		return msg
	}

	return v.getParameterizedErrorMessage(field, err)
}

func (v *Validator) getSimpleErrorMessage(field string, err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return field + " cannot be empty"
	case "url":
		return field + " must be a valid URL"
	case TagSiteURL:
		if reason := CheckSiteURL(fmt.Sprintf("%v", err.Value())); reason != nil {
			return fmt.Sprintf("%s is invalid: %v", field, reason)
		}

		return field + " must be a valid site URL"
	case TagReportID:
		return fmt.Sprintf("invalid %s format: '%v', report IDs are 32 character hexadecimal strings", field, err.Value())
	default:
		return ""
	}
}

func (v *Validator) getParameterizedErrorMessage(field string, err validator.FieldError) string {
	param := err.Param()

	switch err.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		return fmt.Sprintf("%s is too long (max %s characters, got %d)",
			field, param, len([]rune(fmt.Sprintf("%v", err.Value()))))
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "gtefield":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, param)
	default:
		return fmt.Sprintf("%s failed validation on '%s'", field, err.Tag())
	}
}

func (v *Validator) RegisterCustomValidation(tag string, fn validator.Func) error {
	return v.Validator.RegisterValidation(tag, fn)
}

func IsReportID(s string) bool {
	return reportIDPattern.MatchString(s)
}
