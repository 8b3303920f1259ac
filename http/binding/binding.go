package binding

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	validatorV10 "github.com/go-playground/validator/v10"
	"github.com/leeforge/hookkit/json"
)

var validator = validatorV10.New()

type BindError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e BindError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s' %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

type ValidationErrors []BindError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", ve[0].Error())
}

type decodeOptions struct {
	useNumber             bool
	disallowUnknownFields bool
}

// Option tunes JSON decoding.
type Option func(*decodeOptions)

// WithUseNumber decodes numbers into json.Number instead of float64.
func WithUseNumber() Option {
	return func(opts *decodeOptions) {
		opts.useNumber = true
	}
}

// WithDisallowUnknownFields rejects fields the target does not declare.
func WithDisallowUnknownFields() Option {
	return func(opts *decodeOptions) {
		opts.disallowUnknownFields = true
	}
}

// JSON decodes the request body into v, applying `default` tags first,
// then validates v. Decode failures are *BindError; rule failures are
// ValidationErrors.
func JSON(r *http.Request, v any, opts ...Option) error {
	if r == nil || r.Body == nil {
		return &BindError{Type: "bind_error", Message: "request body is empty"}
	}
	defer r.Body.Close()

	options := &decodeOptions{}
	for _, opt := range opts {
		opt(options)
	}

	decoder := json.NewDecoder(r.Body)
	if options.useNumber {
		decoder.UseNumber()
	}
	if options.disallowUnknownFields {
		decoder.DisallowUnknownFields()
	}

	if err := decoder.Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return &BindError{Type: "bind_error", Message: "request body is empty"}
		}
		return &BindError{Type: "json_error", Message: "failed to unmarshal JSON: " + err.Error()}
	}

	return Validate(v)
}

// Validate runs struct validation on v and converts failures to
// ValidationErrors keyed by dotted field namespace.
func Validate(v any) error {
	err := validator.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validatorV10.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return &BindError{Type: "validation_error", Message: err.Error()}
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, BindError{
			Type:    "validation_error",
			Field:   fieldPath(fe),
			Message: getValidationMessage(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validatorV10.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func getValidationMessage(fe validatorV10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return fmt.Sprintf("is required when %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation for tag '%s'", fe.Tag())
	}
}
