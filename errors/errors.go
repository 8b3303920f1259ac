package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the kind of a plugin or hook error
type ErrorType string

const (
	// Plugin lifecycle errors
	ErrorTypePluginAlreadyLoaded  ErrorType = "plugin_already_loaded"
	ErrorTypePluginNotFound       ErrorType = "plugin_not_found"
	ErrorTypePluginAlreadyEnabled ErrorType = "plugin_already_enabled"
	ErrorTypePluginNotEnabled     ErrorType = "plugin_not_enabled"
	ErrorTypePluginLifecycle      ErrorType = "plugin_lifecycle"

	// Hook registry errors
	ErrorTypeDuplicateHookID ErrorType = "duplicate_hook_id"
	ErrorTypeHookNotFound    ErrorType = "hook_not_found"
	ErrorTypeInvalidHook     ErrorType = "invalid_hook"

	// Identifier and wiring errors
	ErrorTypeInvalidPluginID ErrorType = "invalid_plugin_id"
	ErrorTypeDependency      ErrorType = "dependency"

	ErrorTypeUnknown ErrorType = "unknown"
)

// Sentinels for errors.Is checks. Matching is by type only.
var (
	ErrPluginAlreadyLoaded  = &AppError{Type: ErrorTypePluginAlreadyLoaded}
	ErrPluginNotFound       = &AppError{Type: ErrorTypePluginNotFound}
	ErrPluginAlreadyEnabled = &AppError{Type: ErrorTypePluginAlreadyEnabled}
	ErrPluginNotEnabled     = &AppError{Type: ErrorTypePluginNotEnabled}
	ErrPluginLifecycle      = &AppError{Type: ErrorTypePluginLifecycle}
	ErrDuplicateHookID      = &AppError{Type: ErrorTypeDuplicateHookID}
	ErrHookNotFound         = &AppError{Type: ErrorTypeHookNotFound}
	ErrInvalidHook          = &AppError{Type: ErrorTypeInvalidHook}
	ErrInvalidPluginID      = &AppError{Type: ErrorTypeInvalidPluginID}
	ErrDependency           = &AppError{Type: ErrorTypeDependency}
)

// AppError is a structured plugin/hook error carrying the identifiers involved.
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Plugin     string    `json:"plugin,omitempty"`
	Hook       string    `json:"hook,omitempty"`
	InnerError error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(strings.ReplaceAll(string(e.Type), "_", " "))
	}
	if e.Plugin != "" {
		fmt.Fprintf(&b, " (plugin=%s", e.Plugin)
		if e.Hook != "" {
			fmt.Fprintf(&b, ", hook=%s", e.Hook)
		}
		b.WriteString(")")
	} else if e.Hook != "" {
		fmt.Fprintf(&b, " (hook=%s)", e.Hook)
	}
	if e.InnerError != nil {
		b.WriteString(": ")
		b.WriteString(e.InnerError.Error())
	}
	return b.String()
}

// Unwrap returns the inner error
func (e *AppError) Unwrap() error {
	return e.InnerError
}

// Is reports whether target is an AppError of the same type.
func (e *AppError) Is(target error) bool {
	if targetApp, ok := target.(*AppError); ok {
		return e.Type == targetApp.Type
	}
	return false
}

// WithMessage sets the message
func (e *AppError) WithMessage(msg string) *AppError {
	e.Message = msg
	return e
}

// WithPlugin records the plugin the error is about
func (e *AppError) WithPlugin(id string) *AppError {
	e.Plugin = id
	return e
}

// WithHook records the hook the error is about
func (e *AppError) WithHook(id fmt.Stringer) *AppError {
	e.Hook = id.String()
	return e
}

// WithInnerError sets the inner error
func (e *AppError) WithInnerError(err error) *AppError {
	e.InnerError = err
	return e
}

// New creates a new AppError
func New(errType ErrorType, message string) *AppError {
	return &AppError{Type: errType, Message: message}
}

// Wrap wraps err with a type and message.
func Wrap(err error, errType ErrorType, message string) *AppError {
	return &AppError{Type: errType, Message: message, InnerError: err}
}

// TypeOf returns the ErrorType of the first AppError in err's chain,
// or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err's chain contains an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	return errors.Is(err, &AppError{Type: errType})
}

// Constructors used by the hook and plugin packages.

func NewPluginAlreadyLoaded(plugin string) *AppError {
	return New(ErrorTypePluginAlreadyLoaded, "plugin already loaded").WithPlugin(plugin)
}

func NewPluginNotFound(plugin string) *AppError {
	return New(ErrorTypePluginNotFound, "plugin not found").WithPlugin(plugin)
}

func NewPluginAlreadyEnabled(plugin string) *AppError {
	return New(ErrorTypePluginAlreadyEnabled, "plugin already enabled").WithPlugin(plugin)
}

func NewPluginNotEnabled(plugin string) *AppError {
	return New(ErrorTypePluginNotEnabled, "plugin not enabled").WithPlugin(plugin)
}

// NewLifecycle wraps a failure returned by a plugin's load or unload callback.
func NewLifecycle(plugin, phase string, err error) *AppError {
	return Wrap(err, ErrorTypePluginLifecycle, phase+" failed").WithPlugin(plugin)
}

func NewDuplicateHookID(plugin string, hook fmt.Stringer) *AppError {
	return New(ErrorTypeDuplicateHookID, "hook already registered").WithPlugin(plugin).WithHook(hook)
}

func NewHookNotFound(plugin string, hook fmt.Stringer) *AppError {
	return New(ErrorTypeHookNotFound, "hook not found").WithPlugin(plugin).WithHook(hook)
}

func NewInvalidHook(plugin, reason string) *AppError {
	return New(ErrorTypeInvalidHook, "invalid hook: "+reason).WithPlugin(plugin)
}

func NewInvalidPluginID(value string, err error) *AppError {
	return Wrap(err, ErrorTypeInvalidPluginID, fmt.Sprintf("invalid plugin id %q", value))
}

func NewDependency(plugin, message string) *AppError {
	return New(ErrorTypeDependency, message).WithPlugin(plugin)
}

// Join combines errors, skipping nils. Returns nil when all are nil.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Is is errors.Is, re-exported so callers need one import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As, re-exported so callers need one import.
func As(err error, target any) bool {
	return errors.As(err, target)
}
