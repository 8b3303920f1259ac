// Package hook implements the hook registry: typed extension points,
// the identifiers that key them, and the store that owns every registered
// implementation.
package hook

import (
	"fmt"
	"reflect"
	"unicode"

	validatorV10 "github.com/go-playground/validator/v10"
	"github.com/leeforge/hookkit/errors"
)

// ExtensionPointID identifies a capability contract. It is derived from the
// contract's Go interface type, never from a user-chosen name, so two
// contracts that share a name in different packages stay distinct.
type ExtensionPointID struct {
	t reflect.Type
}

// PointOf returns the ExtensionPointID of contract C. C must be an
// interface type; any other type is a programming error and panics.
func PointOf[C any]() ExtensionPointID {
	t := reflect.TypeFor[C]()
	if t.Kind() != reflect.Interface {
		panic(fmt.Sprintf("hook: extension point %s is not an interface type", t))
	}
	return ExtensionPointID{t: t}
}

// String returns the package-qualified contract name, e.g. "greet.Greeter".
func (id ExtensionPointID) String() string {
	if id.t == nil {
		return "<none>"
	}
	return id.t.String()
}

// Name returns the unqualified contract name.
func (id ExtensionPointID) Name() string {
	if id.t == nil {
		return ""
	}
	return id.t.Name()
}

// IsZero reports whether id was not produced by PointOf.
func (id ExtensionPointID) IsZero() bool {
	return id.t == nil
}

// implementedBy reports whether v satisfies the contract.
func (id ExtensionPointID) implementedBy(v any) bool {
	return v != nil && id.t != nil && reflect.TypeOf(v).Implements(id.t)
}

// PluginID is the borrowed form of a plugin identifier, normally a
// package-level constant declared beside the plugin.
type PluginID string

// String implements fmt.Stringer.
func (id PluginID) String() string { return string(id) }

// Own returns the owned form of id.
func (id PluginID) Own() OwnedID { return OwnedID{value: string(id)} }

// OwnedID is a plugin identifier held independently of the plugin that
// declared it: persisted, sent over an API, read back from config.
// It round-trips through text and JSON.
type OwnedID struct {
	value string
}

// ParsePluginID validates s and returns it as an OwnedID.
func ParsePluginID(s string) (OwnedID, error) {
	if err := validator.Var(s, "required,max=128,pluginid"); err != nil {
		return OwnedID{}, errors.NewInvalidPluginID(s, err)
	}
	return OwnedID{value: s}, nil
}

// MustParsePluginID is ParsePluginID that panics on invalid input.
func MustParsePluginID(s string) OwnedID {
	id, err := ParsePluginID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ID returns the borrowed form.
func (o OwnedID) ID() PluginID { return PluginID(o.value) }

// Is reports whether o names the same plugin as id.
func (o OwnedID) Is(id PluginID) bool { return o.value == string(id) }

// IsZero reports whether o is empty.
func (o OwnedID) IsZero() bool { return o.value == "" }

func (o OwnedID) String() string { return o.value }

// MarshalText implements encoding.TextMarshaler.
func (o OwnedID) MarshalText() ([]byte, error) {
	return []byte(o.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The input is validated.
func (o *OwnedID) UnmarshalText(text []byte) error {
	parsed, err := ParsePluginID(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// HookID keys one hook: the owning plugin, the extension point it
// implements and an optional discriminator ("" means none) separating
// several hooks one plugin registers for the same point.
type HookID struct {
	Plugin        PluginID
	Point         ExtensionPointID
	Discriminator string
}

// NewHookID builds a HookID for contract C.
func NewHookID[C any](plugin PluginID, discriminator string) HookID {
	return HookID{Plugin: plugin, Point: PointOf[C](), Discriminator: discriminator}
}

// String renders the id as plugin/point or plugin/point#discriminator.
func (id HookID) String() string {
	s := string(id.Plugin) + "/" + id.Point.String()
	if id.Discriminator != "" {
		s += "#" + id.Discriminator
	}
	return s
}

var validator *validatorV10.Validate

func init() {
	validator = validatorV10.New()
	_ = validator.RegisterValidation("pluginid", func(fl validatorV10.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if r > unicode.MaxASCII || !unicode.IsPrint(r) || unicode.IsSpace(r) {
				return false
			}
		}
		return true
	})
}
