package hook

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/leeforge/hookkit/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Same method set as Greeter, still a different contract.
type otherGreeter interface {
	Greet(name string) string
}

func TestPointOf_Stable(t *testing.T) {
	assert.Equal(t, PointOf[Greeter](), PointOf[Greeter]())
	assert.NotEqual(t, PointOf[Greeter](), PointOf[Counter]())
	assert.NotEqual(t, PointOf[Greeter](), PointOf[otherGreeter]())
	assert.Equal(t, "hook.Greeter", PointOf[Greeter]().String())
	assert.Equal(t, "Greeter", PointOf[Greeter]().Name())
}

func TestPointOf_PanicsOnConcreteType(t *testing.T) {
	assert.Panics(t, func() { PointOf[englishGreeter]() })
	assert.Panics(t, func() { PointOf[int]() })
}

func TestExtensionPointID_Zero(t *testing.T) {
	var id ExtensionPointID
	assert.True(t, id.IsZero())
	assert.Equal(t, "<none>", id.String())
	assert.False(t, PointOf[Greeter]().IsZero())
}

func TestParsePluginID(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"greeter", true},
		{"acme.text-processor_v2", true},
		{"", false},
		{"has space", false},
		{"tab\there", false},
		{"naïve", false},
		{strings.Repeat("x", 128), true},
		{strings.Repeat("x", 129), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id, err := ParsePluginID(tt.in)
			if tt.valid {
				require.NoError(t, err)
				assert.True(t, id.Is(PluginID(tt.in)))
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidPluginID))
		})
	}
}

func TestOwnedID_BorrowedEquality(t *testing.T) {
	const id PluginID = "greeter"

	owned := id.Own()
	assert.Equal(t, id, owned.ID())
	assert.True(t, owned.Is(id))
	assert.False(t, owned.Is("other"))
	assert.Equal(t, MustParsePluginID("greeter"), owned)
}

func TestOwnedID_JSONRoundTrip(t *testing.T) {
	in := []OwnedID{PluginID("a").Own(), PluginID("b.c").Own()}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b.c"]`, string(data))

	var out []OwnedID
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestOwnedID_UnmarshalRejectsInvalid(t *testing.T) {
	var id OwnedID
	err := json.Unmarshal([]byte(`"bad id"`), &id)
	assert.Error(t, err)
	assert.True(t, id.IsZero())
}

func TestHookID_String(t *testing.T) {
	assert.Equal(t, "a/hook.Greeter", NewHookID[Greeter]("a", "").String())
	assert.Equal(t, "a/hook.Greeter#fr", NewHookID[Greeter]("a", "fr").String())
}

func TestContribution_Bind(t *testing.T) {
	c := Provide[Greeter](englishGreeter{}, "en")
	assert.Equal(t, PointOf[Greeter](), c.Point())
	assert.Equal(t, "en", c.Discriminator())

	h, err := c.Bind("a")
	require.NoError(t, err)
	assert.Equal(t, NewHookID[Greeter]("a", "en"), h.ID())
	assert.Zero(t, h.Seq())

	var nilGreeter Greeter
	_, err = Provide[Greeter](nilGreeter).Bind("a")
	assert.True(t, errors.Is(err, errors.ErrInvalidHook))

	_, err = Contribution{}.Bind("a")
	assert.True(t, errors.Is(err, errors.ErrInvalidHook))
}
