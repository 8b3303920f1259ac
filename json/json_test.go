package json

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pluginDoc struct {
	ID       string `json:"id"`
	Enabled  bool   `json:"enabled" default:"true"`
	Priority int    `json:"priority" default:"10"`
}

func TestMarshalAppliesDefaults(t *testing.T) {
	doc := &pluginDoc{ID: "greeter"}

	data, err := Marshal(doc)
	require.NoError(t, err)

	assert.True(t, doc.Enabled)
	assert.Equal(t, 10, doc.Priority)
	assert.JSONEq(t, `{"id":"greeter","enabled":true,"priority":10}`, string(data))
}

func TestUnmarshalAppliesDefaultsForMissingFields(t *testing.T) {
	var doc pluginDoc
	require.NoError(t, Unmarshal([]byte(`{"id":"a","priority":3}`), &doc))

	assert.Equal(t, "a", doc.ID)
	assert.True(t, doc.Enabled)
	assert.Equal(t, 3, doc.Priority)
}

func TestUnmarshalExplicitValuesWin(t *testing.T) {
	var doc pluginDoc
	require.NoError(t, Unmarshal([]byte(`{"id":"a","enabled":false}`), &doc))

	assert.False(t, doc.Enabled)
}

func TestNonStructValues(t *testing.T) {
	data, err := Marshal([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, string(data))

	var out map[string]int
	require.NoError(t, Unmarshal([]byte(`{"x":1}`), &out))
	assert.Equal(t, map[string]int{"x": 1}, out)
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(&pluginDoc{ID: "x"}))
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))

	var doc pluginDoc
	require.NoError(t, NewDecoder(&buf).Decode(&doc))
	assert.Equal(t, pluginDoc{ID: "x", Enabled: true, Priority: 10}, doc)
}
