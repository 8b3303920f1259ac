package audit

import (
	"context"
	"testing"

	"github.com/leeforge/hookkit/hook"
	"github.com/leeforge/hookkit/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditPlugin_RecordsThroughHook(t *testing.T) {
	ctx := context.Background()
	m := plugin.NewManager(plugin.WithConfig(plugin.MapSource(map[hook.PluginID]plugin.ConfigProvider{
		ID: plugin.NewPluginConfigEntry(ID, true, map[string]any{"retention_days": 30}),
	})))
	p := New()

	require.NoError(t, m.LoadPlugin(ctx, p))
	assert.Empty(t, hook.Impls[Recorder](m.Registry()))

	require.NoError(t, m.EnablePlugin(ID))
	for _, r := range hook.Impls[Recorder](m.Registry()) {
		r.Record("user.created", "alice")
	}

	svc, err := plugin.Resolve[*AuditService](m.Services(), "audit.service")
	require.NoError(t, err)
	assert.Equal(t, 30, svc.Retention())
	assert.Equal(t, []Entry{{Action: "user.created", Data: "alice"}}, svc.Entries())

	require.NoError(t, m.UnloadPlugin(ctx, ID))
	assert.False(t, m.Services().Has("audit.service"))
}
