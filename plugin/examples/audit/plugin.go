package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/leeforge/hookkit/hook"
	"github.com/leeforge/hookkit/logging"
	"github.com/leeforge/hookkit/plugin"
	"go.uber.org/zap"
)

// ID is the audit plugin's identifier.
const ID hook.PluginID = "audit"

// Recorder is the extension point hosts call to record an action.
type Recorder interface {
	Record(action string, data any)
}

// AuditPlugin records plugin lifecycle events and exposes a Recorder hook.
//
// Implements: Plugin, Loadable, Unloadable, Namer, Configurable
type AuditPlugin struct {
	service *AuditService
	subs    []plugin.Subscription
}

// New creates the audit plugin.
func New() *AuditPlugin {
	return &AuditPlugin{service: &AuditService{retention: 90}}
}

// --- Core Interface (mandatory) ---

func (p *AuditPlugin) ID() hook.PluginID   { return ID }
func (p *AuditPlugin) Description() string { return "System audit logging for plugin events" }

func (p *AuditPlugin) Hooks() []hook.Contribution {
	return []hook.Contribution{hook.Provide[Recorder](p.service)}
}

// --- Loadable ---

func (p *AuditPlugin) OnLoad(ctx context.Context, app *plugin.AppContext) error {
	p.service.logger = app.Logger
	p.service.SetRetention(app.Config.GetInt("retention_days", 90))

	if app.Events != nil {
		for _, topic := range []string{
			plugin.TopicLoaded, plugin.TopicEnabled, plugin.TopicDisabled,
			plugin.TopicUnloaded, plugin.TopicFailed,
		} {
			p.subs = append(p.subs, app.Events.Subscribe(topic, func(ctx context.Context, e plugin.Event) error {
				p.service.Record(e.Name, e.Data)
				return nil
			}))
		}
	}

	return app.Services.RegisterFor(app.Plugin, app.ServiceKey("service"), p.service)
}

// --- Unloadable ---

func (p *AuditPlugin) OnUnload(ctx context.Context, app *plugin.AppContext) error {
	for _, s := range p.subs {
		if s != nil {
			s.Unsubscribe()
		}
	}
	p.subs = nil
	app.Logger.Info("audit plugin: flushing pending records", zap.Int("records", p.service.Len()))
	return nil
}

// --- Namer ---

func (p *AuditPlugin) Name() string { return "Audit Log" }

// --- Configurable ---

func (p *AuditPlugin) PluginOptions() plugin.PluginOptions {
	return plugin.PluginOptions{Optional: true}
}

// --- Compile-time interface checks ---

var (
	_ plugin.Plugin       = (*AuditPlugin)(nil)
	_ plugin.Loadable     = (*AuditPlugin)(nil)
	_ plugin.Unloadable   = (*AuditPlugin)(nil)
	_ plugin.Namer        = (*AuditPlugin)(nil)
	_ plugin.Configurable = (*AuditPlugin)(nil)
)

// --- Internal ---

// Entry is one recorded action.
type Entry struct {
	Action string
	Data   any
}

// AuditService keeps recorded actions in memory.
type AuditService struct {
	mu        sync.Mutex
	logger    logging.Logger
	retention int
	entries   []Entry
}

func (s *AuditService) SetRetention(days int) { s.retention = days }

// Retention returns the configured retention in days.
func (s *AuditService) Retention() int { return s.retention }

func (s *AuditService) Record(action string, data any) {
	s.mu.Lock()
	s.entries = append(s.entries, Entry{Action: action, Data: data})
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("audit record", zap.String("action", action), zap.String("data", fmt.Sprint(data)))
	}
}

// Entries returns a copy of the recorded actions.
func (s *AuditService) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

func (s *AuditService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
