// Package admin exposes a runtime's plugins over HTTP: list and inspect
// them, switch them on and off, apply new settings and read metrics.
package admin

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/leeforge/hookkit/config"
	"github.com/leeforge/hookkit/hook"
	"github.com/leeforge/hookkit/http/binding"
	"github.com/leeforge/hookkit/http/middleware"
	"github.com/leeforge/hookkit/http/responder"
	"github.com/leeforge/hookkit/logging"
	"github.com/leeforge/hookkit/runtime"
	"go.uber.org/zap"
)

type handler struct {
	rt *runtime.Runtime
}

// Routes mounts the control endpoints on r.
//
//	GET  /plugins
//	GET  /plugins/{id}
//	POST /plugins/{id}/enable
//	POST /plugins/{id}/disable
//	PUT  /settings
//	GET  /metrics
func Routes(r chi.Router, rt *runtime.Runtime) {
	h := &handler{rt: rt}
	r.Route("/plugins", func(r chi.Router) {
		r.Get("/", h.list)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Post("/enable", h.enable)
			r.Post("/disable", h.disable)
		})
	})
	r.Put("/settings", h.applySettings)
	r.Get("/metrics", h.metrics)
}

// NewRouter returns a router with request tracing, timing, access logging
// and panic recovery in front of Routes.
func NewRouter(rt *runtime.Runtime, logger logging.Logger) chi.Router {
	if logger == nil {
		logger = logging.Nop()
	}
	r := chi.NewRouter()
	r.Use(
		middleware.TraceID(),
		middleware.Timing(),
		middleware.AccessLog(logger.Named("admin")),
		chimw.Recoverer,
	)
	Routes(r, rt)
	return r
}

func meta(r *http.Request) []responder.Option {
	return []responder.Option{
		responder.WithTraceID(middleware.GetTraceID(r.Context())),
		responder.WithTook(middleware.GetRequestDuration(r.Context())),
	}
}

// pluginID reads and validates the {id} URL parameter, writing a 400 on
// failure.
func pluginID(w http.ResponseWriter, r *http.Request) (hook.PluginID, bool) {
	owned, err := hook.ParsePluginID(chi.URLParam(r, "id"))
	if err != nil {
		responder.Fail(w, err, meta(r)...)
		return "", false
	}
	return owned.ID(), true
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	responder.OK(w, h.rt.Status(), meta(r)...)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pluginID(w, r)
	if !ok {
		return
	}
	status, err := h.rt.PluginStatus(id)
	if err != nil {
		responder.Fail(w, err, meta(r)...)
		return
	}
	responder.OK(w, status, meta(r)...)
}

func (h *handler) enable(w http.ResponseWriter, r *http.Request) {
	h.switchState(w, r, h.rt.Enable)
}

func (h *handler) disable(w http.ResponseWriter, r *http.Request) {
	h.switchState(w, r, h.rt.Disable)
}

func (h *handler) switchState(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id hook.PluginID) error) {
	id, ok := pluginID(w, r)
	if !ok {
		return
	}
	if err := apply(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Warn("plugin state change rejected",
			zap.String("plugin", id.String()), zap.Error(err))
		responder.Fail(w, err, meta(r)...)
		return
	}
	status, err := h.rt.PluginStatus(id)
	if err != nil {
		responder.Fail(w, err, meta(r)...)
		return
	}
	responder.OK(w, status, meta(r)...)
}

// applySettings applies the request body on top of the current settings.
// Sections the body omits keep their values; plugins is replaced whole.
func (h *handler) applySettings(w http.ResponseWriter, r *http.Request) {
	s := config.Settings{}
	if current := h.rt.Settings(); current != nil {
		s = *current
		s.Plugins = nil
	}
	if err := binding.JSON(r, &s, binding.WithDisallowUnknownFields()); err != nil {
		if verrs, ok := err.(binding.ValidationErrors); ok {
			responder.ValidationError(w, verrs, meta(r)...)
			return
		}
		responder.BadRequest(w, err.Error(), meta(r)...)
		return
	}
	if err := s.Validate(); err != nil {
		responder.BadRequest(w, err.Error(), meta(r)...)
		return
	}
	if err := h.rt.Apply(r.Context(), &s); err != nil {
		responder.Fail(w, err, meta(r)...)
		return
	}
	responder.OK(w, h.rt.Status(), meta(r)...)
}

func (h *handler) metrics(w http.ResponseWriter, r *http.Request) {
	responder.OK(w, h.rt.Metrics().Snapshot(), meta(r)...)
}
