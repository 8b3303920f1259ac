package responder

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leeforge/hookkit/errors"
	"github.com/leeforge/hookkit/hook"
	"github.com/leeforge/hookkit/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestWrite(t *testing.T) {
	rr := httptest.NewRecorder()

	Write(rr, http.StatusCreated, "hello", WithTraceID("trace"), WithTook(42))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	resp := decode(t, rr)
	assert.Equal(t, "hello", resp.Data)
	assert.Nil(t, resp.Error)
	assert.Equal(t, Meta{TraceId: "trace", Took: 42}, resp.Meta)
}

func TestFail(t *testing.T) {
	rr := httptest.NewRecorder()

	Fail(rr, errors.NewPluginNotFound("audit"), WithTraceID("trace-err"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	resp := decode(t, rr)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.ErrorTypePluginNotFound, resp.Error.Type)
	assert.Equal(t, "audit", resp.Error.Plugin)
	assert.Equal(t, "trace-err", resp.Meta.TraceId)
	assert.Nil(t, resp.Data)
}

func TestFail_Wrapped(t *testing.T) {
	rr := httptest.NewRecorder()
	err := fmt.Errorf("enable: %w", errors.NewPluginAlreadyEnabled("audit"))

	Fail(rr, err)

	assert.Equal(t, http.StatusConflict, rr.Code)
	resp := decode(t, rr)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.ErrorTypePluginAlreadyEnabled, resp.Error.Type)
	assert.Contains(t, resp.Error.Message, "enable: ")
}

func TestFail_Unknown(t *testing.T) {
	rr := httptest.NewRecorder()

	Fail(rr, fmt.Errorf("disk on fire"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decode(t, rr)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrorTypeInternal, resp.Error.Type)
	assert.Equal(t, "disk on fire", resp.Error.Message)
}

func TestStatusOf(t *testing.T) {
	hookID := hook.NewHookID[fmt.Stringer]("a", "")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", errors.NewPluginNotFound("a"), http.StatusNotFound},
		{"hook not found", errors.NewHookNotFound("a", hookID), http.StatusNotFound},
		{"already loaded", errors.NewPluginAlreadyLoaded("a"), http.StatusConflict},
		{"already enabled", errors.NewPluginAlreadyEnabled("a"), http.StatusConflict},
		{"not enabled", errors.NewPluginNotEnabled("a"), http.StatusConflict},
		{"duplicate hook", errors.NewDuplicateHookID("a", hookID), http.StatusConflict},
		{"invalid id", errors.NewInvalidPluginID("a b", nil), http.StatusBadRequest},
		{"invalid hook", errors.NewInvalidHook("a", "nil impl"), http.StatusBadRequest},
		{"dependency", errors.NewDependency("a", "missing b"), http.StatusUnprocessableEntity},
		{"lifecycle", errors.NewLifecycle("a", "load", fmt.Errorf("boom")), http.StatusInternalServerError},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestValidationError(t *testing.T) {
	rr := httptest.NewRecorder()

	ValidationError(rr, []string{"manager.visibility"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decode(t, rr)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrorTypeValidationFailed, resp.Error.Type)
	assert.Equal(t, []any{"manager.visibility"}, resp.Error.Details)
}

func TestBadRequest_DefaultMessage(t *testing.T) {
	rr := httptest.NewRecorder()

	BadRequest(rr, "")

	resp := decode(t, rr)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Bad Request", resp.Error.Message)
}
