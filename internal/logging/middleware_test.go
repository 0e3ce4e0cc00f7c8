package logging

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingOutput struct {
	Body struct {
		OK bool `json:"ok"`
	}
}

func newPingAPI(t *testing.T, fail bool) (humatest.TestAPI, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	_, api := humatest.New(t)
	api.UseMiddleware(Middleware(logger))

	huma.Register(api, huma.Operation{
		OperationID: "ping",
		Method:      http.MethodGet,
		Path:        "/ping",
	}, func(ctx context.Context, _ *struct{}) (*pingOutput, error) {
		logData := GetLogData(ctx)
		if logData == nil {
			return nil, huma.Error500InternalServerError("no log data")
		}
		logData.AddData("pinged", true)
		if fail {
			return nil, huma.Error500InternalServerError("boom")
		}
		out := &pingOutput{}
		out.Body.OK = true
		return out, nil
	})
	return api, hook
}

func TestMiddleware_LogsComplete(t *testing.T) {
	api, hook := newPingAPI(t, false)

	resp := api.Get("/ping")
	assert.Equal(t, http.StatusOK, resp.Code)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Handler.ping.Complete", entry.Message)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, true, entry.Data["pinged"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
	assert.Contains(t, entry.Data, "durationMs")
}

func TestMiddleware_LogsServerErrors(t *testing.T) {
	api, hook := newPingAPI(t, true)

	resp := api.Get("/ping")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Handler.ping.Error", entry.Message)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
}
