package status

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

type Handler struct {
	started time.Time
}

func NewHandler() *Handler {
	return &Handler{started: time.Now()}
}

type Output struct {
	Body struct {
		Status        string `json:"status" doc:"Always ok while the server is serving"`
		UptimeSeconds int64  `json:"uptimeSeconds" doc:"Seconds since the server started"`
	}
}

func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Liveness",
		Tags:        []string{"Status"},
	}, h.handle)
}

func (h *Handler) handle(_ context.Context, _ *struct{}) (*Output, error) {
	out := &Output{}
	out.Body.Status = "ok"
	out.Body.UptimeSeconds = int64(time.Since(h.started).Seconds())
	return out, nil
}
