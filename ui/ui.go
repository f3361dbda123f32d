package ui

import (
	"bytes"
	"context"
	_ "embed"
	"net/http"
	"time"

	"github.com/NethermindEth/incrementer/controller"
	"github.com/NethermindEth/incrementer/utils"
	"github.com/rs/cors"
)

//go:embed index.html
var indexPage []byte

// Controller is the part of the controller the user surface drives.
type Controller interface {
	Snapshot() controller.Snapshot
	Subscribe() *controller.Subscription
	Connect(ctx context.Context) error
	Refresh(ctx context.Context) error
	Submit(ctx context.Context, input string) error
}

var _ Controller = (*controller.Controller)(nil)

type Handler struct {
	controller Controller
	log        utils.SimpleLogger
	origins    []string
	wsParams   *WebsocketConnParams
	mux        *http.ServeMux
}

// New serves the page at /, the JSON API under /api/ and the snapshot stream at /ws.
// origins lists the browser origins allowed to call the API; "*" allows any.
func New(c Controller, origins []string, log utils.SimpleLogger) *Handler {
	h := &Handler{
		controller: c,
		log:        log,
		origins:    origins,
		wsParams:   DefaultWebsocketConnParams(),
		mux:        http.NewServeMux(),
	}

	api := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	h.mux.HandleFunc("GET /{$}", h.servePage)
	h.mux.Handle("/api/state", api.Handler(http.HandlerFunc(h.handleState)))
	h.mux.Handle("/api/connect", api.Handler(http.HandlerFunc(h.handleConnect)))
	h.mux.Handle("/api/refresh", api.Handler(http.HandlerFunc(h.handleRefresh)))
	h.mux.Handle("/api/increment", api.Handler(http.HandlerFunc(h.handleIncrement)))
	h.mux.HandleFunc("GET /ws", h.serveWebsocket)
	return h
}

func (h *Handler) WithConnParams(p *WebsocketConnParams) *Handler {
	h.wsParams = p
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", time.Time{}, bytes.NewReader(indexPage))
}
