package node

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/NethermindEth/incrementer/service"
	"github.com/NethermindEth/incrementer/ui"
	"github.com/NethermindEth/incrementer/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sourcegraph/conc"
)

type httpService struct {
	srv      *http.Server
	listener net.Listener
}

var _ service.Service = (*httpService)(nil)

func (h *httpService) Run(ctx context.Context) error {
	errCh := make(chan error)
	defer close(errCh)

	var wg conc.WaitGroup
	defer wg.Wait()
	wg.Go(func() {
		if err := h.srv.Serve(h.listener); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	})

	select {
	case <-ctx.Done():
		return h.srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

func (h *httpService) Addr() net.Addr {
	return h.listener.Addr()
}

// Close releases the listener of a service that was never run.
func (h *httpService) Close() error {
	return h.listener.Close()
}

func newHTTPService(host string, port uint16, handler http.Handler) (*httpService, error) {
	listener, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(int(port))))
	if err != nil {
		return nil, err
	}
	return &httpService{
		srv: &http.Server{
			Addr:    listener.Addr().String(),
			Handler: handler,
			// ReadTimeout also sets ReadHeaderTimeout and IdleTimeout.
			ReadTimeout: 30 * time.Second,
		},
		listener: listener,
	}, nil
}

func makeUI(host string, port uint16, c ui.Controller, cfg *Config, log utils.Logger) (*httpService, error) {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux := http.NewServeMux()
	mux.Handle("/", ui.New(c, origins, log.Named("ui")))
	mux.HandleFunc("/log/level", func(w http.ResponseWriter, r *http.Request) {
		utils.HTTPLogSettings(w, r, &cfg.LogLevel)
	})
	return newHTTPService(host, port, mux)
}

func makeMetrics(host string, port uint16, registry *prometheus.Registry) (*httpService, error) {
	return newHTTPService(host, port, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
}

func makePPROF(host string, port uint16) (*httpService, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return newHTTPService(host, port, mux)
}
