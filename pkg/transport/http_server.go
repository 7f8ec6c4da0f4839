// Package transport expõe o pipeline do mock via net/http (gorilla/mux) e via
// AWS Lambda (API Gateway).
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/raywall/fast-service-mock/pkg/engine"
	"github.com/raywall/fast-service-mock/pkg/exchange"
	"github.com/raywall/fast-service-mock/pkg/graphql"
)

// maxBodyBytes limita o body aceito pelo mock.
const maxBodyBytes = 10 << 20

// NewRouter monta o handler completo: rotas administrativas, métricas e o
// catch-all que entrega toda requisição restante ao pipeline.
func NewRouter(eng *engine.MockEngine) (http.Handler, error) {
	cfg := eng.Config
	router := mux.NewRouter()

	if cfg.Admin.Enabled {
		if err := registerAdmin(router, eng); err != nil {
			return nil, err
		}
	}

	if cfg.Service.Metrics.Prometheus.Enabled && eng.Metrics != nil && eng.Metrics.Prometheus != nil {
		route := cfg.Service.Metrics.Prometheus.Route
		if route == "" {
			route = "/metrics"
		}
		eng.Logger.Info().Msgf("Registrando métricas Prometheus em %s", route)
		router.Handle(route, eng.Metrics.Prometheus.Handler()).Methods(http.MethodGet)
	}

	router.PathPrefix("/").Handler(mockHandler(eng))

	var handler http.Handler = router
	if cfg.RateLimit.Enabled {
		handler = NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, eng.Logger).Handler(handler)
	}
	return ObservabilityMiddleware(eng.Logger)(handler), nil
}

// StartHTTPServer atende até o contexto ser cancelado; requisições em curso
// têm até shutdownTimeout para terminar.
func StartHTTPServer(ctx context.Context, eng *engine.MockEngine, shutdownTimeout time.Duration) error {
	handler, err := NewRouter(eng)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", eng.Config.Service.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	eng.Logger.Info().Msgf("Servidor HTTP ouvindo em %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func mockHandler(eng *engine.MockEngine) http.HandlerFunc {
	timeout := eng.Config.Service.GetTimeout()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		req, err := requestFromHTTP(r)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeResponse(w, exchange.JSON(http.StatusRequestEntityTooLarge, exchange.ErrorBody("Request Entity Too Large")))
				return
			}
			writeResponse(w, exchange.JSON(http.StatusBadRequest, exchange.ErrorBody("Invalid request body")))
			return
		}
		writeResponse(w, eng.Pipeline.Handle(ctx, req))
	}
}

func requestFromHTTP(r *http.Request) (*exchange.Request, error) {
	var body []byte
	if r.Body != nil {
		defer r.Body.Close()
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
	}

	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}

	return &exchange.Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Query:      r.URL.Query(),
		Header:     r.Header.Clone(),
		Cookies:    cookies,
		Body:       body,
		RemoteAddr: clientAddress(r.RemoteAddr),
		ReceivedAt: time.Now(),
	}, nil
}

func writeResponse(w http.ResponseWriter, resp *exchange.Response) {
	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

func registerAdmin(router *mux.Router, eng *engine.MockEngine) error {
	prefix := eng.Config.Admin.AdminPrefix()
	admin := router.PathPrefix(prefix).Subrouter()
	eng.Logger.Info().Msgf("Registrando rotas administrativas em %s", prefix)

	admin.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeResponse(w, exchange.JSON(http.StatusOK, map[string]any{
			"status":     "ok",
			"operations": eng.Table.Len(),
		}))
	}).Methods(http.MethodGet)

	admin.HandleFunc("/routes", func(w http.ResponseWriter, _ *http.Request) {
		writeResponse(w, exchange.JSON(http.StatusOK, eng.Table.Describe()))
	}).Methods(http.MethodGet)

	if eng.Config.Admin.GraphQL {
		gql, err := graphql.NewAdminEngine(eng.Table, eng.Store)
		if err != nil {
			return fmt.Errorf("falha ao montar schema graphql: %w", err)
		}
		admin.HandleFunc("/graphql", graphQLHandler(gql)).Methods(http.MethodPost)
	}
	return nil
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

func graphQLHandler(gql *graphql.AdminEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeResponse(w, exchange.JSON(http.StatusBadRequest, exchange.ErrorBody("Invalid JSON Body")))
			return
		}
		writeResponse(w, exchange.JSON(http.StatusOK, gql.Execute(r.Context(), p.Query, p.Variables)))
	}
}
