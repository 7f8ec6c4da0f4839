package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/raywall/fast-service-mock/pkg/engine"
	"github.com/raywall/fast-service-mock/pkg/exchange"
	"github.com/raywall/fast-service-mock/pkg/graphql"
	"github.com/raywall/fast-service-mock/pkg/pipeline"
)

// LambdaHandler adapta eventos do API Gateway para o pipeline do mock.
type LambdaHandler struct {
	eng     *engine.MockEngine
	gql     *graphql.AdminEngine
	limiter *RateLimiter
}

func NewLambdaHandler(eng *engine.MockEngine) (*LambdaHandler, error) {
	h := &LambdaHandler{eng: eng}
	cfg := eng.Config
	if cfg.Admin.Enabled && cfg.Admin.GraphQL {
		gql, err := graphql.NewAdminEngine(eng.Table, eng.Store)
		if err != nil {
			return nil, err
		}
		h.gql = gql
	}
	if cfg.RateLimit.Enabled {
		h.limiter = NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, eng.Logger)
	}
	return h, nil
}

func (h *LambdaHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	// 1. Observabilidade (mesma lógica do middleware HTTP)
	start := time.Now()
	headers := lambdaHeaders(req)
	corrID := correlationID(headers.Get(HeaderCorrelationID))

	logger := h.eng.Logger.With().Str("correlation_id", corrID).Logger()
	ctx = logger.WithContext(ctx)
	ctx = pipeline.WithCorrelationID(ctx, corrID)

	// 2. Limite por cliente, rotas administrativas ou pipeline
	var resp *exchange.Response
	if h.limiter != nil && !h.limiter.Allow(req.RequestContext.Identity.SourceIP) {
		resp = tooManyRequests()
	} else {
		resp = h.dispatch(ctx, req, headers)
	}

	// 3. Log final
	logger.Info().
		Str("method", req.HTTPMethod).
		Str("path", req.Path).
		Int("status", resp.Status).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("lambda request completed")

	out := events.APIGatewayProxyResponse{
		StatusCode:        resp.Status,
		Headers:           map[string]string{HeaderCorrelationID: corrID},
		MultiValueHeaders: map[string][]string{},
		Body:              string(resp.Body),
	}
	for name, values := range resp.Header {
		if len(values) == 1 {
			out.Headers[name] = values[0]
			continue
		}
		out.MultiValueHeaders[name] = values
	}
	return out, nil
}

func (h *LambdaHandler) dispatch(ctx context.Context, req events.APIGatewayProxyRequest, headers http.Header) *exchange.Response {
	cfg := h.eng.Config
	if cfg.Admin.Enabled {
		prefix := cfg.Admin.AdminPrefix()
		switch {
		case req.HTTPMethod == http.MethodGet && req.Path == prefix+"/health":
			return exchange.JSON(http.StatusOK, map[string]any{"status": "ok", "operations": h.eng.Table.Len()})
		case req.HTTPMethod == http.MethodGet && req.Path == prefix+"/routes":
			return exchange.JSON(http.StatusOK, h.eng.Table.Describe())
		case h.gql != nil && req.HTTPMethod == http.MethodPost && req.Path == prefix+"/graphql":
			return h.handleGraphQL(ctx, req)
		}
	}

	body, err := lambdaBody(req)
	if err != nil {
		return exchange.JSON(http.StatusBadRequest, exchange.ErrorBody("Invalid request body"))
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Service.GetTimeout())
	defer cancel()

	return h.eng.Pipeline.Handle(ctx, &exchange.Request{
		Method:     req.HTTPMethod,
		Path:       req.Path,
		Query:      lambdaQuery(req),
		Header:     headers,
		Cookies:    cookiesOf(headers),
		Body:       body,
		RemoteAddr: req.RequestContext.Identity.SourceIP,
		ReceivedAt: time.Now(),
	})
}

func (h *LambdaHandler) handleGraphQL(ctx context.Context, req events.APIGatewayProxyRequest) *exchange.Response {
	var p graphQLRequest
	if err := json.Unmarshal([]byte(req.Body), &p); err != nil {
		return exchange.JSON(http.StatusBadRequest, exchange.ErrorBody("Invalid JSON Body"))
	}
	return exchange.JSON(http.StatusOK, h.gql.Execute(ctx, p.Query, p.Variables))
}

// lambdaHeaders une Headers e MultiValueHeaders em um http.Header canônico.
func lambdaHeaders(req events.APIGatewayProxyRequest) http.Header {
	h := http.Header{}
	for name, values := range req.MultiValueHeaders {
		for _, v := range values {
			h.Add(name, v)
		}
	}
	for name, v := range req.Headers {
		if h.Get(name) == "" {
			h.Set(name, v)
		}
	}
	return h
}

func lambdaQuery(req events.APIGatewayProxyRequest) url.Values {
	q := url.Values{}
	for name, values := range req.MultiValueQueryStringParameters {
		for _, v := range values {
			q.Add(name, v)
		}
	}
	for name, v := range req.QueryStringParameters {
		if !q.Has(name) {
			q.Set(name, v)
		}
	}
	return q
}

func lambdaBody(req events.APIGatewayProxyRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	return base64.StdEncoding.DecodeString(req.Body)
}

func cookiesOf(h http.Header) map[string]string {
	out := make(map[string]string)
	for _, line := range h.Values("Cookie") {
		for _, part := range strings.Split(line, ";") {
			name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
			if ok && name != "" {
				out[name] = value
			}
		}
	}
	return out
}
