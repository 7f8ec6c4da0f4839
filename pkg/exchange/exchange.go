// Package exchange define a requisição e a resposta independentes de transporte
// (net/http, Lambda) que circulam pelo pipeline do mock.
package exchange

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Request é a requisição já decodificada pelo transporte. PathParams é
// preenchido pelo pipeline após o casamento de rota.
type Request struct {
	Method     string
	Path       string
	Query      url.Values
	Header     http.Header
	Cookies    map[string]string
	Body       []byte
	PathParams map[string]string
	RemoteAddr string
	ReceivedAt time.Time
}

// HeaderMap devolve os headers com nomes em minúsculas e apenas o primeiro valor.
func (r *Request) HeaderMap() map[string]any {
	out := make(map[string]any, len(r.Header))
	for name, values := range r.Header {
		if len(values) > 0 {
			out[strings.ToLower(name)] = values[0]
		}
	}
	return out
}

// QueryMap devolve a query string com apenas o primeiro valor de cada chave.
func (r *Request) QueryMap() map[string]any {
	out := make(map[string]any, len(r.Query))
	for name, values := range r.Query {
		if len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out
}

func (r *Request) CookieMap() map[string]any {
	out := make(map[string]any, len(r.Cookies))
	for name, value := range r.Cookies {
		out[name] = value
	}
	return out
}

func (r *Request) PathMap() map[string]any {
	out := make(map[string]any, len(r.PathParams))
	for name, value := range r.PathParams {
		out[name] = value
	}
	return out
}

// Response é a resposta final entregue ao transporte.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON monta uma resposta com body serializado em JSON.
func JSON(status int, body any) *Response {
	raw, err := json.Marshal(body)
	if err != nil {
		raw = []byte(`{"error":"Internal Server Error"}`)
		status = http.StatusInternalServerError
	}
	return Raw(status, raw)
}

// Raw monta uma resposta JSON com bytes já serializados.
func Raw(status int, body []byte) *Response {
	h := http.Header{}
	if len(body) > 0 {
		h.Set("Content-Type", "application/json")
	}
	return &Response{Status: status, Header: h, Body: body}
}

// ErrorBody é o formato {"error": "..."} usado em todas as respostas de erro.
func ErrorBody(message string) map[string]any {
	return map[string]any{"error": message}
}
