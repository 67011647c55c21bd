package controllers_test

import (
	"context"
	nethttp "net/http"

	"github.com/go-kratos/kratos/v2/transport"
)

type headerCarrier nethttp.Header

func (h headerCarrier) Get(key string) string      { return nethttp.Header(h).Get(key) }
func (h headerCarrier) Set(key, value string)      { nethttp.Header(h).Set(key, value) }
func (h headerCarrier) Add(key, value string)      { nethttp.Header(h).Add(key, value) }
func (h headerCarrier) Values(key string) []string { return nethttp.Header(h).Values(key) }
func (h headerCarrier) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}

type fakeTransport struct {
	header headerCarrier
}

func (f *fakeTransport) Kind() transport.Kind            { return transport.KindHTTP }
func (f *fakeTransport) Endpoint() string                { return "http://127.0.0.1:8000" }
func (f *fakeTransport) Operation() string               { return "" }
func (f *fakeTransport) RequestHeader() transport.Header { return f.header }
func (f *fakeTransport) ReplyHeader() transport.Header   { return headerCarrier{} }

// serverContext 构造携带请求头的 kratos server context。
func serverContext(pairs ...string) context.Context {
	header := headerCarrier{}
	for i := 0; i+1 < len(pairs); i += 2 {
		header.Set(pairs[i], pairs[i+1])
	}
	return transport.NewServerContext(context.Background(), &fakeTransport{header: header})
}

func ptr[T any](v T) *T { return &v }
