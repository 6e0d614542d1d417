package sessionguard

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/hashicorp/go-cleanhttp"
)

// RequestHook runs on the outgoing request before it is sent. Returning an
// error aborts the request.
type RequestHook func(req *http.Request) error

// ResponseHook observes a finished exchange. err is the transport error, or a
// *StatusError when the response status is >= 400. Hooks cannot change what
// the caller receives.
type ResponseHook func(req *http.Request, resp *http.Response, err error)

// Registrar accepts request and response hooks. It is satisfied by *Pipeline.
type Registrar interface {
	RegisterRequestHook(RequestHook)
	RegisterResponseHook(ResponseHook)
}

// Pipeline is an http.RoundTripper that runs registered hooks around a base
// transport. Hooks run in registration order. It is safe for concurrent use,
// and hooks may be registered while requests are in flight.
type Pipeline struct {
	base http.RoundTripper

	mu            sync.RWMutex
	requestHooks  []RequestHook
	responseHooks []ResponseHook
}

var _ http.RoundTripper = (*Pipeline)(nil)

// NewPipeline wraps base. A nil base uses a pooled go-cleanhttp transport.
func NewPipeline(base http.RoundTripper) *Pipeline {
	if base == nil {
		base = cleanhttp.DefaultPooledTransport()
	}
	return &Pipeline{base: base}
}

// RegisterRequestHook appends a request hook.
func (p *Pipeline) RegisterRequestHook(h RequestHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requestHooks = append(p.requestHooks, h)
}

// RegisterResponseHook appends a response hook.
func (p *Pipeline) RegisterResponseHook(h ResponseHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responseHooks = append(p.responseHooks, h)
}

// RoundTrip sends a clone of req through the request hooks and the base
// transport, then reports the result to every response hook. The response
// and error from the base transport are returned unchanged.
func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	p.mu.RLock()
	requestHooks := p.requestHooks
	responseHooks := p.responseHooks
	p.mu.RUnlock()

	out := req.Clone(req.Context())
	for _, h := range requestHooks {
		if err := h(out); err != nil {
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return nil, fmt.Errorf("request hook: %w", err)
		}
	}

	resp, err := p.base.RoundTrip(out)

	hookErr := err
	if err == nil && resp.StatusCode >= http.StatusBadRequest {
		hookErr = newStatusError(out, resp)
	}
	for _, h := range responseHooks {
		h(out, resp, hookErr)
	}

	return resp, err
}
