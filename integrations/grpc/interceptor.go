package grpc

import (
	"context"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	authorizationKey = "authorization"
	transportName    = "grpc"
)

// Interceptor attaches the stored token to outgoing gRPC calls and resets
// the session on codes.Unauthenticated.
type Interceptor struct {
	tokens          TokenStore
	handler         UnauthorizedHandler
	excludedMethods map[string]bool
	logger          Logger
}

// New creates a new gRPC session interceptor with the provided options.
// WithTokenStore option is required.
func New(opts ...Option) (*Interceptor, error) {
	interceptor := &Interceptor{
		excludedMethods: make(map[string]bool),
	}

	for _, opt := range opts {
		if err := opt(interceptor); err != nil {
			return nil, err
		}
	}

	if interceptor.tokens == nil {
		return nil, ErrTokenStoreNil
	}
	if interceptor.handler == nil {
		interceptor.handler = clearOnly{interceptor.tokens}
	}

	return interceptor, nil
}

// UnaryClientInterceptor returns a grpc.UnaryClientInterceptor carrying the
// session.
func (i *Interceptor) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		if i.excludedMethods[method] {
			return invoker(ctx, method, req, reply, cc, opts...)
		}

		err := invoker(i.attach(ctx), method, req, reply, cc, opts...)
		i.observe(ctx, method, err)
		return err
	}
}

// StreamClientInterceptor returns a grpc.StreamClientInterceptor carrying the
// session. A stream resets the session at most once, whether the
// Unauthenticated status arrives when opening it or on a later message.
func (i *Interceptor) StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		if i.excludedMethods[method] {
			return streamer(ctx, desc, cc, method, opts...)
		}

		cs, err := streamer(i.attach(ctx), desc, cc, method, opts...)
		if err != nil {
			i.observe(ctx, method, err)
			return nil, err
		}

		return &observedClientStream{ClientStream: cs, ctx: ctx, method: method, interceptor: i}, nil
	}
}

// attach adds the bearer token to the outgoing metadata when one is stored.
func (i *Interceptor) attach(ctx context.Context) context.Context {
	token := i.tokens.Read(ctx)
	if token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, authorizationKey, "Bearer "+token)
}

// observe resets the session when err carries codes.Unauthenticated.
func (i *Interceptor) observe(ctx context.Context, method string, err error) {
	if status.Code(err) != codes.Unauthenticated {
		return
	}

	if i.logger != nil {
		i.logger.Warn("Server rejected credentials, resetting session", "method", method)
	}
	i.handler.HandleUnauthorized(ctx, transportName)
}

// observedClientStream watches received messages for Unauthenticated.
type observedClientStream struct {
	grpc.ClientStream
	ctx         context.Context
	method      string
	interceptor *Interceptor
	once        sync.Once
}

func (s *observedClientStream) RecvMsg(m any) error {
	err := s.ClientStream.RecvMsg(m)
	if status.Code(err) == codes.Unauthenticated {
		s.once.Do(func() { s.interceptor.observe(s.ctx, s.method, err) })
	}
	return err
}

// clearOnly is the handler used without WithUnauthorizedHandler.
type clearOnly struct {
	tokens TokenStore
}

func (c clearOnly) HandleUnauthorized(ctx context.Context, _ string) {
	_ = c.tokens.Clear(ctx)
}
