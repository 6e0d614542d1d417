// Package grpc provides gRPC client interceptors that carry the Biblioteca
// session.
//
// Outgoing calls get an "authorization: Bearer <token>" metadata entry when a
// token is stored. A call failing with codes.Unauthenticated resets the
// session exactly like an HTTP 401 does: the token and roles are cleared and
// the user is sent to the login route. The caller still receives the
// original error.
//
// # Basic Usage
//
//	import (
//	    "log"
//
//	    "github.com/biblioteca-app/sessionguard"
//	    sessiongrpc "github.com/biblioteca-app/sessionguard/integrations/grpc"
//	    "google.golang.org/grpc"
//	    "google.golang.org/grpc/credentials/insecure"
//	)
//
//	func main() {
//	    session, _ := sessionguard.NewInterceptor(
//	        sessionguard.WithTokenStore(tokens),
//	        sessionguard.WithNavigator(r),
//	    )
//
//	    interceptor, err := sessiongrpc.New(
//	        sessiongrpc.WithTokenStore(tokens),
//	        sessiongrpc.WithUnauthorizedHandler(session),
//	        sessiongrpc.WithExcludedMethods("/biblioteca.Auth/Login"),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    conn, err := grpc.NewClient("localhost:9090",
//	        grpc.WithTransportCredentials(insecure.NewCredentials()),
//	        grpc.WithUnaryInterceptor(interceptor.UnaryClientInterceptor()),
//	        grpc.WithStreamInterceptor(interceptor.StreamClientInterceptor()),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer conn.Close()
//	}
//
// Excluded methods (typically login and registration) neither carry the
// token nor reset the session.
package grpc
