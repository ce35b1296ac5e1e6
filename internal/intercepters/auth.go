package intercepters

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/linkdropapp/linkdrop/internal/app/service"
	"github.com/linkdropapp/linkdrop/internal/middleware"
)

// healthMethodPrefix is exempt from authentication so load balancers
// can probe the server.
const healthMethodPrefix = "/grpc.health.v1.Health/"

// WithJWT rejects unauthenticated unary calls and injects the caller's
// user ID into the context. Health probes pass through.
func WithJWT(auth service.AuthIface) func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if strings.HasPrefix(info.FullMethod, healthMethodPrefix) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeader := md.Get("authorization")
		if len(authHeader) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing credentials")
		}

		tokenString := strings.TrimPrefix(authHeader[0], "Bearer ")
		claims, err := auth.ParseRawJWT(tokenString)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "invalid JWT: %v", err)
		}

		ctx = context.WithValue(ctx, middleware.UserIDKey, claims.UserID)

		return handler(ctx, req)
	}
}
