package middleware

import (
	"context"

	cn "github.com/veridian/lib-license-go/constant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor creates a gRPC unary server interceptor that gates
// requests on the license. It works like the HTTP middleware but adapted for
// gRPC: per-call it only reads the guard snapshot.
func (c *LicenseClient) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	// Perform startup validation
	c.startupValidation()

	// Return the interceptor function
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if c == nil || c.validator == nil {
			return handler(ctx, req)
		}

		if !c.licensed() {
			c.validator.GetLogger().Errorf("License invalid (code %s)", cn.ErrCodeLicenseInvalid)
			return nil, status.Error(codes.PermissionDenied, cn.ErrCodeLicenseInvalid)
		}

		return handler(ctx, req)
	}
}

// StreamServerInterceptor creates a gRPC stream server interceptor that gates
// streams on the license.
func (c *LicenseClient) StreamServerInterceptor() grpc.StreamServerInterceptor {
	// Perform startup validation
	c.startupValidation()

	// Return the interceptor function
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if c == nil || c.validator == nil {
			return handler(srv, ss)
		}

		if !c.licensed() {
			c.validator.GetLogger().Errorf("License invalid (code %s)", cn.ErrCodeLicenseInvalid)
			return status.Error(codes.PermissionDenied, cn.ErrCodeLicenseInvalid)
		}

		return handler(srv, ss)
	}
}
