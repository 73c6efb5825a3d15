// Package middleware provides the admin HTTP middleware for token checks and request logging.
package middleware

import (
	"context"
	"crypto/subtle"
	"strings"

	pkglog "SnakeKeeper/pkg/log"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// publicPaths skip the token check.
var publicPaths = map[string]struct{}{
	"/healthz": {},
}

// Auth 返回管理接口的 Bearer Token 校验中间件
// token 为空时不做校验（仅适合监听在 127.0.0.1）
//
// 日志输出示例:
//
//	🔒 rejected admin request: bad token (s3cr****oken) | {"type":"security","path":"/v1/marks"}
func Auth(token string, logger *pkglog.LogHelper) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if token == "" {
				return handler(ctx, req)
			}
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}
			ht, ok := tr.(http.Transporter)
			if !ok {
				return handler(ctx, req)
			}
			r := ht.Request()
			if _, public := publicPaths[r.URL.Path]; public {
				return handler(ctx, req)
			}

			// 支持 "Bearer {token}" 和 X-Admin-Token 两种写法
			presented := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			if presented == "" {
				presented = r.Header.Get("X-Admin-Token")
			}
			if presented == "" {
				logger.Security("rejected admin request: missing token", "path", r.URL.Path)
				return nil, errors.Unauthorized("UNAUTHORIZED", "missing admin token")
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logger.Security("rejected admin request: bad token ("+pkglog.SanitizeField("token", presented)+")", "path", r.URL.Path)
				return nil, errors.Unauthorized("UNAUTHORIZED", "invalid admin token")
			}
			return handler(ctx, req)
		}
	}
}
