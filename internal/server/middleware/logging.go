package middleware

import (
	"context"
	"strings"
	"time"

	pkglog "SnakeKeeper/pkg/log"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// Logging 返回一个记录管理请求日志的中间件
//
// 日志输出示例:
//
//	🔗 POST /v1/runs/daily - 200 (2ms) | {"request_id":"1b9d...","ip":"127.0.0.1"}
func Logging(logger *pkglog.LogHelper) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			startTime := time.Now()

			var method, path, ip, requestID string
			if tr, ok := transport.FromServerContext(ctx); ok {
				method = "RPC"
				path = tr.Operation()
				if ht, ok := tr.(http.Transporter); ok {
					r := ht.Request()
					method = r.Method
					path = r.URL.Path
					ip = extractClientIP(r)
					requestID = r.Header.Get("X-Request-ID")
				}
			}
			if requestID == "" {
				requestID = pkglog.NewRunID()
			}

			reply, err := handler(ctx, req)

			logger.Request(method, path, extractHTTPStatus(err), time.Since(startTime).Milliseconds(),
				"request_id", requestID,
				"ip", ip,
			)
			return reply, err
		}
	}
}

// extractClientIP 优先级: X-Real-IP > X-Forwarded-For > RemoteAddr
func extractClientIP(req *http.Request) string {
	if ip := req.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}
	return req.RemoteAddr
}

// extractHTTPStatus 从 Kratos 错误中提取 HTTP 状态码
func extractHTTPStatus(err error) int {
	if err == nil {
		return 200
	}
	return int(errors.FromError(err).Code)
}
