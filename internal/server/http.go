package server

import (
	"context"

	"SnakeKeeper/internal/conf"
	"SnakeKeeper/internal/server/middleware"
	"SnakeKeeper/internal/service"
	pkglog "SnakeKeeper/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// Admin operations, used as kratos operation names.
const (
	OperationHealth     = "/snakekeeper.admin.v1/Health"
	OperationListMarks  = "/snakekeeper.admin.v1/ListMarks"
	OperationClearMark  = "/snakekeeper.admin.v1/ClearMark"
	OperationListRuns   = "/snakekeeper.admin.v1/ListRuns"
	OperationTriggerRun = "/snakekeeper.admin.v1/TriggerRun"
)

// NewHTTPServer new the admin HTTP server. It returns nil when admin.addr is
// empty; newApp skips nil servers.
func NewHTTPServer(c *conf.Admin, admin *service.AdminService, logger log.Logger) *http.Server {
	if c == nil || c.Addr == "" {
		return nil
	}
	logHelper := pkglog.NewLogHelper(logger)

	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			middleware.Auth(c.Token, logHelper),
			middleware.Logging(logHelper),
		),
		http.Address(c.Addr),
	}
	if c.Network != "" {
		opts = append(opts, http.Network(c.Network))
	}
	if c.Timeout > 0 {
		opts = append(opts, http.Timeout(c.Timeout))
	}
	srv := http.NewServer(opts...)
	RegisterAdminHTTPServer(srv, admin)
	return srv
}

// RegisterAdminHTTPServer mounts the admin routes on srv.
func RegisterAdminHTTPServer(s *http.Server, admin *service.AdminService) {
	r := s.Route("/")
	r.GET("/healthz", handle(OperationHealth, func(context.Context, http.Context) (interface{}, error) {
		return map[string]string{"status": "ok"}, nil
	}))
	r.GET("/v1/marks", handle(OperationListMarks, func(ctx context.Context, _ http.Context) (interface{}, error) {
		return admin.ListMarks(ctx)
	}))
	r.DELETE("/v1/marks/{role_id}", handle(OperationClearMark, func(ctx context.Context, hc http.Context) (interface{}, error) {
		return admin.ClearMark(ctx, hc.Vars().Get("role_id"))
	}))
	r.GET("/v1/runs", handle(OperationListRuns, func(ctx context.Context, _ http.Context) (interface{}, error) {
		return admin.ListRuns(ctx)
	}))
	r.POST("/v1/runs/{group}", handle(OperationTriggerRun, func(ctx context.Context, hc http.Context) (interface{}, error) {
		return admin.TriggerRun(ctx, hc.Vars().Get("group"))
	}))
}

// handle runs fn through the server middleware chain, the same way generated
// kratos HTTP handlers do.
func handle(operation string, fn func(ctx context.Context, hc http.Context) (interface{}, error)) http.HandlerFunc {
	return func(hc http.Context) error {
		http.SetOperation(hc, operation)
		h := hc.Middleware(func(ctx context.Context, _ interface{}) (interface{}, error) {
			return fn(ctx, hc)
		})
		out, err := h(hc, nil)
		if err != nil {
			return err
		}
		return hc.Result(200, out)
	}
}
