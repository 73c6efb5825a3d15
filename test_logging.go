//go:build ignore
// +build ignore

// 手动查看 console 格式下各日志类型的效果: go run test_logging.go
package main

import (
	"context"

	"SnakeKeeper/internal/conf"
	pkglog "SnakeKeeper/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

func main() {
	logConf := &conf.Log{
		Level:  "debug",
		Format: "console", // 使用 console 格式以启用 Emoji Encoder
		Env:    "development",
	}

	zapLogger, err := pkglog.NewZapLogger(logConf)
	if err != nil {
		panic(err)
	}
	defer func() { _ = zapLogger.Sync() }()

	helper := pkglog.NewLogHelper(pkglog.NewKratosAdapter(zapLogger))

	println("=== 日志输出格式 ===\n")

	helper.Startup("SnakeKeeper starting", "version", "dev", "marker.driver", "file")
	helper.Scheduler("schedule registered", "group", "daily", "spec", "0 30 8 * * *")

	ctx := pkglog.WithRunContext(context.Background(), "daily")
	helper.RunStarted(ctx, 2)
	actx := pkglog.WithAccount(ctx, "10001", "main")
	helper.WithContext(actx, log.LevelInfo, "account", ">>> processing account main")
	helper.Auth("session expired, logging in again", "role_id", "10001", "authKey", "0123456789abcdef")
	helper.Marker("circuit-breaker mark created", "role_id", "10001")
	helper.Security("authentication failed, account disabled until the mark is cleared", "role_id", "10001")
	helper.Notify("notification sent", "title", "SnakeKeeper - account authentication failed")
	helper.Task("signed in", "day", 3)
	helper.Monitor("target checked", "target", "Viper", "online", true, "daily_count", 2)
	helper.Audit("audit event recorded", "action_type", "AUTH_FATAL")
	helper.Database("daily record saved", "date", "2026-03-01")
	helper.Request("DELETE", "/v1/marks/10001", 200, 3, "ip", "127.0.0.1")
	helper.Success("scheduled run finished", "group", "daily")
	helper.RunFinished(ctx, 1, 1)

	println("\n=== 日志输出完成 ===")
}
