// Package main is the entry point of SnakeKeeper.
// It runs the scheduled account tasks and the optional admin HTTP server
// inside a Kratos application, or a single pass with -once.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"SnakeKeeper/internal/conf"
	"SnakeKeeper/internal/server"
	zapLogger "SnakeKeeper/pkg/log"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = "SnakeKeeper"
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string
	// flagonce runs one group and exits.
	flagonce string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/config.yaml", "config path, eg: -conf config.yaml")
	flag.StringVar(&flagonce, "once", "", "run one group (daily, monitor, all) and exit, eg: -once daily")
}

func newApp(logger log.Logger, hs *http.Server, cs *server.CronServer) *kratos.App {
	servers := []transport.Server{cs}
	if hs != nil {
		servers = append(servers, hs)
	}
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(servers...),
	)
}

func main() {
	flag.Parse()

	// Load configuration using Viper with environment variable and .env support
	bc, err := conf.NewBootstrap(flagconf)
	if err != nil {
		// Use fallback logger before Zap is initialized
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLog, err := zapLogger.NewZapLogger(bc.Log)
	if err != nil {
		log.Fatalf("failed to initialize zap logger: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()

	logger := log.With(zapLogger.NewKratosAdapter(zapLog),
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	zapLogger.NewLogHelper(logger).Startup("SnakeKeeper starting",
		"log.level", bc.Log.Level,
		"log.format", bc.Log.Format,
		"log.env", bc.Log.Env,
		"log.output_file", bc.Log.OutputFile,
		"marker.driver", bc.Marker.Driver,
		"admin.addr", bc.Admin.Addr,
		"once", flagonce,
	)

	if flagonce != "" {
		code := runOnce(bc, logger, flagonce)
		_ = zapLog.Sync()
		os.Exit(code)
	}

	app, cleanup, err := wireApp(bc.Game, bc.Store, bc.Marker, bc.Data, bc.Notify, bc.Tasks, bc.Schedule, bc.Admin, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}

// runOnce executes a single group and prints its report. The exit code is 1
// when the run failed or any account was aborted.
func runOnce(bc *conf.Bootstrap, logger log.Logger, group string) int {
	admin, cleanup, err := wireAdmin(bc.Game, bc.Store, bc.Marker, bc.Data, bc.Notify, bc.Tasks, logger)
	if err != nil {
		log.NewHelper(logger).Errorw("msg", "failed to initialize", "error", err)
		return 1
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := admin.RunGroup(ctx, group)
	if report != nil {
		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))
	}
	if err != nil {
		log.NewHelper(logger).Errorw("msg", "run failed", "group", group, "error", err)
		return 1
	}
	if report.Aborted > 0 {
		return 1
	}
	return 0
}
