package server

import (
	"context"
	"fmt"
	"time"

	"SnakeKeeper/internal/biz"
	"SnakeKeeper/internal/conf"
	"SnakeKeeper/internal/service"
	pkglog "SnakeKeeper/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// CronServer runs the scheduled groups. It implements kratos transport.Server
// so the app starts and stops it with the admin server.
type CronServer struct {
	cron   *cron.Cron
	admin  *service.AdminService
	logger *pkglog.LogHelper

	ctx    context.Context
	cancel context.CancelFunc
}

// NewCronServer registers one job per non-empty spec of c.
// Specs have a seconds field: 秒 分 时 日 月 周
func NewCronServer(c *conf.Schedule, admin *service.AdminService, logger log.Logger) (*CronServer, error) {
	helper := pkglog.NewLogHelper(logger)
	ctx, cancel := context.WithCancel(context.Background())
	s := &CronServer{
		admin:  admin,
		logger: helper,
		ctx:    ctx,
		cancel: cancel,
	}
	cl := cronLogger{helper}
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cl),
		// 上一次还没跑完（例如 gacha 等待中）就跳过本次
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if c == nil {
		return s, nil
	}
	jobs := []struct{ group, spec string }{
		{biz.GroupDaily, c.Daily},
		{biz.GroupMonitor, c.Monitor},
	}
	for _, job := range jobs {
		if job.spec == "" {
			helper.Scheduler("schedule disabled", "group", job.group)
			continue
		}
		group := job.group
		if _, err := s.cron.AddFunc(job.spec, func() { s.runGroup(group) }); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid schedule for %s %q: %w", group, job.spec, err)
		}
		helper.Scheduler("schedule registered", "group", group, "spec", job.spec)
	}
	return s, nil
}

func (s *CronServer) runGroup(group string) {
	report, err := s.admin.RunGroup(s.ctx, group)
	if err != nil {
		s.logger.Errorw("msg", "scheduled run failed", "group", group, "error", err)
		return
	}
	s.logger.Success("scheduled run finished",
		"group", group,
		"run_id", report.RunID,
		"succeeded", report.Succeeded,
		"aborted", report.Aborted,
		"task_errors", report.TaskErrors)
}

// Jobs returns the number of registered jobs.
func (s *CronServer) Jobs() int {
	return len(s.cron.Entries())
}

// Start implements transport.Server.
func (s *CronServer) Start(context.Context) error {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Scheduler("next scheduled run", "entry", int(e.ID), "next", e.Next.Format(time.RFC3339))
	}
	return nil
}

// Stop implements transport.Server. Running jobs are cancelled and awaited
// until ctx expires.
func (s *CronServer) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Scheduler("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts LogHelper to cron.Logger.
type cronLogger struct {
	h *pkglog.LogHelper
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.h.Debugw(append([]interface{}{"msg", "cron: " + msg}, keysAndValues...)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.h.Errorw(append([]interface{}{"msg", "cron: " + msg, "error", err}, keysAndValues...)...)
}
