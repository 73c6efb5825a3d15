// Package service exposes the operator actions served by the admin HTTP server.
package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"SnakeKeeper/internal/biz"
	"SnakeKeeper/internal/model"
	pkglog "SnakeKeeper/pkg/log"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewAdminService)

// ListMarksReply is the body of GET /v1/marks.
type ListMarksReply struct {
	Marks []*model.Mark `json:"marks"`
	Total int           `json:"total"`
}

// ClearMarkReply is the body of DELETE /v1/marks/{role_id}.
type ClearMarkReply struct {
	RoleID  string `json:"role_id"`
	Cleared bool   `json:"cleared"`
}

// TriggerRunReply is the body of POST /v1/runs/{group}.
type TriggerRunReply struct {
	Group    string `json:"group"`
	Accepted bool   `json:"accepted"`
}

// ListRunsReply is the body of GET /v1/runs.
type ListRunsReply struct {
	Groups []string         `json:"groups"`
	Last   []*biz.RunReport `json:"last"`
}

// AdminService implements the operator surface: inspect and clear circuit-breaker
// marks, trigger runs and read their reports.
type AdminService struct {
	markers biz.MarkerRepo
	runner  *biz.Runner
	audit   biz.AuditLogger
	logger  *pkglog.LogHelper

	wg   sync.WaitGroup
	mu   sync.Mutex
	last map[string]*biz.RunReport // group -> 最近一次完成的报告
}

// NewAdminService creates a new AdminService.
func NewAdminService(markers biz.MarkerRepo, runner *biz.Runner, audit biz.AuditLogger, logger log.Logger) *AdminService {
	return &AdminService{
		markers: markers,
		runner:  runner,
		audit:   audit,
		logger:  pkglog.NewLogHelper(logger),
		last:    make(map[string]*biz.RunReport),
	}
}

// ListMarks returns every circuit-breaker mark, oldest first.
func (s *AdminService) ListMarks(ctx context.Context) (*ListMarksReply, error) {
	marks, err := s.markers.List(ctx)
	if err != nil {
		s.logger.Errorw("msg", "failed to list marks", "error", err)
		return nil, errors.InternalServer("MARKER_UNAVAILABLE", err.Error())
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].CreatedAt.Before(marks[j].CreatedAt) })
	return &ListMarksReply{Marks: marks, Total: len(marks)}, nil
}

// ClearMark deletes the mark of roleID so the account may re-authenticate again.
func (s *AdminService) ClearMark(ctx context.Context, roleID string) (*ClearMarkReply, error) {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return nil, errors.BadRequest("INVALID_ROLE_ID", "role_id is required")
	}

	exists, err := s.markers.Exists(ctx, roleID)
	if err != nil {
		return nil, errors.InternalServer("MARKER_UNAVAILABLE", err.Error())
	}
	if !exists {
		return nil, errors.NotFound("MARK_NOT_FOUND", "no mark for role "+roleID)
	}
	if err := s.markers.Delete(ctx, roleID); err != nil {
		s.logger.Errorw("msg", "failed to clear mark", "role_id", roleID, "error", err)
		return nil, errors.InternalServer("MARKER_UNAVAILABLE", err.Error())
	}

	s.audit.Record(ctx, model.AuditEventMarkCleared, roleID, map[string]interface{}{"source": "admin"})
	s.logger.Marker("mark cleared by operator", "role_id", roleID)
	return &ClearMarkReply{RoleID: roleID, Cleared: true}, nil
}

// TriggerRun starts group in the background and returns immediately. The
// run outlives the request, so it does not inherit ctx.
func (s *AdminService) TriggerRun(_ context.Context, group string) (*TriggerRunReply, error) {
	if !s.runner.HasGroup(group) {
		return nil, errors.BadRequest("UNKNOWN_GROUP", "unknown group "+group+", expected one of "+strings.Join(s.runner.Groups(), ", "))
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Scheduler("manual run triggered", "group", group)
		report, err := s.runner.Run(context.Background(), group)
		if err != nil {
			s.logger.Errorw("msg", "manual run failed", "group", group, "error", err)
		}
		if report != nil {
			s.saveReport(report)
		}
	}()
	return &TriggerRunReply{Group: group, Accepted: true}, nil
}

// RunGroup runs group synchronously. Used by the scheduler and the one-shot mode.
func (s *AdminService) RunGroup(ctx context.Context, group string) (*biz.RunReport, error) {
	report, err := s.runner.Run(ctx, group)
	if report != nil {
		s.saveReport(report)
	}
	return report, err
}

// ListRuns returns the registered groups and the last report of each.
func (s *AdminService) ListRuns(_ context.Context) (*ListRunsReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply := &ListRunsReply{Groups: s.runner.Groups(), Last: make([]*biz.RunReport, 0, len(s.last))}
	for _, g := range reply.Groups {
		if r, ok := s.last[g]; ok {
			reply.Last = append(reply.Last, r)
		}
	}
	return reply, nil
}

// Wait blocks until background runs finish or timeout elapses.
func (s *AdminService) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *AdminService) saveReport(r *biz.RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[r.Group] = r
}
