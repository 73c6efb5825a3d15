package biz

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"SnakeKeeper/internal/conf"
	"SnakeKeeper/internal/data"
	pkglog "SnakeKeeper/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

// Task groups accepted by Runner.Run.
const (
	GroupDaily   = "daily"
	GroupMonitor = "monitor"
	GroupAll     = "all"
)

// AccountTask is one scripted action executed for every account.
type AccountTask interface {
	Name() string
	Run(ctx context.Context, acc *data.Account) error
}

type taskFunc struct {
	name string
	fn   func(ctx context.Context, acc *data.Account) error
}

func (t taskFunc) Name() string { return t.name }

func (t taskFunc) Run(ctx context.Context, acc *data.Account) error { return t.fn(ctx, acc) }

// RunReport summarizes one run.
type RunReport struct {
	RunID      string        `json:"run_id"`
	Group      string        `json:"group"`
	Accounts   int           `json:"accounts"`
	Succeeded  int           `json:"succeeded"`
	Aborted    int           `json:"aborted"`     // 因认证致命错误中止的账号
	TaskErrors int           `json:"task_errors"` // 非致命错误，已记录并跳过
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Runner processes every stored account sequentially. It is the only place
// where *FatalAuthError is caught: the failing account stops, the others go on.
type Runner struct {
	accounts AccountRepo
	groups   map[string][]AccountTask
	interval time.Duration
	sleep    func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex // 整个 run 串行，定时任务与手动触发不会交叠
	logger *pkglog.LogHelper
}

// NewRunner creates a Runner with the daily, monitor and all groups.
func NewRunner(accounts AccountRepo, daily *DailyTasks, monitor *FriendMonitor, c *conf.Tasks, logger log.Logger) *Runner {
	dailyTasks := daily.Tasks()
	all := make([]AccountTask, 0, len(dailyTasks)+1)
	all = append(all, dailyTasks...)
	all = append(all, monitor)

	r := &Runner{
		accounts: accounts,
		groups: map[string][]AccountTask{
			GroupDaily:   dailyTasks,
			GroupMonitor: {monitor},
			GroupAll:     all,
		},
		sleep:  sleepContext,
		logger: pkglog.NewLogHelper(logger),
	}
	if c != nil {
		r.interval = c.ActionInterval
	}
	return r
}

// Groups returns the registered group names.
func (r *Runner) Groups() []string {
	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasGroup reports whether group is registered.
func (r *Runner) HasGroup(group string) bool {
	_, ok := r.groups[group]
	return ok
}

// Run executes every task of group for every account, one account at a time.
// Only loading the accounts or cancellation of ctx fails the run itself.
func (r *Runner) Run(ctx context.Context, group string) (*RunReport, error) {
	tasks, ok := r.groups[group]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, group)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ctx = pkglog.WithRunContext(ctx, group)
	rc := pkglog.GetRunContext(ctx)

	accounts, err := r.accounts.LoadAll(ctx)
	if err != nil {
		r.logger.Errorw("msg", "failed to load accounts", "run_id", rc.RunID, "error", err)
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	report := &RunReport{
		RunID:     rc.RunID,
		Group:     group,
		Accounts:  len(accounts),
		StartedAt: rc.StartTime,
	}
	r.logger.RunStarted(ctx, len(accounts))

	for i, acc := range accounts {
		if i > 0 {
			if err := r.sleep(ctx, r.interval); err != nil {
				break
			}
		}
		actx := pkglog.WithAccount(ctx, acc.RoleID, acc.Label())
		r.logger.WithContext(actx, log.LevelInfo, "account", fmt.Sprintf(">>> processing account %s", acc.Label()))

		if r.runAccount(actx, acc, tasks, report) {
			report.Aborted++
		} else {
			report.Succeeded++
		}
	}

	report.Duration = time.Since(rc.StartTime)
	r.logger.RunFinished(ctx, report.Succeeded, report.Aborted)
	return report, ctx.Err()
}

// runAccount reports whether the account was aborted by a fatal auth error.
func (r *Runner) runAccount(ctx context.Context, acc *data.Account, tasks []AccountTask, report *RunReport) bool {
	for i, task := range tasks {
		if i > 0 {
			if err := r.sleep(ctx, r.interval); err != nil {
				return false
			}
		}

		err := r.runTask(ctx, task, acc)
		switch {
		case err == nil:
		case IsFatalAuth(err):
			r.logger.WithContext(ctx, log.LevelWarn, "security",
				"fatal auth error, skipping remaining tasks of this account",
				"task_name", task.Name(),
				"error", err)
			return true
		default:
			report.TaskErrors++
			r.logger.WithContext(ctx, log.LevelError, "task", "task failed",
				"task_name", task.Name(),
				"error", err)
		}
	}
	return false
}

func (r *Runner) runTask(ctx context.Context, task AccountTask, acc *data.Account) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task %s panicked: %v", task.Name(), rec)
		}
	}()
	return task.Run(ctx, acc)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
