package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SnakeKeeper/internal/conf"
	"SnakeKeeper/internal/data"
	"SnakeKeeper/internal/model"
	"SnakeKeeper/pkg/game"
	pkglog "SnakeKeeper/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

// ExecuteOption configures one Execute call.
type ExecuteOption func(*executeOptions)

type executeOptions struct {
	allowReauth bool
}

// WithoutReauth disables the automatic re-login on session expiry. A -73
// reply is then returned to the caller untouched.
func WithoutReauth() ExecuteOption {
	return func(o *executeOptions) {
		o.allowReauth = false
	}
}

// Pipeline sends authenticated game requests. On session expiry (-73) it
// logs in again at most once per call and retries the request once; when
// that is impossible the account is marked and a *FatalAuthError returned.
//
// Calls for the same account must be serialized by the caller.
type Pipeline struct {
	transport   Transport
	login       Authenticator
	markers     MarkerRepo
	notifier    Notifier
	audit       AuditLogger
	endpoints   game.Endpoints
	titlePrefix string
	now         func() time.Time
	logger      *pkglog.LogHelper
}

// NewPipeline creates a new Pipeline.
func NewPipeline(
	transport Transport,
	login Authenticator,
	markers MarkerRepo,
	notifier Notifier,
	audit AuditLogger,
	c *conf.Notify,
	logger log.Logger,
) *Pipeline {
	prefix := ""
	if c != nil {
		prefix = c.TitlePrefix
	}
	return &Pipeline{
		transport:   transport,
		login:       login,
		markers:     markers,
		notifier:    notifier,
		audit:       audit,
		endpoints:   game.DefaultEndpoints(),
		titlePrefix: prefix,
		now:         time.Now,
		logger:      pkglog.NewLogHelper(logger),
	}
}

// Execute sends msgID with payload on behalf of acc.
//
// The payload must already carry the current authKey of acc; only that key
// is rewritten before the retry. Errors:
//   - wrapping game.ErrNoReply: no usable reply, never fatal, never retried.
//   - *FatalAuthError: abort the remaining work of this account.
//
// Business error codes other than -73 are returned with a nil error.
func (p *Pipeline) Execute(ctx context.Context, msgID int, payload *game.Payload, acc *data.Account, opts ...ExecuteOption) (game.Response, error) {
	o := executeOptions{allowReauth: true}
	for _, opt := range opts {
		opt(&o)
	}
	if payload == nil {
		payload = game.NewPayload()
	}
	field := p.endpoints.CodeField(msgID)

	// 最多两次发送：原请求 + 重新登录后的一次重试
	for {
		resp, err := p.transport.Send(ctx, game.NewEnvelope(msgID, payload))
		if err != nil {
			if !errors.Is(err, game.ErrNoReply) {
				err = fmt.Errorf("%w: %v", game.ErrNoReply, err)
			}
			p.logger.Warnw("msg", "request produced no usable reply",
				"msg_id", msgID,
				"note", acc.Label(),
				"error", err)
			return nil, err
		}

		code, ok := resp.Code(field)
		if ok && code == game.CodeSessionExpired && o.allowReauth {
			o.allowReauth = false
			if err := p.reauthenticate(ctx, msgID, acc); err != nil {
				return nil, err
			}
			payload.Set("authKey", acc.AuthKey)
			continue
		}

		if ok && code == game.CodeSuccess {
			p.clearMark(ctx, msgID, acc)
		}
		return resp, nil
	}
}

// reauthenticate handles a -73 reply. A nil error means acc now holds a fresh session.
func (p *Pipeline) reauthenticate(ctx context.Context, msgID int, acc *data.Account) error {
	key := acc.Key()

	marked, err := p.markers.Exists(ctx, key)
	if err != nil {
		// 读不到标记时按未标记处理：多一次登录尝试，好过跳过恢复
		p.logger.Errorw("msg", "failed to check auth failure mark, treating as absent",
			"role_id", key,
			"error", err)
		marked = false
	}
	if marked {
		p.logger.Security("account is marked as auth failed, skipping login",
			"note", acc.Label(),
			"role_id", key,
			"msg_id", msgID)
		return &FatalAuthError{
			RoleID: key,
			Note:   acc.Label(),
			Reason: "authentication failed earlier, update the account credentials manually",
			Marked: true,
		}
	}

	p.notifyExpired(ctx, model.SessionExpiredEvent{
		RoleID:    key,
		Note:      acc.Label(),
		MsgID:     msgID,
		ExpiredAt: p.now(),
	})

	loginErr := p.login.Login(ctx, acc)
	if loginErr == nil {
		p.audit.Record(ctx, model.AuditEventReauthSucceeded, acc.Key(), map[string]interface{}{
			"note":   acc.Label(),
			"msg_id": msgID,
		})
		return nil
	}

	created, err := p.markers.Create(ctx, key)
	if err != nil {
		p.logger.Errorw("msg", "failed to create auth failure mark",
			"role_id", key,
			"error", err)
	} else if created {
		p.logger.Marker("auth failure mark created", "role_id", key, "note", acc.Label())
	}

	// Exists 刚返回 false，写入失败时也视为首次失败
	newlyMarked := created || err != nil

	ev := model.AuthFatalEvent{
		RoleID:      key,
		Note:        acc.Label(),
		Reason:      fmt.Sprintf("automatic login failed: %v", loginErr),
		NewlyMarked: newlyMarked,
		FailedAt:    p.now(),
	}
	p.notifyFatal(ctx, ev)

	return &FatalAuthError{RoleID: key, Note: ev.Note, Reason: ev.Reason}
}

// clearMark removes the mark of acc after a success reply.
func (p *Pipeline) clearMark(ctx context.Context, msgID int, acc *data.Account) {
	key := acc.Key()

	marked, err := p.markers.Exists(ctx, key)
	if err != nil {
		p.logger.Warnw("msg", "failed to check auth failure mark", "role_id", key, "error", err)
		return
	}
	if !marked {
		return
	}
	if err := p.markers.Delete(ctx, key); err != nil {
		p.logger.Errorw("msg", "failed to delete auth failure mark", "role_id", key, "error", err)
		return
	}

	p.logger.Marker("auth failure mark cleared", "role_id", key, "note", acc.Label())
	p.notifyRecovered(ctx, model.AuthRecoveredEvent{
		RoleID:      key,
		Note:        acc.Label(),
		MsgID:       msgID,
		RecoveredAt: p.now(),
	})
}

func (p *Pipeline) notifyExpired(ctx context.Context, ev model.SessionExpiredEvent) {
	p.logger.Security("session expired, trying to log in again",
		"note", ev.Note,
		"role_id", ev.RoleID,
		"msg_id", ev.MsgID)
	p.audit.Record(ctx, model.AuditEventSessionExpired, ev.RoleID, map[string]interface{}{
		"note":   ev.Note,
		"msg_id": ev.MsgID,
	})
	p.notify(ctx,
		p.title("account session expired"),
		fmt.Sprintf("Account [%s] session expired (-73), trying to log in again...", ev.Note))
}

func (p *Pipeline) notifyFatal(ctx context.Context, ev model.AuthFatalEvent) {
	p.logger.Errorw("msg", "automatic login failed, account stopped for this run",
		"note", ev.Note,
		"role_id", ev.RoleID,
		"newly_marked", ev.NewlyMarked,
		"reason", ev.Reason)
	p.audit.Record(ctx, model.AuditEventAuthFatal, ev.RoleID, map[string]interface{}{
		"note":         ev.Note,
		"reason":       ev.Reason,
		"newly_marked": ev.NewlyMarked,
	})
	if !ev.NewlyMarked {
		return
	}
	p.notify(ctx,
		p.title("account authentication failed"),
		fmt.Sprintf("Account [%s] could not log in automatically, authKey was not refreshed.\n"+
			"Reason: %s\n"+
			"Possible causes: openKey expired or network problems.\n"+
			"The remaining tasks of this account are stopped and further alerts are muted until it recovers. "+
			"Capture and update the account credentials as soon as possible.",
			ev.Note, ev.Reason))
}

func (p *Pipeline) notifyRecovered(ctx context.Context, ev model.AuthRecoveredEvent) {
	p.audit.Record(ctx, model.AuditEventAuthRecovered, ev.RoleID, map[string]interface{}{
		"note":   ev.Note,
		"msg_id": ev.MsgID,
	})
	p.notify(ctx,
		p.title(fmt.Sprintf("account [%s] authentication recovered", ev.Note)),
		fmt.Sprintf("Account [%s] request succeeded, the auth failure mark was cleared.", ev.Note))
}

// notify is best effort: errors are logged and swallowed.
func (p *Pipeline) notify(ctx context.Context, title, body string) {
	if err := p.notifier.Notify(ctx, title, body); err != nil {
		p.logger.Warnw("msg", "failed to send notification", "title", title, "error", err)
		return
	}
	p.logger.Notify("notification sent", "title", title)
}

func (p *Pipeline) title(s string) string {
	return prefixTitle(p.titlePrefix, s)
}

func prefixTitle(prefix, s string) string {
	if prefix == "" {
		return s
	}
	return prefix + " - " + s
}
