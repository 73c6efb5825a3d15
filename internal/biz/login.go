package biz

import (
	"context"
	"fmt"

	"SnakeKeeper/internal/data"
	"SnakeKeeper/pkg/game"
	pkglog "SnakeKeeper/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

// LoginClient exchanges identity credentials for a new session (msg 30001).
// It has no retry logic of its own.
type LoginClient struct {
	transport Transport
	accounts  AccountRepo
	profiles  *ProfileSource
	logger    *pkglog.LogHelper
}

// NewLoginClient creates a new LoginClient.
func NewLoginClient(transport Transport, accounts AccountRepo, profiles *ProfileSource, logger log.Logger) *LoginClient {
	return &LoginClient{
		transport: transport,
		accounts:  accounts,
		profiles:  profiles,
		logger:    pkglog.NewLogHelper(logger),
	}
}

// Login refreshes the session credentials of acc in place and persists the
// account store. A nil error means the backend accepted the login.
//
// Identity credentials are not validated locally; the backend decides.
func (c *LoginClient) Login(ctx context.Context, acc *data.Account) error {
	c.logger.Auth("refreshing session", "note", acc.Label())

	p := c.profiles.Current()
	payload := game.NewPayload().
		Set("openID", acc.OpenID).
		Set("openKey", acc.OpenKey).
		Set("pfID", p.PfID).
		Set("version", p.Version).
		Set("lastLoginTimeStamp", acc.LastLoginTimeStamp).
		Set("sign", acc.Sign).
		Set("bundleIdentifier", p.BundleIdentifier).
		Set("deviceID", p.DeviceID).
		Set("idfv", "")

	resp, err := c.transport.Send(ctx, game.NewEnvelope(game.MsgLogin, payload))
	if err != nil {
		c.logger.Warnw("msg", "login request failed", "note", acc.Label(), "error", err)
		return fmt.Errorf("login %s: %w", acc.Label(), err)
	}

	code, ok := resp.Code(game.FieldErrorCode)
	if !ok || code != game.CodeSuccess {
		reason := resp.String("errorMsg")
		if reason == "" {
			reason = "unknown error"
		}
		c.logger.Warnw("msg", "login rejected", "note", acc.Label(), "code", code, "reason", reason)
		return fmt.Errorf("%w: %s: code %d: %s", ErrLoginRejected, acc.Label(), code, reason)
	}

	session := data.Session{
		AuthKey:     resp.String("authKey"),
		RoleID:      resp.String("roleID"),
		AccountName: resp.String("accountName"),
	}
	if session.AuthKey == "" {
		c.logger.Warnw("msg", "login reply carries no authKey", "note", acc.Label())
		return fmt.Errorf("%w: %s: reply carries no authKey", ErrLoginRejected, acc.Label())
	}

	if err := c.accounts.UpdateSession(ctx, acc, session); err != nil {
		// 持久化失败不影响本次登录，下次进程启动时会多一次重新登录
		c.logger.Errorw("msg", "failed to persist refreshed session",
			"note", acc.Label(),
			"role_id", session.RoleID,
			"error", err)
		session.Apply(acc)
	}

	c.logger.Success("login succeeded",
		"note", acc.Label(),
		"account_name", session.AccountName,
		"role_id", session.RoleID)
	return nil
}
