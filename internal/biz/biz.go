// Package biz contains business logic layer implementations.
// This layer holds the authenticated request pipeline and the account tasks built on it.
package biz

import (
	"SnakeKeeper/internal/data"
	"SnakeKeeper/pkg/game"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewProfileSource,
	NewLoginClient,
	NewPipeline,
	NewDailyTasks,
	NewFriendMonitor,
	NewRunner,
	// Bind data layer implementations to biz layer interfaces
	wire.Bind(new(AccountRepo), new(*data.AccountStore)),
	wire.Bind(new(MarkerRepo), new(data.MarkerStore)),
	wire.Bind(new(Notifier), new(*data.MultiNotifier)),
	wire.Bind(new(AuditLogger), new(*data.AuditLoggerImpl)),
	wire.Bind(new(MonitorStateRepo), new(*data.MonitorStateStore)),
	wire.Bind(new(DailyRecordRepo), new(*data.DailyRecordStore)),
	wire.Bind(new(Transport), new(*game.HTTPTransport)),
	wire.Bind(new(Authenticator), new(*LoginClient)),
	wire.Bind(new(Executor), new(*Pipeline)),
)
