package biz

import (
	"context"
	"io"
	"sync"
	"time"

	"SnakeKeeper/internal/data"
	"SnakeKeeper/internal/model"
	"SnakeKeeper/pkg/game"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/mock"
)

// MockTransport is a mock implementation of Transport for testing.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Send(ctx context.Context, env game.Envelope) (game.Response, error) {
	args := m.Called(ctx, env)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(game.Response), args.Error(1)
}

// MockAuthenticator is a mock implementation of Authenticator for testing.
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, acc *data.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

// MockMarkerRepo is a mock implementation of MarkerRepo for testing.
type MockMarkerRepo struct {
	mock.Mock
}

func (m *MockMarkerRepo) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockMarkerRepo) Create(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockMarkerRepo) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockMarkerRepo) List(ctx context.Context) ([]*model.Mark, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Mark), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier for testing.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, title, body string) error {
	args := m.Called(ctx, title, body)
	return args.Error(0)
}

// MockAccountRepo is a mock implementation of AccountRepo for testing.
type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) LoadAll(ctx context.Context) ([]*data.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*data.Account), args.Error(1)
}

func (m *MockAccountRepo) SaveAll(ctx context.Context, accounts []*data.Account) error {
	args := m.Called(ctx, accounts)
	return args.Error(0)
}

func (m *MockAccountRepo) UpdateSession(ctx context.Context, acc *data.Account, session data.Session) error {
	args := m.Called(ctx, acc, session)
	return args.Error(0)
}

func (m *MockAccountRepo) Common() map[string]interface{} {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(map[string]interface{})
}

// recordingAudit collects audit events.
type recordingAudit struct {
	mu     sync.Mutex
	events []model.AuditEventType
}

func (a *recordingAudit) Record(_ context.Context, event model.AuditEventType, _ string, _ map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *recordingAudit) Events() []model.AuditEventType {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.AuditEventType, len(a.events))
	copy(out, a.events)
	return out
}

// scriptedExecutor replays replies per message id and records the payloads it received.
type scriptedExecutor struct {
	mu       sync.Mutex
	replies  map[int][]game.Response
	errs     map[int]error
	calls    []int
	payloads map[int][]*game.Payload
}

func newScriptedExecutor() *scriptedExecutor {
	return &scriptedExecutor{
		replies:  map[int][]game.Response{},
		errs:     map[int]error{},
		payloads: map[int][]*game.Payload{},
	}
}

// reply queues replies for msgID. The last reply is repeated once the queue is drained.
func (e *scriptedExecutor) reply(msgID int, replies ...game.Response) *scriptedExecutor {
	e.replies[msgID] = append(e.replies[msgID], replies...)
	return e
}

func (e *scriptedExecutor) fail(msgID int, err error) *scriptedExecutor {
	e.errs[msgID] = err
	return e
}

func (e *scriptedExecutor) Execute(_ context.Context, msgID int, payload *game.Payload, _ *data.Account, _ ...ExecuteOption) (game.Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, msgID)
	e.payloads[msgID] = append(e.payloads[msgID], payload.Clone())
	if err, ok := e.errs[msgID]; ok {
		return nil, err
	}
	queue := e.replies[msgID]
	if len(queue) == 0 {
		return game.Response{"errorCode": 0}, nil
	}
	r := queue[0]
	if len(queue) > 1 {
		e.replies[msgID] = queue[1:]
	}
	return r, nil
}

func (e *scriptedExecutor) count(msgID int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, id := range e.calls {
		if id == msgID {
			n++
		}
	}
	return n
}

func (e *scriptedExecutor) lastPayload(msgID int) *game.Payload {
	e.mu.Lock()
	defer e.mu.Unlock()
	ps := e.payloads[msgID]
	if len(ps) == 0 {
		return nil
	}
	return ps[len(ps)-1]
}

func testLogger() log.Logger {
	return log.NewStdLogger(io.Discard)
}

// staticProfiles returns a ProfileSource without an account file.
func staticProfiles() *ProfileSource {
	return &ProfileSource{base: ClientProfile{
		PfID:             2,
		Version:          "8.9.7",
		BundleIdentifier: "com.example.snake",
		DeviceID:         "device-1",
	}}
}

// noSleep records requested waits without blocking.
type noSleep struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *noSleep) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return ctx.Err()
}
