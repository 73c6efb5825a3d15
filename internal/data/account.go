package data

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"SnakeKeeper/internal/conf"
	"SnakeKeeper/pkg/crypto"

	"github.com/go-kratos/kratos/v2/log"
)

// UnknownRoleID keys the marker of an account that never logged in.
const UnknownRoleID = "unknown_id"

// ErrAccountsFileNotFound is returned by LoadAll when the account file does not exist.
var ErrAccountsFileNotFound = errors.New("accounts file not found")

// Target is a friend watched by the monitor.
type Target struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts the id as a number or a numeric string.
func (t *Target) UnmarshalJSON(b []byte) error {
	var aux struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	id, err := flexString(aux.ID)
	if err != nil {
		return fmt.Errorf("target id: %w", err)
	}
	t.Name = aux.Name
	t.ID = 0
	if id != "" {
		if t.ID, err = strconv.ParseInt(id, 10, 64); err != nil {
			return fmt.Errorf("target id %q: %w", id, err)
		}
	}
	return nil
}

// Account is one game identity as stored in the account file.
// Identity credentials (OpenID, OpenKey, Sign, LastLoginTimeStamp) are inputs;
// session credentials (AuthKey, RoleID, AccountName) are overwritten on login.
type Account struct {
	Note               string                 `json:"note,omitempty"`
	OpenID             string                 `json:"openID"`
	OpenKey            string                 `json:"openKey"`
	Sign               string                 `json:"sign"`
	LastLoginTimeStamp int64                  `json:"lastLoginTimeStamp"`
	AuthKey            string                 `json:"authKey"`
	RoleID             string                 `json:"roleID"`
	AccountName        string                 `json:"accountName"`
	Targets            []Target               `json:"targets,omitempty"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

// UnmarshalJSON accepts roleID and lastLoginTimeStamp written either as numbers or strings.
func (a *Account) UnmarshalJSON(b []byte) error {
	type plain Account
	aux := struct {
		*plain
		RoleID             json.RawMessage `json:"roleID"`
		LastLoginTimeStamp json.RawMessage `json:"lastLoginTimeStamp"`
	}{plain: (*plain)(a)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	roleID, err := flexString(aux.RoleID)
	if err != nil {
		return fmt.Errorf("roleID: %w", err)
	}
	a.RoleID = roleID

	ts, err := flexString(aux.LastLoginTimeStamp)
	if err != nil {
		return fmt.Errorf("lastLoginTimeStamp: %w", err)
	}
	a.LastLoginTimeStamp = 0
	if ts != "" {
		f, err := strconv.ParseFloat(ts, 64)
		if err != nil {
			return fmt.Errorf("lastLoginTimeStamp %q: %w", ts, err)
		}
		a.LastLoginTimeStamp = int64(f)
	}
	return nil
}

// Key returns the stable key used for the circuit-breaker marker.
func (a *Account) Key() string {
	if a.RoleID == "" {
		return UnknownRoleID
	}
	return a.RoleID
}

// Label returns the display label used in logs and notifications.
func (a *Account) Label() string {
	if a.Note != "" {
		return a.Note
	}
	if a.RoleID != "" {
		return a.RoleID
	}
	return "unknown account"
}

// Session is the credential set returned by a successful login.
type Session struct {
	AuthKey     string
	RoleID      string
	AccountName string
}

// Apply overwrites the session credentials of acc.
func (s Session) Apply(acc *Account) {
	acc.AuthKey = s.AuthKey
	acc.RoleID = s.RoleID
	acc.AccountName = s.AccountName
}

type accountDocument struct {
	Common   map[string]interface{} `json:"common"`
	Accounts []*Account             `json:"accounts"`
}

// AccountStore is the JSON file holding the shared client parameters and all
// accounts. Every write rewrites the whole file through a temp file + rename.
type AccountStore struct {
	path   string
	sealer *crypto.Sealer

	mu       sync.Mutex
	common   map[string]interface{}
	accounts []*Account

	logger *log.Helper
}

// NewAccountStore creates the store. With an encryption key, openKey, sign and
// authKey are sealed on disk.
func NewAccountStore(c *conf.Store, logger log.Logger) (*AccountStore, error) {
	if c == nil || c.AccountsFile == "" {
		return nil, errors.New("store.accounts_file is required")
	}

	s := &AccountStore{
		path:   c.AccountsFile,
		common: map[string]interface{}{},
		logger: log.NewHelper(logger),
	}
	if c.EncryptionKey != "" {
		sealer, err := crypto.NewSealer([]byte(c.EncryptionKey))
		if err != nil {
			return nil, fmt.Errorf("invalid accounts encryption key: %w", err)
		}
		s.sealer = sealer
	}
	return s, nil
}

// Path returns the account file path.
func (s *AccountStore) Path() string {
	return s.path
}

// LoadAll reads the account file. The returned accounts are owned by the
// store: UpdateSession mutates them in place.
func (s *AccountStore) LoadAll(ctx context.Context) ([]*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAccountsFileNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to read accounts file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc accountDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse accounts file %s: %w", s.path, err)
	}

	accounts := make([]*Account, 0, len(doc.Accounts))
	for i, acc := range doc.Accounts {
		if acc == nil {
			continue
		}
		if err := s.open(acc); err != nil {
			return nil, fmt.Errorf("account #%d (%s): %w", i, acc.Label(), err)
		}
		accounts = append(accounts, acc)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.Common == nil {
		doc.Common = map[string]interface{}{}
	}
	s.common = doc.Common
	s.accounts = accounts
	return accounts, nil
}

// SaveAll replaces the stored accounts and rewrites the file. It blocks until
// the data is durable.
func (s *AccountStore) SaveAll(ctx context.Context, accounts []*Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = accounts
	return s.writeLocked()
}

// UpdateSession overwrites the session credentials of acc in place and
// rewrites the whole store. The in-memory update survives a failed write.
func (s *AccountStore) UpdateSession(ctx context.Context, acc *Account, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.Apply(acc)
	if !s.contains(acc) {
		s.accounts = append(s.accounts, acc)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.writeLocked()
}

// Common returns a copy of the shared client parameters of the file.
func (s *AccountStore) Common() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]interface{}, len(s.common))
	for k, v := range s.common {
		out[k] = v
	}
	return out
}

func (s *AccountStore) contains(acc *Account) bool {
	for _, a := range s.accounts {
		if a == acc {
			return true
		}
	}
	return false
}

func (s *AccountStore) writeLocked() error {
	doc := accountDocument{Common: s.common, Accounts: make([]*Account, 0, len(s.accounts))}
	for _, acc := range s.accounts {
		sealed, err := s.seal(acc)
		if err != nil {
			return fmt.Errorf("failed to seal account %s: %w", acc.Label(), err)
		}
		doc.Accounts = append(doc.Accounts, sealed)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}

	if err := writeFileAtomic(s.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write accounts file: %w", err)
	}
	s.logger.Debugw("msg", "accounts file saved", "path", s.path, "accounts", len(doc.Accounts))
	return nil
}

func (s *AccountStore) open(acc *Account) error {
	if s.sealer == nil {
		return nil
	}
	for _, field := range []*string{&acc.OpenKey, &acc.Sign, &acc.AuthKey} {
		plain, err := s.sealer.Open(*field)
		if err != nil {
			return err
		}
		*field = plain
	}
	return nil
}

func (s *AccountStore) seal(acc *Account) (*Account, error) {
	if s.sealer == nil {
		return acc, nil
	}
	c := *acc
	for _, field := range []*string{&c.OpenKey, &c.Sign, &c.AuthKey} {
		sealed, err := s.sealer.Seal(*field)
		if err != nil {
			return nil, err
		}
		*field = sealed
	}
	return &c, nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// flexString renders a JSON string or number as text; null and absent become "".
func flexString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
