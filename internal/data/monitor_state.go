package data

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"SnakeKeeper/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// TargetState is the durable monitor state of one watched friend.
type TargetState struct {
	LastStatus    int64  `json:"last_status"`     // 0 离线, >0 在线
	LastUpdateStr string `json:"last_update_str"` // 上次检查时间
	DailyCount    int64  `json:"daily_count"`     // 今日自由战局数
	RecordDate    string `json:"record_date"`     // daily_count 所属日期
}

// MonitorStateStore keeps monitor_state_<id>.json files behind an LRU cache.
type MonitorStateStore struct {
	dir    string
	cache  *lru.Cache[int64, TargetState]
	mu     sync.Mutex
	logger *log.Helper
}

// NewMonitorStateStore creates the store in store.data_dir.
func NewMonitorStateStore(sc *conf.Store, tc *conf.Tasks, logger log.Logger) (*MonitorStateStore, error) {
	size := 128
	if tc != nil && tc.StateCacheSize > 0 {
		size = tc.StateCacheSize
	}
	cache, err := lru.New[int64, TargetState](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create state cache: %w", err)
	}
	return &MonitorStateStore{dir: dataDir(sc), cache: cache, logger: log.NewHelper(logger)}, nil
}

func (s *MonitorStateStore) path(targetID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("monitor_state_%d.json", targetID))
}

// Get returns the state of targetID. A missing file yields the zero state; an
// unreadable one is logged and also yields the zero state.
func (s *MonitorStateStore) Get(_ context.Context, targetID int64) (TargetState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.cache.Get(targetID); ok {
		return st, nil
	}

	var st TargetState
	raw, err := os.ReadFile(s.path(targetID))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return TargetState{}, fmt.Errorf("failed to read monitor state: %w", err)
	default:
		if err := json.Unmarshal(raw, &st); err != nil {
			s.logger.Warnw("msg", "corrupt monitor state, starting over", "target_id", targetID, "error", err)
			st = TargetState{}
		}
	}

	s.cache.Add(targetID, st)
	return st, nil
}

// Save writes the state file and refreshes the cache.
func (s *MonitorStateStore) Save(_ context.Context, targetID int64, st TargetState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(st, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode monitor state: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	if err := writeFileAtomic(s.path(targetID), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write monitor state: %w", err)
	}
	s.cache.Add(targetID, st)
	return nil
}

// DailyRecord is one row of monitor_daily_records_<id>.csv.
type DailyRecord struct {
	Date                 string
	Time                 string
	BestOverall          int64
	KillCount            int64
	Grade                int64
	DailyFreeBattleCount int64
}

var dailyRecordHeader = []string{"Date", "Time", "BestOverall", "KillCount", "Grade", "DailyFreeBattleCount"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DailyRecordStore keeps one CSV per target with at most one row per date.
type DailyRecordStore struct {
	dir string
	mu  sync.Mutex
}

// NewDailyRecordStore creates the store in store.data_dir.
func NewDailyRecordStore(sc *conf.Store) *DailyRecordStore {
	return &DailyRecordStore{dir: dataDir(sc)}
}

func (s *DailyRecordStore) path(targetID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("monitor_daily_records_%d.csv", targetID))
}

// Upsert replaces the row with the same date or appends rec. It reports
// whether an existing row was replaced.
func (s *DailyRecordStore) Upsert(_ context.Context, targetID int64, rec DailyRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.read(targetID)
	if err != nil {
		return false, err
	}

	row := []string{
		rec.Date,
		rec.Time,
		strconv.FormatInt(rec.BestOverall, 10),
		strconv.FormatInt(rec.KillCount, 10),
		strconv.FormatInt(rec.Grade, 10),
		strconv.FormatInt(rec.DailyFreeBattleCount, 10),
	}

	replaced := false
	for i, existing := range rows {
		if len(existing) > 0 && existing[0] == rec.Date {
			rows[i] = row
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, row)
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(dailyRecordHeader); err != nil {
		return false, err
	}
	if err := w.WriteAll(rows); err != nil {
		return false, fmt.Errorf("failed to encode daily records: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create record dir: %w", err)
	}
	if err := writeFileAtomic(s.path(targetID), buf.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf("failed to write daily records: %w", err)
	}
	return replaced, nil
}

// Records returns the data rows of targetID in file order.
func (s *DailyRecordStore) Records(_ context.Context, targetID int64) ([]DailyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.read(targetID)
	if err != nil {
		return nil, err
	}
	out := make([]DailyRecord, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(dailyRecordHeader) {
			continue
		}
		rec := DailyRecord{Date: row[0], Time: row[1]}
		rec.BestOverall, _ = strconv.ParseInt(row[2], 10, 64)
		rec.KillCount, _ = strconv.ParseInt(row[3], 10, 64)
		rec.Grade, _ = strconv.ParseInt(row[4], 10, 64)
		rec.DailyFreeBattleCount, _ = strconv.ParseInt(row[5], 10, 64)
		out = append(out, rec)
	}
	return out, nil
}

// read returns the data rows without the header.
func (s *DailyRecordStore) read(targetID int64) ([][]string, error) {
	raw, err := os.ReadFile(s.path(targetID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read daily records: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, utf8BOM)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse daily records: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 && rows[0][0] == dailyRecordHeader[0] {
		rows = rows[1:]
	}
	return rows, nil
}

func dataDir(sc *conf.Store) string {
	if sc == nil || sc.DataDir == "" {
		return "."
	}
	return sc.DataDir
}
