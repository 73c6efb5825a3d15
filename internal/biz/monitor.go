package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"SnakeKeeper/internal/conf"
	"SnakeKeeper/internal/data"
	"SnakeKeeper/pkg/game"
	pkglog "SnakeKeeper/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	followTypeFriends   = 3
	defaultPageSize     = 20
	offlineNotInList    = "offline (not in list)"
	gameModeNone        = -1
	stateTimeLayout     = "2006-01-02 15:04:05"
	stateDateLayout     = "2006-01-02"
	friendListSeparator = 35
)

// targetDetailKeys are the fields of msg 30002 kept for the report.
var targetDetailKeys = []string{
	"publicInfo", "gold", "diamonds", "killCount", "maxContinueKill", "championCount", "historyScore",
	"goldNum", "silverNum", "copperNum", "bestOverall", "bestOverallProbability", "todaySpaceVisitorNum",
	"teamplayWinningTimes", "teamplayWinningProbability", "teamplayBestTimes", "teamplayBestProbability",
}

// FriendMonitor watches the configured targets in the friend list, notifies
// on online/offline transitions and records one daily row per target.
type FriendMonitor struct {
	exec     Executor
	profiles *ProfileSource
	states   MonitorStateRepo
	records  DailyRecordRepo
	notifier Notifier

	titlePrefix    string
	freeBattleMode int64
	pageSize       int

	now    func() time.Time
	logger *pkglog.LogHelper
}

// NewFriendMonitor creates a new FriendMonitor.
func NewFriendMonitor(
	exec Executor,
	profiles *ProfileSource,
	states MonitorStateRepo,
	records DailyRecordRepo,
	notifier Notifier,
	tc *conf.Tasks,
	nc *conf.Notify,
	logger log.Logger,
) *FriendMonitor {
	m := &FriendMonitor{
		exec:     exec,
		profiles: profiles,
		states:   states,
		records:  records,
		notifier: notifier,
		pageSize: defaultPageSize,
		now:      time.Now,
		logger:   pkglog.NewLogHelper(logger),
	}
	if tc != nil {
		m.freeBattleMode = int64(tc.FreeBattleMode)
		if tc.FriendPageSize > 0 {
			m.pageSize = tc.FriendPageSize
		}
	}
	if nc != nil {
		m.titlePrefix = nc.TitlePrefix
	}
	return m
}

// Name implements AccountTask.
func (m *FriendMonitor) Name() string {
	return "friend_monitor"
}

// Run checks every target of acc. Only a fatal auth error aborts the
// account; problems with one target are logged and the next one is checked.
func (m *FriendMonitor) Run(ctx context.Context, acc *data.Account) error {
	if acc.AuthKey == "" || acc.RoleID == "" {
		m.logger.Warnw("msg", "account has no authKey or roleID, skipping monitor", "note", acc.Label())
		return nil
	}
	if len(acc.Targets) == 0 {
		m.logger.Monitor("no monitor targets configured", "note", acc.Label())
		return nil
	}

	list, err := m.friendList(ctx, acc)
	if err != nil {
		return err
	}
	if list == nil {
		m.logger.Monitor("friend list is empty, skipping", "note", acc.Label())
		return nil
	}

	for _, target := range acc.Targets {
		if target.ID == 0 {
			m.logger.Warnw("msg", "monitor target has no id, skipping", "note", acc.Label(), "target", target.Name)
			continue
		}
		if err := m.checkTarget(ctx, acc, target, list); err != nil {
			if IsFatalAuth(err) {
				return err
			}
			m.logger.Errorw("msg", "failed to check target",
				"note", acc.Label(),
				"target", target.Name,
				"error", err)
		}
	}
	return nil
}

// friendList fetches msg 30014. A nil list means "no data".
func (m *FriendMonitor) friendList(ctx context.Context, acc *data.Account) (*FriendList, error) {
	payload := BaseMessage(acc, m.profiles.Current()).Merge(
		"followType", followTypeFriends,
		"startID", 1,
		"endID", m.pageSize,
		"onlineFirst", true,
	)
	resp, err := m.exec.Execute(ctx, game.MsgFollowList, payload, acc)
	if err != nil {
		if IsFatalAuth(err) {
			return nil, err
		}
		m.logger.Warnw("msg", "friend list request failed", "note", acc.Label(), "error", err)
		return nil, nil
	}
	if err := expectSuccess(resp, game.MsgFollowList, game.FieldErrorCode); err != nil {
		m.logger.Warnw("msg", "friend list returned an error", "note", acc.Label(), "error", err)
		return nil, nil
	}
	return ParseFriendList(resp), nil
}

func (m *FriendMonitor) checkTarget(ctx context.Context, acc *data.Account, target data.Target, list *FriendList) error {
	statusCode, mode, desc := int64(0), int64(gameModeNone), offlineNotInList
	if idx := list.Find(target.ID, target.Name); idx >= 0 {
		f := list.Friends[idx]
		statusCode, mode, desc = f.Status, f.GameMode, f.StatusDesc
	} else {
		m.logger.Monitor("target not found in friend list", "note", acc.Label(), "target", target.Name)
	}

	st, err := m.states.Get(ctx, target.ID)
	if err != nil {
		return fmt.Errorf("load monitor state: %w", err)
	}

	now := m.now()
	today := now.Format(stateDateLayout)
	if st.RecordDate != today {
		st.RecordDate = today
		st.DailyCount = 0
		m.logger.Monitor("date changed, daily counter reset", "target", target.Name)
	}
	if mode == m.freeBattleMode {
		st.DailyCount++
		m.logger.Monitor("target is in a free battle", "target", target.Name, "daily_count", st.DailyCount)
	}

	online := statusCode > 0
	wasOnline := st.LastStatus > 0

	var (
		title  string
		detail game.Response
	)
	switch {
	case online && !wasOnline:
		title = fmt.Sprintf("[%s] is online, status: %s", target.Name, desc)
		if detail, err = m.viewTarget(ctx, acc, target.ID); err != nil {
			return err
		}
	case !online && wasOnline:
		title = fmt.Sprintf("[%s] went offline, last status: %s", target.Name, desc)
		if detail, err = m.viewTarget(ctx, acc, target.ID); err != nil {
			return err
		}
		m.saveDailyRecord(ctx, target, detail, st.DailyCount, now)
	}

	summary := fmt.Sprintf("Account: %s\nTarget: %s\nFree battles today: %d\n", acc.Label(), target.Name, st.DailyCount)
	if title != "" {
		body := summary + "\n" + FormatTargetDetail(detail) + "\n" +
			"\n" + strings.Repeat("-", 20) + "\nFriend list overview:\n" + list.Present()
		if err := m.notifier.Notify(ctx, prefixTitle(m.titlePrefix, title), body); err != nil {
			m.logger.Warnw("msg", "failed to send monitor notification", "target", target.Name, "error", err)
		}
	}

	st.LastStatus = statusCode
	st.LastUpdateStr = now.Format(stateTimeLayout)
	if err := m.states.Save(ctx, target.ID, st); err != nil {
		return fmt.Errorf("save monitor state: %w", err)
	}
	m.logger.Monitor("target checked",
		"target", target.Name,
		"online", online,
		"game_mode", mode,
		"daily_count", st.DailyCount)
	return nil
}

// viewTarget fetches msg 30002. Only a fatal auth error is returned; any other
// failure yields a nil detail.
func (m *FriendMonitor) viewTarget(ctx context.Context, acc *data.Account, targetID int64) (game.Response, error) {
	payload := BaseMessage(acc, m.profiles.Current()).Set("requestRoleID", targetID)
	resp, err := m.exec.Execute(ctx, game.MsgViewRole, payload, acc)
	if err != nil {
		if IsFatalAuth(err) {
			return nil, err
		}
		m.logger.Warnw("msg", "view target request failed", "target_id", targetID, "error", err)
		return nil, nil
	}
	if err := expectSuccess(resp, game.MsgViewRole, game.FieldErrorCode); err != nil {
		m.logger.Warnw("msg", "view target returned an error", "target_id", targetID, "error", err)
		return nil, nil
	}

	detail := make(game.Response, len(targetDetailKeys))
	for _, k := range targetDetailKeys {
		if v, ok := resp[k]; ok {
			detail[k] = v
		}
	}
	return detail, nil
}

func (m *FriendMonitor) saveDailyRecord(ctx context.Context, target data.Target, detail game.Response, dailyCount int64, now time.Time) {
	if len(detail) == 0 {
		return
	}
	rec := data.DailyRecord{
		Date:                 now.Format(stateDateLayout),
		Time:                 now.Format("15:04:05"),
		BestOverall:          detail.Int("bestOverall"),
		KillCount:            detail.Int("killCount"),
		Grade:                gradeOf(detail),
		DailyFreeBattleCount: dailyCount,
	}
	replaced, err := m.records.Upsert(ctx, target.ID, rec)
	if err != nil {
		m.logger.Errorw("msg", "failed to save daily record", "target", target.Name, "error", err)
		return
	}
	m.logger.Monitor("daily record saved", "target", target.Name, "date", rec.Date, "replaced", replaced)
}

// gradeOf reads the grade from publicInfos (list or object) or publicInfo.
func gradeOf(detail game.Response) int64 {
	switch v := detail["publicInfos"].(type) {
	case []interface{}:
		if len(v) > 0 {
			if first, ok := v[0].(map[string]interface{}); ok {
				return game.Response(first).Int("grade")
			}
		}
		return 0
	case map[string]interface{}:
		return game.Response(v).Int("grade")
	}
	return detail.Object("publicInfo").Int("grade")
}

// FormatTargetDetail renders a 30002 detail for notifications.
func FormatTargetDetail(detail game.Response) string {
	if len(detail) == 0 {
		return "Failed to fetch target details"
	}
	lines := []string{
		"[Today]",
		fmt.Sprintf("- Space visitors today: %s", numOr0(detail, "todaySpaceVisitorNum")),
		"[Battles]",
		fmt.Sprintf("- Grade: %s", numOr0(detail.Object("publicInfo"), "grade")),
		fmt.Sprintf("- Total kills: %s", numOr0(detail, "killCount")),
		fmt.Sprintf("- Best kill streak: %s", numOr0(detail, "maxContinueKill")),
		fmt.Sprintf("- Best overall: %s (rate: %s%%)", numOr0(detail, "bestOverall"), numOr0(detail, "bestOverallProbability")),
		fmt.Sprintf("- Team wins: %s (rate: %s%%)", numOr0(detail, "teamplayWinningTimes"), numOr0(detail, "teamplayWinningProbability")),
		"[Assets]",
		fmt.Sprintf("- Gold: %s | Diamonds: %s", numOr0(detail, "gold"), numOr0(detail, "diamonds")),
		fmt.Sprintf("- Trophies: 🏆%s 🥈%s 🥉%s", numOr0(detail, "goldNum"), numOr0(detail, "silverNum"), numOr0(detail, "copperNum")),
	}
	return strings.Join(lines, "\n")
}

func numOr0(r game.Response, key string) string {
	if s := r.String(key); s != "" {
		return s
	}
	return "0"
}

// Friend is one entry of the 30014 friend list.
type Friend struct {
	RoleID     int64
	Status     int64
	GameMode   int64
	StatusDesc string
	IsTop      bool
	Info       game.Response // publicInfos[i]
	Space      game.Response // spaceStatus[i]
}

// FriendList is the 30014 reply regrouped per friend.
type FriendList struct {
	Friends []Friend
}

// ParseFriendList regroups the parallel arrays of a 30014 reply. Missing
// entries are left zero.
func ParseFriendList(resp game.Response) *FriendList {
	ids := resp.Ints("roleID")
	status := resp.Ints("status")
	modes := resp.Ints("gameMode")
	tops := resp.Ints("isTop")
	descs, _ := resp["statusDesc"].([]interface{})
	infos, _ := resp["publicInfos"].([]interface{})
	spaces, _ := resp["spaceStatus"].([]interface{})

	list := &FriendList{Friends: make([]Friend, len(ids))}
	for i, id := range ids {
		f := Friend{RoleID: id, GameMode: gameModeNone}
		if i < len(status) {
			f.Status = status[i]
		}
		if i < len(modes) {
			f.GameMode = modes[i]
		}
		if i < len(tops) {
			f.IsTop = tops[i] == 1
		}
		if i < len(descs) {
			f.StatusDesc = fmt.Sprint(descs[i])
		}
		if i < len(infos) {
			if m, ok := infos[i].(map[string]interface{}); ok {
				f.Info = m
			}
		}
		if i < len(spaces) {
			if m, ok := spaces[i].(map[string]interface{}); ok {
				f.Space = m
			}
		}
		list.Friends[i] = f
	}
	return list
}

// Find returns the index of the friend with roleID, else of the first friend
// named name, else -1.
func (l *FriendList) Find(roleID int64, name string) int {
	for i, f := range l.Friends {
		if f.RoleID == roleID {
			return i
		}
	}
	if name == "" {
		return -1
	}
	for i, f := range l.Friends {
		if f.Info.String("name") == name {
			return i
		}
	}
	return -1
}

// Present renders the friend list overview.
func (l *FriendList) Present() string {
	var b strings.Builder
	sep := strings.Repeat("=", friendListSeparator)
	fmt.Fprintf(&b, "%s\nFriend list (%d)\n%s\n", sep, len(l.Friends), sep)

	for i, f := range l.Friends {
		top := ""
		if f.IsTop {
			top = "[top] "
		}
		name := strings.NewReplacer("\r", "", "\n", " ").Replace(f.Info.String("name"))
		sex := "♂"
		if f.Info.String("sex") == "2" {
			sex = "♀"
		}
		level := f.Info.Object("levelInfo")
		mood := f.Space.String("newMood")
		if mood == "" {
			mood = "no mood text"
		}
		if media := f.Space.Object("info"); media != nil {
			mood += fmt.Sprintf("\n    [media] voice message (%ss): %s", media.String("timeSec"), media.String("uploadUrl"))
		}

		fmt.Fprintf(&b, "NO.%d %s%s (ID: %d)\n", i+1, top, name, f.RoleID)
		fmt.Fprintf(&b, "    Basic: %s | age %s | %s | IP: %s\n", sex, f.Info.String("age"), f.Info.String("area"), f.Info.String("ip"))
		fmt.Fprintf(&b, "    Level: Lv.%s (Exp: %s/%s) | VIP until: %s | Grade: %s\n",
			level.String("level"), level.String("curExp"), level.String("nextExp"),
			formatDate(f.Info.Int("vipExpireTime")), f.Info.String("grade"))
		fmt.Fprintf(&b, "    Status: %s | Game mode: %d\n", f.StatusDesc, f.GameMode)
		fmt.Fprintf(&b, "    Mood: %s\n", mood)
		b.WriteString(strings.Repeat("-", friendListSeparator) + "\n")
	}
	return b.String()
}

func formatDate(ts int64) string {
	if ts == 0 {
		return "none"
	}
	return time.Unix(ts, 0).Format(stateDateLayout)
}
