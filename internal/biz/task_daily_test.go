package biz

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"SnakeKeeper/internal/conf"
	"SnakeKeeper/pkg/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newDailyTasks(exec Executor) (*DailyTasks, *noSleep) {
	d := NewDailyTasks(exec, staticProfiles(), &conf.Tasks{
		ActionInterval: time.Second,
		GachaInterval:  301 * time.Second,
		GachaAttempts:  3,
	}, testLogger())
	ns := &noSleep{}
	d.sleep = ns.sleep
	d.now = func() time.Time { return fixedNow }
	return d, ns
}

// num builds a number the way ParseResponse decodes it.
func num(n int64) json.Number {
	return json.Number(strconv.FormatInt(n, 10))
}

func TestDailyTasks_TaskOrder(t *testing.T) {
	d, _ := newDailyTasks(newScriptedExecutor())
	var names []string
	for _, task := range d.Tasks() {
		names = append(names, task.Name())
	}
	assert.Equal(t, []string{"sign_in", "money_tree", "cloth_shop", "lucky_draw"}, names)
}

func TestSignIn(t *testing.T) {
	tests := []struct {
		name        string
		info        game.Response
		wantSign    int
		wantDay     interface{}
		wantWeekend int
	}{
		{
			name:     "claimable_day",
			info:     game.Response{"errCode": num(0), "signDay": num(3), "status": []interface{}{num(2), num(2), num(1)}},
			wantSign: 1,
			wantDay:  int64(3),
		},
		{
			name: "already_signed",
			info: game.Response{"errCode": num(0), "signDay": num(2), "status": []interface{}{num(2), num(2)}},
		},
		{
			name: "sign_day_out_of_range",
			info: game.Response{"errCode": num(0), "signDay": num(5), "status": []interface{}{num(1)}},
		},
		{
			name:        "weekend_gold",
			info:        game.Response{"errCode": num(0), "signDay": num(0), "status": []interface{}{}, "weekendStatus": num(1)},
			wantWeekend: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newScriptedExecutor().
				reply(game.MsgSignInInfo, tt.info).
				reply(game.MsgSignIn, game.Response{"errCode": num(0), "awards": []interface{}{}}).
				reply(game.MsgSignInWeekend, game.Response{"errCode": num(0)})
			d, _ := newDailyTasks(exec)

			require.NoError(t, d.SignIn(context.Background(), staleAccount()))
			assert.Equal(t, tt.wantSign, exec.count(game.MsgSignIn))
			assert.Equal(t, tt.wantWeekend, exec.count(game.MsgSignInWeekend))
			if tt.wantSign > 0 {
				p := exec.lastPayload(game.MsgSignIn)
				day, _ := p.Get("day")
				typ, _ := p.Get("type")
				assert.Equal(t, tt.wantDay, day)
				assert.Equal(t, 0, typ)
			}
		})
	}
}

func TestSignIn_InfoErrors(t *testing.T) {
	exec := newScriptedExecutor().reply(game.MsgSignInInfo, game.Response{"errCode": num(9)})
	d, _ := newDailyTasks(exec)

	err := d.SignIn(context.Background(), staleAccount())
	var be *BusinessError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, int64(9), be.Code)
	assert.Zero(t, exec.count(game.MsgSignIn))
}

func TestSignIn_FatalAuthStopsTask(t *testing.T) {
	exec := newScriptedExecutor().
		reply(game.MsgSignInInfo, game.Response{"errCode": num(0), "signDay": num(1), "status": []interface{}{num(1)}, "weekendStatus": num(1)}).
		fail(game.MsgSignIn, &FatalAuthError{RoleID: "10001"})
	d, _ := newDailyTasks(exec)

	err := d.SignIn(context.Background(), staleAccount())
	assert.True(t, IsFatalAuth(err))
	assert.Zero(t, exec.count(game.MsgSignInWeekend))
}

func TestMoneyTree(t *testing.T) {
	tests := []struct {
		name      string
		info      game.Response
		wantShake int
	}{
		{"free_shake", game.Response{"errorCode": num(0), "oncePrice": num(0), "residueTimes": num(1)}, 1},
		{"paid_shake", game.Response{"errorCode": num(0), "oncePrice": num(20), "residueTimes": num(1)}, 0},
		{"no_times_left", game.Response{"errorCode": num(0), "oncePrice": num(0), "residueTimes": num(0)}, 0},
		{"price_missing", game.Response{"errorCode": num(0), "residueTimes": num(3)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newScriptedExecutor().
				reply(game.MsgMoneyTreeInfo, tt.info).
				reply(game.MsgMoneyTreeShake, game.Response{"errorCode": num(0), "items": []interface{}{}})
			d, _ := newDailyTasks(exec)

			require.NoError(t, d.MoneyTree(context.Background(), staleAccount()))
			assert.Equal(t, tt.wantShake, exec.count(game.MsgMoneyTreeShake))
			if tt.wantShake > 0 {
				count, _ := exec.lastPayload(game.MsgMoneyTreeShake).Get("count")
				assert.Equal(t, 1, count)
			}
		})
	}
}

func TestClothShop_BuysFirstFreeGift(t *testing.T) {
	exec := newScriptedExecutor().
		reply(game.MsgClothShopInfo, game.Response{"infos": []interface{}{
			map[string]interface{}{"clothGiftID": num(1), "realPrice": num(60)},
			map[string]interface{}{"clothGiftID": num(2), "realPrice": num(0), "boughtCount": num(1), "totalCount": num(1)},
			map[string]interface{}{"clothGiftID": num(3), "realPrice": num(0), "boughtCount": nil},
			map[string]interface{}{"clothGiftID": num(4), "realPrice": num(0)},
		}}).
		reply(game.MsgClothShopBuy, game.Response{"items": []interface{}{"hat"}})
	d, _ := newDailyTasks(exec)

	require.NoError(t, d.ClothShop(context.Background(), staleAccount()))
	require.Equal(t, 1, exec.count(game.MsgClothShopBuy))

	p := exec.lastPayload(game.MsgClothShopBuy)
	id, _ := p.Get("clothGiftID")
	buy, _ := p.Get("buyCount")
	assert.Equal(t, num(3), id)
	assert.Equal(t, 1, buy)
}

func TestClothShop_NothingFree(t *testing.T) {
	exec := newScriptedExecutor().
		reply(game.MsgClothShopInfo, game.Response{"infos": []interface{}{
			map[string]interface{}{"clothGiftID": num(2), "realPrice": num(0), "boughtCount": num(2), "totalCount": num(2)},
		}})
	d, _ := newDailyTasks(exec)

	require.NoError(t, d.ClothShop(context.Background(), staleAccount()))
	assert.Zero(t, exec.count(game.MsgClothShopBuy))
}

func TestClothShop_MissingInfos(t *testing.T) {
	exec := newScriptedExecutor().reply(game.MsgClothShopInfo, game.Response{"errorCode": num(3)})
	d, _ := newDailyTasks(exec)

	assert.Error(t, d.ClothShop(context.Background(), staleAccount()))
}

func gachaInfo(free, nextFree int64) game.Response {
	return game.Response{"errorCode": num(0), "infos": []interface{}{
		map[string]interface{}{"coinFreeReaminCount": num(free), "coinFreeTime": num(nextFree)},
	}}
}

func TestLuckyDraw_DrawsAllFreeRounds(t *testing.T) {
	exec := newScriptedExecutor().
		reply(game.MsgLuckyDrawInfo, gachaInfo(3, 0), gachaInfo(2, 0), gachaInfo(1, 0)).
		reply(game.MsgLuckyDraw, game.Response{"errorCode": num(0), "items": []interface{}{}})
	d, ns := newDailyTasks(exec)

	require.NoError(t, d.LuckyDraw(context.Background(), staleAccount()))
	assert.Equal(t, 3, exec.count(game.MsgLuckyDraw))
	// 两次间隔等待，最后一次不等
	assert.Equal(t, []time.Duration{301 * time.Second, 301 * time.Second}, ns.waits)

	p := exec.lastPayload(game.MsgLuckyDraw)
	for key, want := range map[string]interface{}{"isActivity": 0, "luckyToyID": 1, "drawType": 5} {
		got, ok := p.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestLuckyDraw_WaitsForCooldown(t *testing.T) {
	next := fixedNow.Unix() + 60
	exec := newScriptedExecutor().
		reply(game.MsgLuckyDrawInfo, gachaInfo(1, next), gachaInfo(1, 0)).
		reply(game.MsgLuckyDraw, game.Response{"errorCode": num(0)})
	d, ns := newDailyTasks(exec)

	require.NoError(t, d.LuckyDraw(context.Background(), staleAccount()))
	assert.Equal(t, 1, exec.count(game.MsgLuckyDraw))
	assert.Equal(t, []time.Duration{63 * time.Second}, ns.waits)
}

func TestLuckyDraw_CooldownOnLastRoundStops(t *testing.T) {
	next := fixedNow.Unix() + 60
	exec := newScriptedExecutor().reply(game.MsgLuckyDrawInfo, gachaInfo(1, next))
	d, ns := newDailyTasks(exec)
	d.gachaAttempts = 1

	require.NoError(t, d.LuckyDraw(context.Background(), staleAccount()))
	assert.Zero(t, exec.count(game.MsgLuckyDraw))
	assert.Empty(t, ns.waits)
}

func TestLuckyDraw_UsedUp(t *testing.T) {
	exec := newScriptedExecutor().reply(game.MsgLuckyDrawInfo, gachaInfo(0, 0))
	d, _ := newDailyTasks(exec)

	require.NoError(t, d.LuckyDraw(context.Background(), staleAccount()))
	assert.Equal(t, 1, exec.count(game.MsgLuckyDrawInfo))
	assert.Zero(t, exec.count(game.MsgLuckyDraw))
}

func TestLuckyDraw_CancelledWhileWaiting(t *testing.T) {
	exec := newScriptedExecutor().
		reply(game.MsgLuckyDrawInfo, gachaInfo(3, 0)).
		reply(game.MsgLuckyDraw, game.Response{"errorCode": num(0)})
	d, _ := newDailyTasks(exec)
	d.sleep = sleepContext
	d.gachaInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.LuckyDraw(ctx, staleAccount())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, exec.count(game.MsgLuckyDraw))
}
