package biz

import (
	"context"
	"fmt"
	"time"

	"SnakeKeeper/internal/conf"
	"SnakeKeeper/internal/data"
	"SnakeKeeper/pkg/game"
	pkglog "SnakeKeeper/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	defaultGachaAttempts = 3
	defaultGachaInterval = 301 * time.Second
	gachaCooldownSlack   = 3 * time.Second
)

// DailyTasks holds the scripted daily actions: sign-in, money tree, free
// cloth gift and free lucky draws.
type DailyTasks struct {
	exec     Executor
	profiles *ProfileSource

	interval      time.Duration
	gachaInterval time.Duration
	gachaAttempts int

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	logger *pkglog.LogHelper
}

// NewDailyTasks creates the daily task set.
func NewDailyTasks(exec Executor, profiles *ProfileSource, c *conf.Tasks, logger log.Logger) *DailyTasks {
	d := &DailyTasks{
		exec:          exec,
		profiles:      profiles,
		gachaInterval: defaultGachaInterval,
		gachaAttempts: defaultGachaAttempts,
		now:           time.Now,
		sleep:         sleepContext,
		logger:        pkglog.NewLogHelper(logger),
	}
	if c != nil {
		d.interval = c.ActionInterval
		d.gachaInterval = c.GachaInterval
		if c.GachaAttempts > 0 {
			d.gachaAttempts = c.GachaAttempts
		}
	}
	return d
}

// Tasks returns the daily actions in execution order.
func (d *DailyTasks) Tasks() []AccountTask {
	return []AccountTask{
		taskFunc{name: "sign_in", fn: d.SignIn},
		taskFunc{name: "money_tree", fn: d.MoneyTree},
		taskFunc{name: "cloth_shop", fn: d.ClothShop},
		taskFunc{name: "lucky_draw", fn: d.LuckyDraw},
	}
}

func (d *DailyTasks) base(acc *data.Account) *game.Payload {
	return BaseMessage(acc, d.profiles.Current())
}

// expectSuccess turns a non-zero code in field into a *BusinessError.
func expectSuccess(resp game.Response, msgID int, field string) error {
	code, ok := resp.Code(field)
	if ok && code == game.CodeSuccess {
		return nil
	}
	msg := resp.String("errorMsg")
	if msg == "" {
		msg = resp.String("errMsg")
	}
	return &BusinessError{MsgID: msgID, Code: code, Message: msg}
}

// SignIn claims the daily sign-in reward and the weekend gold.
func (d *DailyTasks) SignIn(ctx context.Context, acc *data.Account) error {
	d.logger.Task("checking daily sign-in", "note", acc.Label())

	info, err := d.exec.Execute(ctx, game.MsgSignInInfo, d.base(acc), acc)
	if err != nil {
		return fmt.Errorf("sign-in info: %w", err)
	}
	if err := expectSuccess(info, game.MsgSignInInfo, game.FieldErrCode); err != nil {
		return fmt.Errorf("sign-in info: %w", err)
	}

	signDay := info.Int("signDay")
	status := info.Ints("status")
	if signDay > 0 && signDay <= int64(len(status)) && status[signDay-1] == 1 {
		d.logger.Task("sign-in reward available", "note", acc.Label(), "day", signDay)
		res, err := d.exec.Execute(ctx, game.MsgSignIn, d.base(acc).Merge("type", 0, "day", signDay), acc)
		if err == nil {
			err = expectSuccess(res, game.MsgSignIn, game.FieldErrCode)
		}
		switch {
		case IsFatalAuth(err):
			return err
		case err != nil:
			// 签到失败不影响周末奖励
			d.logger.Warnw("msg", "sign-in failed", "note", acc.Label(), "error", err)
		default:
			d.logger.Success("signed in", "note", acc.Label(), "day", signDay, "awards", fmt.Sprint(res["awards"]))
		}
	} else {
		d.logger.Task("nothing to sign today", "note", acc.Label(), "day", signDay, "status", fmt.Sprint(status))
	}

	if info.Int("weekendStatus") != 1 {
		return nil
	}
	if err := d.sleep(ctx, d.interval); err != nil {
		return err
	}
	d.logger.Task("weekend gold available", "note", acc.Label())
	res, err := d.exec.Execute(ctx, game.MsgSignInWeekend, d.base(acc), acc)
	if err != nil {
		return fmt.Errorf("weekend reward: %w", err)
	}
	if err := expectSuccess(res, game.MsgSignInWeekend, game.FieldErrCode); err != nil {
		return fmt.Errorf("weekend reward: %w", err)
	}
	d.logger.Success("weekend reward claimed", "note", acc.Label(), "awards", fmt.Sprint(res["awards"]))
	return nil
}

// MoneyTree shakes the money tree once when the free shake is available.
func (d *DailyTasks) MoneyTree(ctx context.Context, acc *data.Account) error {
	d.logger.Task("checking money tree", "note", acc.Label())

	info, err := d.exec.Execute(ctx, game.MsgMoneyTreeInfo, d.base(acc), acc)
	if err != nil {
		return fmt.Errorf("money tree info: %w", err)
	}

	price, ok := info.IntOK("oncePrice")
	remaining := info.Int("residueTimes")
	if !ok || price != 0 || remaining <= 0 {
		d.logger.Task("no free shake left", "note", acc.Label(), "residue_times", remaining)
		return nil
	}

	res, err := d.exec.Execute(ctx, game.MsgMoneyTreeShake, d.base(acc).Merge("count", 1), acc)
	if err != nil {
		return fmt.Errorf("money tree shake: %w", err)
	}
	if err := expectSuccess(res, game.MsgMoneyTreeShake, game.FieldErrorCode); err != nil {
		return fmt.Errorf("money tree shake: %w", err)
	}
	d.logger.Success("money tree shaken", "note", acc.Label(), "items", fmt.Sprint(res["items"]))
	return nil
}

// ClothShop buys the first free cloth gift that was not bought up yet.
func (d *DailyTasks) ClothShop(ctx context.Context, acc *data.Account) error {
	d.logger.Task("checking cloth shop", "note", acc.Label())

	info, err := d.exec.Execute(ctx, game.MsgClothShopInfo, d.base(acc), acc)
	if err != nil {
		return fmt.Errorf("cloth shop info: %w", err)
	}
	if !info.Has("infos") {
		return fmt.Errorf("cloth shop info: %w", &BusinessError{MsgID: game.MsgClothShopInfo, Message: "reply has no infos"})
	}

	for _, item := range info.Objects("infos") {
		price, ok := item.IntOK("realPrice")
		if !ok || price != 0 {
			continue
		}
		total, ok := item.IntOK("totalCount")
		if !ok {
			total = 1
		}
		if bought, ok := item.IntOK("boughtCount"); ok && bought >= total {
			continue
		}

		giftID := item["clothGiftID"]
		d.logger.Task("free cloth gift found", "note", acc.Label(), "cloth_gift_id", fmt.Sprint(giftID))
		res, err := d.exec.Execute(ctx, game.MsgClothShopBuy,
			d.base(acc).Merge("clothGiftID", giftID, "buyCount", 1), acc)
		if err != nil {
			return fmt.Errorf("cloth shop buy: %w", err)
		}
		if !res.Has("items") {
			return fmt.Errorf("cloth shop buy: %w", expectSuccess(res, game.MsgClothShopBuy, game.FieldErrorCode))
		}
		d.logger.Success("free cloth gift claimed", "note", acc.Label(), "items", fmt.Sprint(res["items"]))
		return nil
	}

	d.logger.Task("no free cloth gift today", "note", acc.Label())
	return nil
}

// LuckyDraw uses the free lucky draws, waiting out the cooldown between them.
func (d *DailyTasks) LuckyDraw(ctx context.Context, acc *data.Account) error {
	d.logger.Task("checking lucky draw", "note", acc.Label())

	for i := 0; i < d.gachaAttempts; i++ {
		last := i == d.gachaAttempts-1

		info, err := d.exec.Execute(ctx, game.MsgLuckyDrawInfo, d.base(acc), acc)
		if err != nil {
			return fmt.Errorf("lucky draw info: %w", err)
		}
		infos := info.Objects("infos")
		if len(infos) == 0 {
			return fmt.Errorf("lucky draw info: %w", &BusinessError{MsgID: game.MsgLuckyDrawInfo, Message: "reply has no infos"})
		}

		// 字段名拼写沿用服务端
		free := infos[0].Int("coinFreeReaminCount")
		nextFree := infos[0].Int("coinFreeTime")
		if free <= 0 {
			d.logger.Task("free lucky draws used up", "note", acc.Label())
			return nil
		}

		if wait := time.Duration(nextFree-d.now().Unix()) * time.Second; wait > 0 {
			d.logger.Task("lucky draw cooling down", "note", acc.Label(), "remaining", free, "wait_s", int64(wait.Seconds()))
			if last {
				return nil
			}
			if err := d.sleep(ctx, wait+gachaCooldownSlack); err != nil {
				return err
			}
			continue
		}

		res, err := d.exec.Execute(ctx, game.MsgLuckyDraw,
			d.base(acc).Merge("isActivity", 0, "luckyToyID", 1, "drawType", 5), acc)
		if err != nil {
			return fmt.Errorf("lucky draw: %w", err)
		}
		if err := expectSuccess(res, game.MsgLuckyDraw, game.FieldErrorCode); err != nil {
			return fmt.Errorf("lucky draw: %w", err)
		}
		d.logger.Success("lucky draw done", "note", acc.Label(), "round", i+1, "items", fmt.Sprint(res["items"]))

		if last || free <= 1 {
			return nil
		}
		if err := d.sleep(ctx, d.gachaInterval); err != nil {
			return err
		}
	}
	return nil
}
