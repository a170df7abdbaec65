package crawlers

import (
	"context"
	"time"

	"github.com/RecoveryAshes/KosScraper/internal/utils"
)

// Paginator 通过反复点击"加载更多"展开搜索结果
type Paginator struct {
	LoadTimeout time.Duration // 等待按钮出现的时间
	PauseMin    time.Duration
	PauseMax    time.Duration

	// Sleep 可替换的休眠函数,测试中注入
	Sleep func(ctx context.Context, d time.Duration) error
}

// Expand 点击加载更多直到按钮消失或达到maxClicks,返回成功点击次数
// 循环内任何错误都只结束循环,不向外返回
func (p *Paginator) Expand(ctx context.Context, page Page, selector string, maxClicks int) int {
	sleep := p.Sleep
	if sleep == nil {
		sleep = utils.SleepContext
	}

	clicks := 0
	for clicks < maxClicks {
		if ctx.Err() != nil {
			break
		}

		lookup := page.WaitFor(selector, p.LoadTimeout)
		if !lookup.Found {
			utils.Infof("📄 没有更多加载按钮 (已点击 %d 次)", clicks)
			break
		}

		if err := lookup.Element.ScrollIntoView(); err != nil {
			utils.Warnf("⚠️  滚动到加载按钮失败: %v", err)
			break
		}
		if err := lookup.Element.Click(); err != nil {
			utils.Warnf("⚠️  点击加载按钮失败: %v", err)
			break
		}
		clicks++
		utils.Debugf("加载更多 #%d", clicks)

		if err := sleep(ctx, utils.RandomDuration(p.PauseMin, p.PauseMax)); err != nil {
			break
		}
	}

	if clicks >= maxClicks && maxClicks > 0 {
		utils.Infof("📄 达到加载更多上限 %d 次", maxClicks)
	}
	return clicks
}
