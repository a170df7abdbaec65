// Package netcheck 在每个地区开始前确认网络可用
package netcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/RecoveryAshes/KosScraper/internal/models"
	"github.com/RecoveryAshes/KosScraper/internal/utils"
	"github.com/gocolly/colly/v2"
)

// Prober 单次连通性探测
type Prober interface {
	Probe(ctx context.Context) error
}

// ProbeFunc 函数适配器
type ProbeFunc func(ctx context.Context) error

// Probe 实现Prober接口
func (f ProbeFunc) Probe(ctx context.Context) error {
	return f(ctx)
}

// CollyProbe 用colly请求探测URL,HTTP 200视为可达
type CollyProbe struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Probe 实现Prober接口
func (p *CollyProbe) Probe(ctx context.Context) error {
	opts := []colly.CollectorOption{
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	}
	if p.UserAgent != "" {
		opts = append(opts, colly.UserAgent(p.UserAgent))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(p.Timeout)

	status := 0
	var reqErr error
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		reqErr = err
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(p.URL); err != nil && reqErr == nil {
		reqErr = err
	}
	if reqErr != nil {
		return fmt.Errorf("探测 %s 失败: %w", p.URL, reqErr)
	}
	if status != http.StatusOK {
		return fmt.Errorf("探测 %s 返回状态码 %d", p.URL, status)
	}
	return nil
}

// Guard 连通性守卫,不在调用之间保存状态
type Guard struct {
	Prober     Prober
	MaxRetry   int
	RetrySleep time.Duration

	// Sleep 可替换的休眠函数,测试中注入
	Sleep func(ctx context.Context, d time.Duration) error
}

// Ensure 最多探测MaxRetry次,失败之间休眠RetrySleep
// 全部失败返回 models.ErrNoInternet
func (g *Guard) Ensure(ctx context.Context) error {
	sleep := g.Sleep
	if sleep == nil {
		sleep = utils.SleepContext
	}
	attempts := g.MaxRetry
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = g.Prober.Probe(ctx)
		if lastErr == nil {
			if attempt > 1 {
				utils.Infof("🌐 网络已恢复 (第 %d 次检查)", attempt)
			}
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		utils.Warnf("📡 网络检查失败 (%d/%d): %v", attempt, attempts, lastErr)
		if attempt < attempts {
			if err := sleep(ctx, g.RetrySleep); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("%w: 连续 %d 次检查失败: %v", models.ErrNoInternet, attempts, lastErr)
}
