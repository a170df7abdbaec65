package crawlers

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/KosScraper/internal/models"
	"github.com/RecoveryAshes/KosScraper/internal/utils"
)

// DetailExtractor 打开卡片详情页并提取记录
type DetailExtractor struct {
	Selectors      models.Selectors
	PageTimeout    time.Duration // 等待新标签页
	LoadTimeout    time.Duration // 等待详情页加载
	ScrollSteps    []float64
	ScrollPauseMin time.Duration
	ScrollPauseMax time.Duration

	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// NewDetailExtractor 由抓取配置创建提取器
func NewDetailExtractor(cfg models.ScrapeConfig, selectors models.Selectors) *DetailExtractor {
	return &DetailExtractor{
		Selectors:      selectors,
		PageTimeout:    cfg.PageTimeout,
		LoadTimeout:    cfg.LoadTimeout,
		ScrollSteps:    cfg.ScrollSteps,
		ScrollPauseMin: cfg.ScrollPauseMin,
		ScrollPauseMax: cfg.ScrollPauseMax,
	}
}

// Extract 点击卡片,在新标签页中滚动加载并解析,结束时关闭详情页
func (e *DetailExtractor) Extract(ctx context.Context, page Page, card Element, region string) (*models.Listing, error) {
	sleep := e.Sleep
	if sleep == nil {
		sleep = utils.SleepContext
	}
	now := e.Now
	if now == nil {
		now = time.Now
	}

	if err := card.ScrollIntoView(); err != nil {
		return nil, fmt.Errorf("滚动到卡片失败: %w", err)
	}

	detail, err := page.OpenByClick(card, e.PageTimeout)
	if err != nil {
		return nil, fmt.Errorf("打开详情页失败: %w", err)
	}
	defer func() {
		if cerr := detail.Close(); cerr != nil {
			utils.Debugf("关闭详情页失败: %v", cerr)
		}
	}()

	if err := detail.WaitSettled(e.LoadTimeout); err != nil {
		return nil, err
	}

	// 分段滚动触发懒加载
	for _, step := range e.ScrollSteps {
		if err := detail.Scroll(step); err != nil {
			return nil, fmt.Errorf("滚动详情页失败: %w", err)
		}
		if err := sleep(ctx, utils.RandomDuration(e.ScrollPauseMin, e.ScrollPauseMax)); err != nil {
			return nil, err
		}
	}

	content, err := detail.HTML()
	if err != nil {
		return nil, fmt.Errorf("读取详情页HTML失败: %w", err)
	}
	pageURL, err := detail.URL()
	if err != nil {
		return nil, fmt.Errorf("读取详情页URL失败: %w", err)
	}

	return ParseDetail(content, e.Selectors, region, pageURL, now())
}
