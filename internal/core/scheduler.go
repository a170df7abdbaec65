package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/RecoveryAshes/KosScraper/internal/crawlers"
	"github.com/RecoveryAshes/KosScraper/internal/dedup"
	"github.com/RecoveryAshes/KosScraper/internal/models"
	"github.com/RecoveryAshes/KosScraper/internal/utils"
)

// Store 调度器需要的持久化操作
type Store interface {
	RegionLoader
	BackupWriter
	SaveRegion(records []*models.Listing, region string) error
	SaveFailed(entries []models.FailedCard, region string) error
	GenerateMaster() (int, error)
	ArchiveMaster() (string, error)
}

// Connectivity 连通性检查
type Connectivity interface {
	Ensure(ctx context.Context) error
}

// Expander 展开分页
type Expander interface {
	Expand(ctx context.Context, page crawlers.Page, selector string, maxClicks int) int
}

// CooldownAdvisor 判断是否需要在地区之间冷却
type CooldownAdvisor interface {
	NeedsCooldown() (bool, string)
}

// Dependencies 调度器的协作组件
type Dependencies struct {
	Session   crawlers.Session
	Guard     Connectivity
	Store     Store
	Extractor Extractor
	Paginator Expander
	Monitor   CooldownAdvisor // 可选

	CompressMaster bool
	Progress       bool

	// Sleep 可替换的休眠函数,测试中注入
	Sleep func(ctx context.Context, d time.Duration) error
}

// Scheduler 按顺序逐个处理地区
type Scheduler struct {
	cfg       models.ScrapeConfig
	selectors models.Selectors
	deps      Dependencies
	resume    *ResumePolicy
	engine    *CardEngine
	seen      *dedup.SeenSet
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewScheduler 创建调度器
func NewScheduler(cfg models.ScrapeConfig, selectors models.Selectors, deps Dependencies) *Scheduler {
	sleep := deps.Sleep
	if sleep == nil {
		sleep = utils.SleepContext
	}
	seen := dedup.NewSeenSet()
	engine := NewCardEngine(cfg, deps.Extractor, seen, deps.Store)
	engine.Progress = deps.Progress
	engine.Guard = deps.Guard

	return &Scheduler{
		cfg:       cfg,
		selectors: selectors,
		deps:      deps,
		resume:    &ResumePolicy{Loader: deps.Store, Threshold: cfg.CompletedRegionThreshold, Force: cfg.Force},
		engine:    engine,
		seen:      seen,
		sleep:     sleep,
	}
}

// Run 处理全部地区,结束后重新生成主文件
//
// 网络检查耗尽重试时立即返回 models.ErrNoInternet;
// ctx被取消时保存当前地区的部分结果,跳过主文件生成并返回ctx.Err()。
// 返回的报告在任何情况下都不为nil。
func (s *Scheduler) Run(ctx context.Context, regions []string) (*models.RunReport, error) {
	report := models.NewRunReport(s.cfg)
	s.engine.OnAccept = func(*models.Listing) { report.TotalNew++ }

	utils.Infof("🚀 开始抓取: %d 个地区 (run %s)", len(regions), report.RunID)

	processed := 0
	for i, region := range regions {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}

		utils.Infof("==================== [%d/%d] %s ====================", i+1, len(regions), region)

		if err := s.deps.Guard.Ensure(ctx); err != nil {
			if errors.Is(err, models.ErrNoInternet) {
				utils.Errorf("❌ 网络不可用,中止运行: %v", err)
				report.Error = err.Error()
				report.Finish()
				return report, err
			}
			report.Interrupted = true
			break
		}

		if s.resume.ShouldSkip(region) {
			report.Regions = append(report.Regions, &models.RegionReport{Region: region, Status: models.RegionSkipped})
			continue
		}

		s.cooldown(ctx, processed)

		rr := s.runRegion(ctx, region)
		report.Regions = append(report.Regions, rr)
		processed++

		if rr.Status == models.RegionInterrupted {
			report.Interrupted = true
			break
		}

		if i < len(regions)-1 {
			pause := utils.RandomDuration(s.cfg.RegionPauseMin, s.cfg.RegionPauseMax)
			utils.Debugf("地区间休息 %v", pause)
			if err := s.sleep(ctx, pause); err != nil {
				report.Interrupted = true
				break
			}
		}
	}

	if report.Interrupted {
		utils.Warnf("⚠️  运行被中断,跳过主文件生成")
		report.Finish()
		if err := ctx.Err(); err != nil {
			return report, err
		}
		return report, context.Canceled
	}

	count, err := s.deps.Store.GenerateMaster()
	if err != nil {
		report.Error = err.Error()
		report.Finish()
		return report, fmt.Errorf("生成主文件失败: %w", err)
	}
	report.MasterCount = count

	if s.deps.CompressMaster {
		if path, err := s.deps.Store.ArchiveMaster(); err != nil {
			utils.Warnf("⚠️  压缩主文件失败: %v", err)
		} else {
			report.MasterFile = path
		}
	}

	report.Finish()
	utils.Infof("🎉 抓取完成: 新增 %d 条, 主文件 %d 条, 耗时 %.1f 秒", report.TotalNew, report.MasterCount, report.Duration)
	return report, nil
}

// runRegion 打开新页面处理单个地区,页面在返回前关闭
func (s *Scheduler) runRegion(ctx context.Context, region string) *models.RegionReport {
	start := time.Now()
	rr := &models.RegionReport{Region: region}
	defer func() { rr.Duration = time.Since(start).Seconds() }()

	page, err := s.deps.Session.NewPage()
	if err != nil {
		rr.Status = models.RegionNavigateFailed
		rr.Error = err.Error()
		utils.Errorf("❌ 地区 %s 创建页面失败: %v", region, err)
		return rr
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			utils.Debugf("关闭页面失败: %v", cerr)
		}
	}()

	url := models.BuildRegionURL(s.cfg.URLTemplate, s.cfg.BaseURL, region)
	utils.Infof("🌍 打开 %s", url)
	if err := page.Navigate(url, s.cfg.PageTimeout); err != nil {
		rr.Status = models.RegionNavigateFailed
		rr.Error = fmt.Errorf("%w: %v", models.ErrRegionNavigate, err).Error()
		utils.Errorf("❌ 地区 %s 页面打开失败: %v", region, err)
		return rr
	}

	rr.LoadMoreClicks = s.deps.Paginator.Expand(ctx, page, s.selectors.LoadMore, s.cfg.MaxLoadMoreClicks)

	selector, ok := crawlers.DetectCardSelector(page, s.selectors.RoomCardPrimary, s.selectors.RoomCardFallback, s.cfg.LoadTimeout)
	var cards []crawlers.Element
	if ok {
		cards, err = page.FindAll(selector)
	}
	if !ok || err != nil || len(cards) == 0 {
		rr.Status = models.RegionNoCards
		rr.Error = models.ErrNoCards.Error()
		utils.Errorf("❌ 地区 %s: %v", region, models.ErrNoCards)
		return rr
	}
	rr.CardsFound = len(cards)
	utils.Infof("🃏 地区 %s 找到 %d 张卡片", region, len(cards))

	outcome := s.engine.Process(ctx, page, region, cards)
	rr.Accepted = len(outcome.Results)
	rr.Duplicates = outcome.Duplicates
	rr.MaxDupStreak = outcome.MaxDupStreak
	rr.Failed = len(outcome.Failed)
	rr.BackupRounds = outcome.BackupRounds
	rr.DuplicateExit = outcome.DuplicateExit
	rr.ConnLost = outcome.ConnLost

	if outcome.Interrupted && len(outcome.Results) == 0 {
		rr.Status = models.RegionInterrupted
		utils.Warnf("⚠️  地区 %s 在接受任何记录前被中断,保留原有文件", region)
		return rr
	}

	if err := s.persist(ctx, region, outcome); err != nil {
		rr.Status = models.RegionPersistFailed
		rr.Error = err.Error()
		utils.Errorf("❌ 地区 %s 保存失败,继续下一个地区: %v", region, err)
		return rr
	}

	if outcome.Interrupted {
		rr.Status = models.RegionInterrupted
		return rr
	}
	rr.Status = models.RegionCompleted
	return rr
}

// persist 写入地区文件与失败卡片,各自按指数退避重试
// 中断时也要保存已抓取的部分结果,因此不继承ctx的取消
func (s *Scheduler) persist(ctx context.Context, region string, outcome *RegionOutcome) error {
	pctx := context.WithoutCancel(ctx)
	retry := &utils.RetryConfig{
		MaxAttempts: s.cfg.PersistRetries,
		BaseDelay:   time.Second,
		Sleep:       s.sleep,
	}

	save := func() error { return s.deps.Store.SaveRegion(outcome.Results, region) }
	if outcome.Interrupted {
		save = func() error { return s.savePartial(region, outcome) }
	}
	if err := retry.Do(pctx, "保存地区 "+region, save); err != nil {
		return err
	}
	return retry.Do(pctx, "保存失败卡片 "+region, func() error {
		return s.deps.Store.SaveFailed(outcome.Failed, region)
	})
}

// savePartial 中断时部分结果总是写入下一轮备份;
// 只有记录数多于已有地区文件时才覆盖地区文件
func (s *Scheduler) savePartial(region string, outcome *RegionOutcome) error {
	if err := s.deps.Store.Backup(outcome.Results, region, outcome.BackupRounds+1); err != nil {
		return err
	}

	existing, err := s.deps.Store.LoadRegion(region)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		utils.Warnf("⚠️  读取已有地区文件失败,使用部分结果覆盖: %v", err)
	}
	if len(existing) >= len(outcome.Results) {
		utils.Warnf("⚠️  地区 %s 已有 %d 条记录,不少于中断前的 %d 条,保留原文件", region, len(existing), len(outcome.Results))
		return nil
	}
	return s.deps.Store.SaveRegion(outcome.Results, region)
}

// cooldown 每处理 CleanupEvery 个地区,或内存紧张时,暂停一段时间
func (s *Scheduler) cooldown(ctx context.Context, processed int) {
	reason := ""
	if s.cfg.CleanupEvery > 0 && processed > 0 && processed%s.cfg.CleanupEvery == 0 {
		reason = fmt.Sprintf("已处理 %d 个地区", processed)
	}
	if s.deps.Monitor != nil {
		if need, why := s.deps.Monitor.NeedsCooldown(); need {
			reason = why
		}
	}
	if reason == "" || s.cfg.CleanupPause <= 0 {
		return
	}

	utils.Infof("🧹 %s,暂停 %v", reason, s.cfg.CleanupPause)
	_ = s.sleep(ctx, s.cfg.CleanupPause)
}
