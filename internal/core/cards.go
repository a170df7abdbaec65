package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/RecoveryAshes/KosScraper/internal/crawlers"
	"github.com/RecoveryAshes/KosScraper/internal/dedup"
	"github.com/RecoveryAshes/KosScraper/internal/models"
	"github.com/RecoveryAshes/KosScraper/internal/utils"
)

// Extractor 从单张卡片提取房源记录
type Extractor interface {
	Extract(ctx context.Context, page crawlers.Page, card crawlers.Element, region string) (*models.Listing, error)
}

// BackupWriter 增量备份
type BackupWriter interface {
	Backup(records []*models.Listing, region string, round int) error
}

// RegionOutcome 单个地区的卡片处理结果
type RegionOutcome struct {
	Results       []*models.Listing
	Failed        []models.FailedCard // 最终仍失败的卡片,按原始序号排序
	Duplicates    int
	MaxDupStreak  int
	BackupRounds  int
	Passes        int
	DuplicateExit bool // 某一轮因重复过多提前结束
	ConnLost      bool // 地区中途网络检查失败,放弃剩余卡片
	Interrupted   bool
}

// CardEngine 卡片遍历与重试引擎
type CardEngine struct {
	cfg       models.ScrapeConfig
	extractor Extractor
	seen      *dedup.SeenSet
	backups   BackupWriter

	// OnAccept 每接受一条新记录时调用,用于运行级汇总
	OnAccept func(l *models.Listing)

	// Guard 可选,每 ConnectionCheckInterval 张卡片检查一次网络
	Guard Connectivity

	// Progress 是否显示进度条
	Progress bool
}

// NewCardEngine 创建引擎;seen在整个运行内共享
func NewCardEngine(cfg models.ScrapeConfig, extractor Extractor, seen *dedup.SeenSet, backups BackupWriter) *CardEngine {
	return &CardEngine{
		cfg:       cfg,
		extractor: extractor,
		seen:      seen,
		backups:   backups,
	}
}

// passState 单轮内的计数,每轮重新开始
type passState struct {
	duplicates int
	streak     int
}

// Process 处理一个地区的全部卡片
//  1. 按CardLimit截断
//  2. 首轮遍历全部卡片,提取失败记入失败集合
//  3. 之后最多 MaxCardRetry-1 轮只重试失败的卡片
//
// 单张卡片的失败不会中止地区
func (e *CardEngine) Process(ctx context.Context, page crawlers.Page, region string, cards []crawlers.Element) *RegionOutcome {
	if e.cfg.CardLimit > 0 && len(cards) > e.cfg.CardLimit {
		utils.Infof("卡片数量限制: %d -> %d", len(cards), e.cfg.CardLimit)
		cards = cards[:e.cfg.CardLimit]
	}

	out := &RegionOutcome{Results: []*models.Listing{}}
	failed := make(map[int]string)

	pending := make([]int, len(cards))
	for i := range cards {
		pending[i] = i
	}

	passes := e.cfg.MaxCardRetry
	if passes < 1 {
		passes = 1
	}

	for pass := 1; pass <= passes && len(pending) > 0; pass++ {
		if pass > 1 {
			utils.Infof("🔁 地区 %s 第 %d 轮重试: %d 张失败卡片", region, pass-1, len(pending))
		}
		out.Passes = pass

		e.runPass(ctx, page, region, cards, pending, pass, failed, out)
		if out.Interrupted || out.ConnLost {
			break
		}

		pending = sortedKeys(failed)
	}

	for _, idx := range sortedKeys(failed) {
		out.Failed = append(out.Failed, models.FailedCard{Index: idx, Error: failed[idx]})
	}
	return out
}

func (e *CardEngine) runPass(ctx context.Context, page crawlers.Page, region string, cards []crawlers.Element,
	indices []int, pass int, failed map[int]string, out *RegionOutcome) {

	bar := utils.NewProgressBar(len(indices), fmt.Sprintf("%s #%d", region, pass), e.Progress)
	defer bar.Finish()

	state := &passState{}
	for n, idx := range indices {
		if ctx.Err() != nil {
			out.Interrupted = true
			return
		}
		if !e.checkConnection(ctx, region, n, out) {
			return
		}

		listing, err := e.extractor.Extract(ctx, page, cards[idx], region)
		_ = bar.Add(1)
		if err != nil {
			if ctx.Err() != nil {
				// 取消导致的失败不算卡片失败
				out.Interrupted = true
				return
			}
			utils.Warnf("❌ 卡片 #%d 提取失败: %v", idx, err)
			failed[idx] = err.Error()
			continue
		}
		delete(failed, idx)

		if dup := e.accept(listing, region, state, out); dup && state.duplicates > e.cfg.DuplicateExitThreshold {
			utils.Infof("🛑 地区 %s 本轮重复记录达到 %d 条,视为已到结果末尾", region, state.duplicates)
			out.DuplicateExit = true
			return
		}
	}
}

// checkConnection 本轮第n张卡片之前按间隔检查网络,返回false表示应结束本轮
func (e *CardEngine) checkConnection(ctx context.Context, region string, n int, out *RegionOutcome) bool {
	interval := e.cfg.ConnectionCheckInterval
	if e.Guard == nil || interval <= 0 || n == 0 || n%interval != 0 {
		return true
	}
	if err := e.Guard.Ensure(ctx); err != nil {
		if ctx.Err() != nil {
			out.Interrupted = true
			return false
		}
		utils.Errorf("❌ 处理到第 %d 张卡片时网络中断,地区 %s 提前结束: %v", n, region, err)
		out.ConnLost = true
		return false
	}
	return true
}

// accept 去重并收录记录;返回true表示记录是重复的
func (e *CardEngine) accept(listing *models.Listing, region string, state *passState, out *RegionOutcome) (duplicate bool) {
	key := dedup.KeyOf(listing)
	if key.HasEmpty() {
		utils.Warnf("⚠️  记录身份字段不完整,仍参与去重: %s", key)
	}

	if e.cfg.Dedup && !e.seen.Add(key) {
		state.duplicates++
		state.streak++
		out.Duplicates++
		if state.streak > out.MaxDupStreak {
			out.MaxDupStreak = state.streak
		}
		utils.Debugf("重复记录: %s", key)
		return true
	}

	state.streak = 0
	out.Results = append(out.Results, listing)
	if e.OnAccept != nil {
		e.OnAccept(listing)
	}
	utils.Debugf("✅ %s (%d)", listing.Name, len(out.Results))

	e.maybeBackup(region, out)
	return false
}

// maybeBackup 结果数是备份间隔的整数倍时写入快照,失败只告警
func (e *CardEngine) maybeBackup(region string, out *RegionOutcome) {
	interval := e.cfg.BackupInterval
	if interval <= 0 || e.backups == nil || len(out.Results)%interval != 0 {
		return
	}

	out.BackupRounds++
	snapshot := make([]*models.Listing, len(out.Results))
	copy(snapshot, out.Results)
	if err := e.backups.Backup(snapshot, region, out.BackupRounds); err != nil {
		utils.Warnf("⚠️  备份失败 (第 %d 轮),继续抓取: %v", out.BackupRounds, err)
	}
}

func sortedKeys(m map[int]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
