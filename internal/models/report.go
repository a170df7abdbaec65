package models

import (
	"encoding/json"
	"time"
)

// RegionStatus 地区处理结果
type RegionStatus string

const (
	RegionCompleted      RegionStatus = "completed"       // 已完成
	RegionSkipped        RegionStatus = "skipped"         // 已有足够数据,跳过
	RegionNoCards        RegionStatus = "no_cards"        // 没有匹配到卡片
	RegionNavigateFailed RegionStatus = "navigate_failed" // 页面打开失败
	RegionPersistFailed  RegionStatus = "persist_failed"  // 结果写盘失败
	RegionInterrupted    RegionStatus = "interrupted"     // 被信号中断
)

// RegionReport 单个地区的统计
type RegionReport struct {
	Region         string       `json:"region"`
	Status         RegionStatus `json:"status"`
	CardsFound     int          `json:"cards_found"`
	Accepted       int          `json:"accepted"`
	Duplicates     int          `json:"duplicates"`
	MaxDupStreak   int          `json:"max_duplicate_streak"` // 最长连续重复数
	Failed         int          `json:"failed"`
	BackupRounds   int          `json:"backup_rounds"`
	LoadMoreClicks int          `json:"load_more_clicks"`
	DuplicateExit  bool         `json:"duplicate_exit"` // 因重复过多提前结束
	ConnLost       bool         `json:"connection_lost,omitempty"`
	Duration       float64      `json:"duration"`       // 秒
	Error          string       `json:"error,omitempty"`
}

// RunReport 一次运行的汇总报告
type RunReport struct {
	RunID       string          `json:"run_id"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Duration    float64         `json:"duration"` // 秒
	Regions     []*RegionReport `json:"regions"`
	TotalNew    int             `json:"total_new"`    // 本次新增记录
	MasterCount int             `json:"master_count"` // 主文件记录数
	MasterFile  string          `json:"master_file,omitempty"`
	Interrupted bool            `json:"interrupted"`
	Error       string          `json:"error,omitempty"`

	// 运行配置快照
	Config ScrapeConfig `json:"config"`
}

// NewRunReport 创建运行报告
func NewRunReport(cfg ScrapeConfig) *RunReport {
	return &RunReport{
		RunID:     NewRunID(),
		StartTime: time.Now(),
		Regions:   []*RegionReport{},
		Config:    cfg,
	}
}

// Finish 记录结束时间
func (r *RunReport) Finish() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime).Seconds()
}

// CountByStatus 统计某种状态的地区数
func (r *RunReport) CountByStatus(status RegionStatus) int {
	n := 0
	for _, region := range r.Regions {
		if region.Status == status {
			n++
		}
	}
	return n
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
