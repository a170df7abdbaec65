package models

import (
	"fmt"
	"time"
)

// Selectors 目标站点的CSS选择器
type Selectors struct {
	LoadMore          string `mapstructure:"load_more" json:"load_more"`
	RoomCardPrimary   string `mapstructure:"room_card_primary" json:"room_card_primary"`
	RoomCardFallback  string `mapstructure:"room_card_fallback" json:"room_card_fallback"`
	RoomName          string `mapstructure:"room_name" json:"room_name"`
	Gender            string `mapstructure:"gender" json:"gender"`
	Area              string `mapstructure:"area" json:"area"`
	Rating            string `mapstructure:"rating" json:"rating"`
	ReviewCount       string `mapstructure:"review_count" json:"review_count"`
	TransactionCount  string `mapstructure:"transaction_count" json:"transaction_count"`
	Price             string `mapstructure:"price" json:"price"`
	Period            string `mapstructure:"period" json:"period"`
	Address           string `mapstructure:"address" json:"address"`
	Facilities        string `mapstructure:"facilities" json:"facilities"`
	Rules             string `mapstructure:"rules" json:"rules"`
	LandmarkNames     string `mapstructure:"landmark_names" json:"landmark_names"`
	LandmarkDistances string `mapstructure:"landmark_distances" json:"landmark_distances"`
}

// Validate 检查必需的选择器
func (s *Selectors) Validate() error {
	required := map[string]string{
		"load_more":         s.LoadMore,
		"room_card_primary": s.RoomCardPrimary,
		"room_name":         s.RoomName,
	}
	for field, value := range required {
		if value == "" {
			return &ValidationError{Field: "selectors." + field, Reason: "选择器不能为空"}
		}
	}
	return nil
}

// ScrapeConfig 抓取参数
// 构造时传入各组件,运行期间只读
type ScrapeConfig struct {
	BaseURL     string `mapstructure:"base_url" json:"base_url"`
	URLTemplate string `mapstructure:"url_template" json:"url_template"`

	PageTimeout time.Duration `mapstructure:"page_timeout" json:"page_timeout"` // 新标签页/导航超时
	LoadTimeout time.Duration `mapstructure:"load_timeout" json:"load_timeout"` // 元素等待/页面加载超时

	MaxLoadMoreClicks        int           `mapstructure:"max_load_more_clicks" json:"max_load_more_clicks"`
	MaxConnectionRetry       int           `mapstructure:"max_connection_retry" json:"max_connection_retry"`
	ConnectionCheckInterval  int           `mapstructure:"connection_check_interval" json:"connection_check_interval"` // 每N张卡片检查一次网络, <=0 关闭
	ConnectionRetrySleep     time.Duration `mapstructure:"connection_retry_sleep" json:"connection_retry_sleep"`
	MaxCardRetry             int           `mapstructure:"max_card_retry" json:"max_card_retry"` // 包含首轮在内的总轮数
	DuplicateExitThreshold   int           `mapstructure:"duplicate_exit_threshold" json:"duplicate_exit_threshold"`
	BackupInterval           int           `mapstructure:"backup_interval" json:"backup_interval"` // <=0 关闭备份
	CompletedRegionThreshold int           `mapstructure:"completed_region_threshold" json:"completed_region_threshold"`

	LoadMorePauseMin time.Duration `mapstructure:"load_more_pause_min" json:"load_more_pause_min"`
	LoadMorePauseMax time.Duration `mapstructure:"load_more_pause_max" json:"load_more_pause_max"`
	ScrollSteps      []float64     `mapstructure:"scroll_steps" json:"scroll_steps"`
	ScrollPauseMin   time.Duration `mapstructure:"scroll_pause_min" json:"scroll_pause_min"`
	ScrollPauseMax   time.Duration `mapstructure:"scroll_pause_max" json:"scroll_pause_max"`
	RegionPauseMin   time.Duration `mapstructure:"region_pause_min" json:"region_pause_min"`
	RegionPauseMax   time.Duration `mapstructure:"region_pause_max" json:"region_pause_max"`
	CleanupEvery     int           `mapstructure:"cleanup_every" json:"cleanup_every"`
	CleanupPause     time.Duration `mapstructure:"cleanup_pause" json:"cleanup_pause"`
	PersistRetries   int           `mapstructure:"persist_retries" json:"persist_retries"`

	// 运行期选项,通常来自命令行
	Force     bool `mapstructure:"force" json:"force"`
	CardLimit int  `mapstructure:"card_limit" json:"card_limit"` // >0 时每个地区只处理前N张卡片
	Dedup     bool `mapstructure:"dedup" json:"dedup"`
}

// Validate 验证配置
func (c *ScrapeConfig) Validate() error {
	if err := ValidateURL(c.BaseURL); err != nil {
		return &ValidationError{Field: "scraper.base_url", Value: c.BaseURL, Reason: err.Error()}
	}
	if c.URLTemplate == "" {
		return &ValidationError{Field: "scraper.url_template", Reason: "URL模板不能为空"}
	}
	if c.PageTimeout <= 0 || c.LoadTimeout <= 0 {
		return fmt.Errorf("页面超时与加载超时必须大于0")
	}
	if c.MaxLoadMoreClicks < 0 {
		return &ValidationError{Field: "scraper.max_load_more_clicks", Value: fmt.Sprint(c.MaxLoadMoreClicks), Reason: "不能为负数"}
	}
	if c.MaxConnectionRetry < 1 {
		return &ValidationError{Field: "scraper.max_connection_retry", Value: fmt.Sprint(c.MaxConnectionRetry), Reason: "至少为1"}
	}
	if c.MaxCardRetry < 1 {
		return &ValidationError{Field: "scraper.max_card_retry", Value: fmt.Sprint(c.MaxCardRetry), Reason: "至少为1", Suggestion: "1 表示不重试失败卡片"}
	}
	if c.DuplicateExitThreshold < 0 || c.CompletedRegionThreshold < 0 || c.CardLimit < 0 || c.ConnectionCheckInterval < 0 {
		return fmt.Errorf("阈值与卡片上限不能为负数")
	}
	if c.LoadMorePauseMax < c.LoadMorePauseMin || c.RegionPauseMax < c.RegionPauseMin || c.ScrollPauseMax < c.ScrollPauseMin {
		return fmt.Errorf("停顿区间上限不能小于下限")
	}
	for _, step := range c.ScrollSteps {
		if step < 0 || step > 1 {
			return &ValidationError{Field: "scraper.scroll_steps", Value: fmt.Sprint(step), Reason: "滚动位置必须在0-1之间"}
		}
	}
	if c.PersistRetries < 1 {
		return &ValidationError{Field: "scraper.persist_retries", Value: fmt.Sprint(c.PersistRetries), Reason: "至少为1"}
	}
	return nil
}
