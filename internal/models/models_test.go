package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"有效的HTTP URL", "http://example.com", false},
		{"有效的HTTPS URL", "https://mamikos.com/cari", false},
		{"无效的协议", "ftp://example.com", true},
		{"无效的URL", "not a url", true},
		{"空URL", "", true},
		{"无协议", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegionKeyword(t *testing.T) {
	tests := []struct {
		region string
		want   string
	}{
		{"jakarta-selatan", "jakarta"},
		{"depok", "depok"},
		{"kota-bandung-barat", "kota"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RegionKeyword(tt.region); got != tt.want {
			t.Errorf("RegionKeyword(%q) = %q, want %q", tt.region, got, tt.want)
		}
	}
}

func TestBuildRegionURL(t *testing.T) {
	tmpl := "{base_url}/{region}/all/bulanan?keyword={keyword}&rent=2"
	got := BuildRegionURL(tmpl, "https://mamikos.com/cari/", "jakarta-selatan")
	want := "https://mamikos.com/cari/jakarta-selatan/all/bulanan?keyword=jakarta&rent=2"
	if got != want {
		t.Errorf("BuildRegionURL() = %q, want %q", got, want)
	}
}

func validScrapeConfig() ScrapeConfig {
	return ScrapeConfig{
		BaseURL:            "https://mamikos.com/cari",
		URLTemplate:        "{base_url}/{region}",
		PageTimeout:        15 * time.Second,
		LoadTimeout:        10 * time.Second,
		MaxLoadMoreClicks:  30,
		MaxConnectionRetry: 3,
		MaxCardRetry:       2,
		LoadMorePauseMin:   time.Second,
		LoadMorePauseMax:   4 * time.Second,
		ScrollSteps:        []float64{1.0 / 3, 2.0 / 3, 1, 0},
		PersistRetries:     3,
	}
}

func TestScrapeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ScrapeConfig)
		wantErr bool
	}{
		{"有效配置", func(c *ScrapeConfig) {}, false},
		{"基础URL无效", func(c *ScrapeConfig) { c.BaseURL = "mamikos" }, true},
		{"模板为空", func(c *ScrapeConfig) { c.URLTemplate = "" }, true},
		{"卡片重试为0", func(c *ScrapeConfig) { c.MaxCardRetry = 0 }, true},
		{"连接重试为0", func(c *ScrapeConfig) { c.MaxConnectionRetry = 0 }, true},
		{"停顿区间颠倒", func(c *ScrapeConfig) { c.LoadMorePauseMax = 0 }, true},
		{"滚动位置越界", func(c *ScrapeConfig) { c.ScrollSteps = []float64{1.5} }, true},
		{"备份间隔为0表示关闭", func(c *ScrapeConfig) { c.BackupInterval = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validScrapeConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "scraper.max_card_retry", Value: "0", Reason: "至少为1", Suggestion: "使用1"}
	msg := err.Error()
	for _, part := range []string{"scraper.max_card_retry", "至少为1", "建议"} {
		if !strings.Contains(msg, part) {
			t.Errorf("错误信息缺少 %q: %s", part, msg)
		}
	}
}

func TestConfigError_Unwrap(t *testing.T) {
	cause := errors.New("yaml: line 3")
	err := &ConfigError{FilePath: "configs/config.yaml", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("ConfigError 应该可以解包出底层错误")
	}
}

func TestListing_NormalizeEmitsEmptyLists(t *testing.T) {
	l := (&Listing{Name: "Kos Melati"}).Normalize()
	data, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("输出中不应出现null: %s", data)
	}
	for _, key := range []string{`"nama_kos":"Kos Melati"`, `"fasilitas":{`, `"landmarks":[]`, `"peraturan":[]`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("输出缺少 %s: %s", key, data)
		}
	}
}

func TestRunReport_CountByStatus(t *testing.T) {
	report := NewRunReport(validScrapeConfig())
	report.Regions = append(report.Regions,
		&RegionReport{Region: "a", Status: RegionCompleted},
		&RegionReport{Region: "b", Status: RegionSkipped},
		&RegionReport{Region: "c", Status: RegionCompleted},
	)
	report.Finish()

	if report.RunID == "" {
		t.Error("RunID 不应为空")
	}
	if got := report.CountByStatus(RegionCompleted); got != 2 {
		t.Errorf("completed = %d, want 2", got)
	}

	data, err := report.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() 失败: %v", err)
	}
	var decoded RunReport
	if err := decoded.FromJSON(data); err != nil {
		t.Fatalf("FromJSON() 失败: %v", err)
	}
	if len(decoded.Regions) != 3 || decoded.Regions[1].Status != RegionSkipped {
		t.Errorf("反序列化结果不一致: %+v", decoded.Regions)
	}
}
