package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/KosScraper/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 运行报告生成器
type Reporter struct {
	reportsDir string
}

// NewReporter 创建报告生成器,报告写入 {dataDir}/reports
func NewReporter(dataDir string) *Reporter {
	return &Reporter{
		reportsDir: filepath.Join(dataDir, "reports"),
	}
}

// WriteRunReport 保存运行报告,返回文件路径
func (r *Reporter) WriteRunReport(report *models.RunReport) (string, error) {
	if err := os.MkdirAll(r.reportsDir, 0755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	path := filepath.Join(r.reportsDir, fmt.Sprintf("run_%s.json", report.RunID))
	if err := r.saveJSONReport(path, report); err != nil {
		return "", err
	}

	Infof("✅ 运行报告已生成: %s", path)
	return path, nil
}

// LogSummary 输出运行汇总
func (r *Reporter) LogSummary(report *models.RunReport) {
	Logger.Info().
		Str("run_id", report.RunID).
		Int("regions", len(report.Regions)).
		Int("completed", report.CountByStatus(models.RegionCompleted)).
		Int("skipped", report.CountByStatus(models.RegionSkipped)).
		Int("no_cards", report.CountByStatus(models.RegionNoCards)).
		Int("persist_failed", report.CountByStatus(models.RegionPersistFailed)).
		Int("new_records", report.TotalNew).
		Int("master_records", report.MasterCount).
		Float64("duration_sec", report.Duration).
		Msg("📊 运行汇总")

	for _, region := range report.Regions {
		if region.Failed > 0 {
			Warnf("  %s: %d 张卡片最终失败", region.Region, region.Failed)
		}
	}
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条,enabled为false时返回静默进度条
func NewProgressBar(max int, description string, enabled bool) *progressbar.ProgressBar {
	if !enabled {
		return progressbar.DefaultSilent(int64(max), description)
	}
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
