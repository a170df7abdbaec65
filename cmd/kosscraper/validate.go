package main

import (
	"fmt"
	"os"

	"github.com/RecoveryAshes/KosScraper/internal/core"
	"github.com/RecoveryAshes/KosScraper/internal/models"
	"github.com/RecoveryAshes/KosScraper/internal/utils"
)

// scrapeFlags 抓取命令的原始参数
type scrapeFlags struct {
	Region         string
	RegionsFile    string
	StartEnd       string
	StartFrom      int
	LimitCard      int
	LimitLoadMore  int
	BackupInterval int
}

// ValidateFlags 验证命令行标志
func ValidateFlags(f scrapeFlags) error {
	if f.Region != "" {
		if err := utils.NewRegionValidator().ValidateRegions(utils.SplitCSV(f.Region)); err != nil {
			return fmt.Errorf("无效的 --region: %w", err)
		}
	}

	if f.RegionsFile != "" {
		if _, err := os.Stat(f.RegionsFile); err != nil {
			return fmt.Errorf("地区文件不可读 [%s]: %w", f.RegionsFile, err)
		}
	}

	// 先用空列表检查格式,真正的裁剪在选择地区时进行
	if f.StartEnd != "" {
		if _, _, err := core.ParseStartEnd(f.StartEnd, 0); err != nil {
			return err
		}
	}

	if f.StartFrom < 0 {
		return &models.ValidationError{Field: "start-from", Value: fmt.Sprint(f.StartFrom), Reason: "不能为负数"}
	}
	if f.LimitCard < 0 {
		return &models.ValidationError{Field: "limit-card", Value: fmt.Sprint(f.LimitCard), Reason: "不能为负数", Suggestion: "0 表示不限制"}
	}
	if f.LimitLoadMore < 0 {
		return &models.ValidationError{Field: "limit-loadmore", Value: fmt.Sprint(f.LimitLoadMore), Reason: "不能为负数"}
	}
	if f.BackupInterval < 0 {
		return &models.ValidationError{Field: "backup-interval", Value: fmt.Sprint(f.BackupInterval), Reason: "不能为负数", Suggestion: "0 表示关闭备份"}
	}

	return nil
}
