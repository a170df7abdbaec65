package core

import (
	"errors"
	"os"

	"github.com/RecoveryAshes/KosScraper/internal/models"
	"github.com/RecoveryAshes/KosScraper/internal/utils"
)

// RegionLoader 读取已保存的地区文件
type RegionLoader interface {
	LoadRegion(region string) ([]*models.Listing, error)
}

// ResumePolicy 断点续跑: 已有地区文件记录数超过阈值时跳过该地区
type ResumePolicy struct {
	Loader    RegionLoader
	Threshold int
	Force     bool
}

// ShouldSkip 同一文件、同一Force设置下结果恒定
// 文件不存在或无法解析时不跳过
func (p *ResumePolicy) ShouldSkip(region string) bool {
	if p.Force {
		return false
	}

	records, err := p.Loader.LoadRegion(region)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			utils.Warnf("⚠️  地区文件无法读取,按无数据处理 [%s]: %v", region, err)
		}
		return false
	}

	if len(records) > p.Threshold {
		utils.Infof("⏭️  跳过地区 %s: 已有 %d 条记录 (阈值 %d)", region, len(records), p.Threshold)
		return true
	}
	utils.Debugf("地区 %s 已有 %d 条记录,未达阈值 %d,重新抓取", region, len(records), p.Threshold)
	return false
}
