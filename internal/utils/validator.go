package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/KosScraper/internal/models"
)

const (
	// MaxRegionLength 地区标识最大长度
	MaxRegionLength = 128
)

// RegionValidator 验证地区标识
// 地区标识会拼进URL路径和文件名,只允许小写字母、数字和连字符
type RegionValidator struct {
	slugRegex *regexp.Regexp
	maxLength int
}

// NewRegionValidator 创建验证器
func NewRegionValidator() *RegionValidator {
	return &RegionValidator{
		slugRegex: regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`),
		maxLength: MaxRegionLength,
	}
}

// ValidateRegion 验证单个地区标识
func (rv *RegionValidator) ValidateRegion(region string) error {
	if region == "" {
		return &models.ValidationError{
			Field:  "region",
			Value:  region,
			Reason: "地区标识不能为空",
		}
	}

	if len(region) > rv.maxLength {
		return &models.ValidationError{
			Field:  "region",
			Value:  region,
			Reason: fmt.Sprintf("地区标识过长: %d 字节 (最大 %d)", len(region), rv.maxLength),
		}
	}

	if !rv.slugRegex.MatchString(region) {
		suggestion := strings.ToLower(strings.Join(strings.Fields(region), "-"))
		return &models.ValidationError{
			Field:      "region",
			Value:      region,
			Reason:     "只允许小写字母、数字和连字符",
			Suggestion: fmt.Sprintf("尝试 '%s'", suggestion),
		}
	}

	return nil
}

// ValidateRegions 验证地区列表,拒绝重复项
func (rv *RegionValidator) ValidateRegions(regions []string) error {
	seen := make(map[string]int, len(regions))
	for i, region := range regions {
		if err := rv.ValidateRegion(region); err != nil {
			return err
		}
		if first, ok := seen[region]; ok {
			return &models.ValidationError{
				Field:  "regions",
				Value:  region,
				Reason: fmt.Sprintf("第%d项与第%d项重复", i+1, first+1),
			}
		}
		seen[region] = i
	}
	return nil
}
