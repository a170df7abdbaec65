package models

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ValidateURL 验证URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}

// NewRunID 生成运行ID
func NewRunID() string {
	return uuid.New().String()
}

// RegionKeyword 地区搜索关键字: 地区标识中第一个"-"之前的部分
func RegionKeyword(region string) string {
	if i := strings.Index(region, "-"); i >= 0 {
		return region[:i]
	}
	return region
}

// BuildRegionURL 根据模板生成地区搜索URL
// 模板支持 {base_url} {region} {keyword} 三个占位符
func BuildRegionURL(template, baseURL, region string) string {
	r := strings.NewReplacer(
		"{base_url}", strings.TrimRight(baseURL, "/"),
		"{region}", region,
		"{keyword}", url.QueryEscape(RegionKeyword(region)),
	)
	return r.Replace(template)
}
