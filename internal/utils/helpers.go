package utils

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"
)

// ReadRegionsFromFile 从文件中读取地区列表,每行一个,#开头为注释
func ReadRegionsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开地区文件失败: %w", err)
	}
	defer file.Close()

	validator := NewRegionValidator()
	regions := make([]string, 0)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := validator.ValidateRegion(line); err != nil {
			Warnf("跳过无效地区 (行 %d): %s - %v", lineNum, line, err)
			continue
		}

		regions = append(regions, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取地区文件失败: %w", err)
	}

	if len(regions) == 0 {
		return nil, fmt.Errorf("地区文件中没有有效的地区")
	}

	Infof("从文件加载了 %d 个地区", len(regions))
	return regions, nil
}

// SplitCSV 拆分逗号分隔的参数,去掉空白与空项
func SplitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RandomDuration 返回 [min, max] 内的随机时长
func RandomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}

// SleepContext 休眠d,ctx取消时提前返回ctx.Err()
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
