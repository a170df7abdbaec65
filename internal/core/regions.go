package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RecoveryAshes/KosScraper/internal/models"
)

// RegionSelection 命令行的地区筛选参数
type RegionSelection struct {
	Only      []string // --region,非空时替换整个列表
	StartEnd  string   // --start-end,形如 "3:5",半开区间,两端可省略或为负数
	StartFrom int      // --start-from,在区间筛选之后再跳过前N个
}

// SelectRegions 按 Only -> StartEnd -> StartFrom 的顺序筛选地区
func SelectRegions(all []string, sel RegionSelection) ([]string, error) {
	list := all
	if len(sel.Only) > 0 {
		list = sel.Only
	}

	if sel.StartEnd != "" {
		start, end, err := ParseStartEnd(sel.StartEnd, len(list))
		if err != nil {
			return nil, err
		}
		list = list[start:end]
	}

	if sel.StartFrom < 0 {
		return nil, &models.ValidationError{
			Field:  "start-from",
			Value:  strconv.Itoa(sel.StartFrom),
			Reason: "不能为负数",
		}
	}
	if sel.StartFrom >= len(list) {
		return []string{}, nil
	}

	out := make([]string, len(list)-sel.StartFrom)
	copy(out, list[sel.StartFrom:])
	return out, nil
}

// ParseStartEnd 解析 "start:end" 并按长度n裁剪成合法的切片边界
func ParseStartEnd(expr string, n int) (int, int, error) {
	parts := strings.Split(expr, ":")
	if len(parts) != 2 {
		return 0, 0, &models.ValidationError{
			Field:      "start-end",
			Value:      expr,
			Reason:     "格式错误",
			Suggestion: "使用 start:end,例如 --start-end 3:5",
		}
	}

	start, err := parseBound(parts[0], 0, n)
	if err != nil {
		return 0, 0, fmt.Errorf("start-end 起点无效: %w", err)
	}
	end, err := parseBound(parts[1], n, n)
	if err != nil {
		return 0, 0, fmt.Errorf("start-end 终点无效: %w", err)
	}
	if end < start {
		end = start
	}
	return start, end, nil
}

func parseBound(s string, def, n int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		v += n
	}
	if v < 0 {
		v = 0
	}
	if v > n {
		v = n
	}
	return v, nil
}
