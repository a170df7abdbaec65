package crawlers

import (
	"time"

	"github.com/RecoveryAshes/KosScraper/internal/utils"
)

// DetectCardSelector 先等待主选择器,失败后再尝试备用选择器
// 两者都未命中时返回 ("", false)
func DetectCardSelector(page Page, primary, fallback string, timeout time.Duration) (string, bool) {
	if page.WaitFor(primary, timeout).Found {
		return primary, true
	}
	utils.Warnf("⚠️  主卡片选择器未命中: %s", primary)

	if fallback == "" {
		return "", false
	}
	if page.WaitFor(fallback, timeout).Found {
		utils.Infof("使用备用卡片选择器: %s", fallback)
		return fallback, true
	}
	return "", false
}
