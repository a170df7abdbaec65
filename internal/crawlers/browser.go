package crawlers

import (
	"time"
)

// Element 页面元素
type Element interface {
	ScrollIntoView() error
	Click() error
}

// Lookup 等待元素的结果: 找到或超时未找到
// 元素不存在不是错误,调用方据此决定流程
type Lookup struct {
	Element Element
	Found   bool
}

// Found 构造命中结果
func Found(el Element) Lookup {
	return Lookup{Element: el, Found: true}
}

// NotFound 未找到
var NotFound = Lookup{}

// Page 浏览器标签页
type Page interface {
	// Navigate 打开URL并等待load事件
	Navigate(url string, timeout time.Duration) error

	// WaitFor 在timeout内等待元素出现
	WaitFor(selector string, timeout time.Duration) Lookup

	// FindAll 返回当前匹配的全部元素,不等待
	FindAll(selector string) ([]Element, error)

	// OpenByClick 点击元素并等待其打开的新标签页
	OpenByClick(el Element, timeout time.Duration) (Page, error)

	// WaitSettled 等待页面加载完成且网络空闲
	WaitSettled(timeout time.Duration) error

	// Scroll 滚动到页面高度的fraction位置(0-1)
	Scroll(fraction float64) error

	HTML() (string, error)
	URL() (string, error)
	Close() error
}

// Session 浏览器会话,整个运行期间只启动一次
type Session interface {
	NewPage() (Page, error)
	Close() error
}
