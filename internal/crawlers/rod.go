package crawlers

import (
	"fmt"
	"time"

	"github.com/RecoveryAshes/KosScraper/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const scrollScript = `(fraction) => window.scrollTo(0, document.body.scrollHeight * fraction)`

// RodOptions 浏览器启动参数
type RodOptions struct {
	Headless    bool          `mapstructure:"headless"`
	UserDataDir string        `mapstructure:"user_data_dir"` // 持久化浏览器配置目录,为空时使用临时目录
	BinPath     string        `mapstructure:"bin_path"`      // 浏览器可执行文件,为空时自动查找
	NoSandbox   bool          `mapstructure:"no_sandbox"`
	SlowMotion  time.Duration `mapstructure:"slow_motion"`
}

// RodSession 基于go-rod的浏览器会话
type RodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewRodSession 启动并连接浏览器
func NewRodSession(opts RodOptions) (*RodSession, error) {
	l := launcher.New().Headless(opts.Headless)
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}
	if opts.BinPath != "" {
		l = l.Bin(opts.BinPath)
	}
	if opts.NoSandbox {
		l = l.NoSandbox(true)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	// 不模拟设备,使用真实窗口尺寸
	browser := rod.New().ControlURL(controlURL).NoDefaultDevice()
	if opts.SlowMotion > 0 {
		browser = browser.SlowMotion(opts.SlowMotion)
	}
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	utils.Debugf("浏览器已启动: %s (headless=%v)", controlURL, opts.Headless)
	return &RodSession{launcher: l, browser: browser}, nil
}

// NewPage 创建新标签页
func (s *RodSession) NewPage() (Page, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("创建标签页失败(浏览器可能已崩溃): %w", err)
	}
	return &rodPage{page: page}, nil
}

// Close 关闭浏览器
func (s *RodSession) Close() error {
	if s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	s.browser = nil
	utils.Debugf("浏览器已关闭")
	return err
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(url string, timeout time.Duration) error {
	tp := p.page.Timeout(timeout)
	defer tp.CancelTimeout()

	if err := tp.Navigate(url); err != nil {
		return fmt.Errorf("导航失败 [%s]: %w", url, err)
	}
	if err := tp.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败 [%s]: %w", url, err)
	}
	return nil
}

func (p *rodPage) WaitFor(selector string, timeout time.Duration) Lookup {
	tp := p.page.Timeout(timeout)
	el, err := tp.Element(selector)
	if err != nil {
		tp.CancelTimeout()
		return NotFound
	}
	// 元素脱离超时上下文后再取消
	el = el.Context(p.page.GetContext())
	tp.CancelTimeout()
	return Found(&rodElement{el: el})
}

func (p *rodPage) FindAll(selector string) ([]Element, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (p *rodPage) OpenByClick(el Element, timeout time.Duration) (Page, error) {
	re, ok := el.(*rodElement)
	if !ok {
		return nil, fmt.Errorf("不支持的元素类型 %T", el)
	}

	tp := p.page.Timeout(timeout)
	defer tp.CancelTimeout()

	wait := tp.WaitOpen()
	if err := re.el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, fmt.Errorf("点击失败: %w", err)
	}
	opened, err := wait()
	if err != nil {
		return nil, fmt.Errorf("等待新标签页超时: %w", err)
	}
	return &rodPage{page: opened.Context(p.page.GetContext())}, nil
}

func (p *rodPage) WaitSettled(timeout time.Duration) error {
	tp := p.page.Timeout(timeout)
	defer tp.CancelTimeout()

	if err := tp.WaitLoad(); err != nil {
		return fmt.Errorf("等待详情页加载失败: %w", err)
	}
	// 网络空闲等待超时不算失败
	tp.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()
	return nil
}

func (p *rodPage) Scroll(fraction float64) error {
	_, err := p.page.Eval(scrollScript, fraction)
	return err
}

func (p *rodPage) HTML() (string, error) {
	return p.page.HTML()
}

func (p *rodPage) URL() (string, error) {
	info, err := p.page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) ScrollIntoView() error {
	return e.el.ScrollIntoView()
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}
