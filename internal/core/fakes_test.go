package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/KosScraper/internal/crawlers"
	"github.com/RecoveryAshes/KosScraper/internal/models"
)

type stubCard struct{ idx int }

func (stubCard) ScrollIntoView() error { return nil }
func (stubCard) Click() error          { return nil }

func stubCards(n int) []crawlers.Element {
	cards := make([]crawlers.Element, n)
	for i := range cards {
		cards[i] = stubCard{idx: i}
	}
	return cards
}

type stubPage struct {
	navErr  error
	present map[string]bool
	cards   []crawlers.Element
	url     string
	closed  bool
}

func (p *stubPage) Navigate(url string, _ time.Duration) error {
	p.url = url
	return p.navErr
}

func (p *stubPage) WaitFor(selector string, _ time.Duration) crawlers.Lookup {
	if p.present[selector] {
		return crawlers.Found(stubCard{})
	}
	return crawlers.NotFound
}

func (p *stubPage) FindAll(string) ([]crawlers.Element, error) { return p.cards, nil }

func (p *stubPage) OpenByClick(crawlers.Element, time.Duration) (crawlers.Page, error) {
	return nil, errors.New("not supported")
}

func (p *stubPage) WaitSettled(time.Duration) error { return nil }
func (p *stubPage) Scroll(float64) error            { return nil }
func (p *stubPage) HTML() (string, error)           { return "", nil }
func (p *stubPage) URL() (string, error)            { return p.url, nil }

func (p *stubPage) Close() error {
	p.closed = true
	return nil
}

// stubSession 按顺序返回预先准备的页面
type stubSession struct {
	pages  []*stubPage
	opened int
}

func (s *stubSession) NewPage() (crawlers.Page, error) {
	if s.opened >= len(s.pages) {
		return nil, errors.New("no more pages")
	}
	p := s.pages[s.opened]
	s.opened++
	return p, nil
}

func (s *stubSession) Close() error { return nil }

// scriptedExtractor 根据卡片序号与第几次尝试决定结果
type scriptedExtractor struct {
	mu       sync.Mutex
	attempts map[string]int
	calls    []int
	fn       func(region string, idx, attempt int) (*models.Listing, error)
}

func newScriptedExtractor(fn func(region string, idx, attempt int) (*models.Listing, error)) *scriptedExtractor {
	return &scriptedExtractor{attempts: map[string]int{}, fn: fn}
}

func (e *scriptedExtractor) Extract(_ context.Context, _ crawlers.Page, card crawlers.Element, region string) (*models.Listing, error) {
	idx := card.(stubCard).idx
	e.mu.Lock()
	key := fmt.Sprintf("%s/%d", region, idx)
	e.attempts[key]++
	attempt := e.attempts[key]
	e.calls = append(e.calls, idx)
	e.mu.Unlock()
	return e.fn(region, idx, attempt)
}

func uniqueListing(region string, idx int) *models.Listing {
	return (&models.Listing{
		Name:    fmt.Sprintf("Kos %s %d", region, idx),
		Area:    region,
		Address: fmt.Sprintf("Jl. %d", idx),
		Region:  region,
	}).Normalize()
}

type recordingBackups struct {
	rounds  []int
	lengths []int
	err     error
}

func (b *recordingBackups) Backup(records []*models.Listing, _ string, round int) error {
	b.rounds = append(b.rounds, round)
	b.lengths = append(b.lengths, len(records))
	return b.err
}

type stubExpander struct{ calls int }

func (e *stubExpander) Expand(context.Context, crawlers.Page, string, int) int {
	e.calls++
	return 2
}

type stubGuard struct {
	failAt   int // 第几次调用开始失败,0表示从不失败
	failOnce int // 只有第几次调用失败
	calls    int
}

func (g *stubGuard) Ensure(context.Context) error {
	g.calls++
	if (g.failAt > 0 && g.calls >= g.failAt) || g.calls == g.failOnce {
		return fmt.Errorf("%w: 测试", models.ErrNoInternet)
	}
	return nil
}

type stubMonitor struct{ need bool }

func (m stubMonitor) NeedsCooldown() (bool, string) { return m.need, "内存不足" }

func noSleep(context.Context, time.Duration) error { return nil }
