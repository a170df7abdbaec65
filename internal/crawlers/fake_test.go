package crawlers

import (
	"errors"
	"time"
)

type fakeElement struct {
	name      string
	scrollErr error
	clickErr  error
	clicks    int
}

func (e *fakeElement) ScrollIntoView() error { return e.scrollErr }

func (e *fakeElement) Click() error {
	e.clicks++
	return e.clickErr
}

// fakePage 内存页面: available记录每个选择器还能被找到的次数,-1表示一直存在
type fakePage struct {
	available map[string]int
	elements  map[string]*fakeElement
	all       map[string][]Element
	waits     []string

	detail    *fakePage
	openErr   error
	settleErr error
	html      string
	url       string
	scrolls   []float64
	closed    bool
}

func newFakePage() *fakePage {
	return &fakePage{
		available: map[string]int{},
		elements:  map[string]*fakeElement{},
		all:       map[string][]Element{},
	}
}

func (p *fakePage) Navigate(string, time.Duration) error { return nil }

func (p *fakePage) WaitFor(selector string, _ time.Duration) Lookup {
	p.waits = append(p.waits, selector)
	n := p.available[selector]
	if n == 0 {
		return NotFound
	}
	if n > 0 {
		p.available[selector] = n - 1
	}
	el, ok := p.elements[selector]
	if !ok {
		el = &fakeElement{name: selector}
		p.elements[selector] = el
	}
	return Found(el)
}

func (p *fakePage) FindAll(selector string) ([]Element, error) {
	return p.all[selector], nil
}

func (p *fakePage) OpenByClick(el Element, _ time.Duration) (Page, error) {
	if err := el.Click(); err != nil {
		return nil, err
	}
	if p.openErr != nil {
		return nil, p.openErr
	}
	if p.detail == nil {
		return nil, errors.New("no detail page")
	}
	return p.detail, nil
}

func (p *fakePage) WaitSettled(time.Duration) error { return p.settleErr }

func (p *fakePage) Scroll(fraction float64) error {
	p.scrolls = append(p.scrolls, fraction)
	return nil
}

func (p *fakePage) HTML() (string, error) { return p.html, nil }
func (p *fakePage) URL() (string, error)  { return p.url, nil }

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}
