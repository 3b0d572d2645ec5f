// Package render holds the places a health status can be drawn: the
// dashboard page's indicator element, the log, a terminal, or metrics.
package render

import (
	"sync"
	"time"
)

// Element is a single region of a page the renderers may write to.
type Element interface {
	SetInnerHTML(markup string)
}

// Document locates elements by id. A missing element is reported with ok=false.
type Document interface {
	GetElementByID(id string) (Element, bool)
}

// ElementSnapshot is the current content of a page element.
type ElementSnapshot struct {
	ID        string    `json:"id"`
	HTML      string    `json:"html"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Page is an in-memory document shared between renderers and the web layer.
type Page struct {
	mu          sync.RWMutex
	elements    map[string]*pageElement
	content     map[string]ElementSnapshot
	subscribers map[int]chan ElementSnapshot
	nextSub     int
}

type pageElement struct {
	page *Page
	id   string
}

// NewPage creates a page declaring the given element ids.
func NewPage(ids ...string) *Page {
	p := &Page{
		elements:    make(map[string]*pageElement, len(ids)),
		content:     make(map[string]ElementSnapshot, len(ids)),
		subscribers: make(map[int]chan ElementSnapshot),
	}
	for _, id := range ids {
		p.elements[id] = &pageElement{page: p, id: id}
	}
	return p
}

// GetElementByID implements Document.
func (p *Page) GetElementByID(id string) (Element, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	el, ok := p.elements[id]
	if !ok {
		return nil, false
	}
	return el, true
}

// Snapshot returns the element's content, or false if the page has no such element.
func (p *Page) Snapshot(id string) (ElementSnapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, ok := p.elements[id]; !ok {
		return ElementSnapshot{}, false
	}
	return p.contentLocked(id), true
}

// Subscribe streams element updates until the returned cancel func is called.
// Slow subscribers miss intermediate updates rather than block renderers.
func (p *Page) Subscribe() (<-chan ElementSnapshot, func()) {
	ch := make(chan ElementSnapshot, 1)

	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subscribers[id] = ch
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subscribers, id)
			p.mu.Unlock()
			close(ch)
		})
	}
}

func (e *pageElement) SetInnerHTML(markup string) {
	e.page.set(e.id, markup)
}

func (p *Page) set(id, markup string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := ElementSnapshot{ID: id, HTML: markup, UpdatedAt: time.Now().UTC()}
	p.content[id] = snap

	for _, ch := range p.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the stale pending update and keep the latest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (p *Page) contentLocked(id string) ElementSnapshot {
	if snap, ok := p.content[id]; ok {
		return snap
	}
	return ElementSnapshot{ID: id}
}
