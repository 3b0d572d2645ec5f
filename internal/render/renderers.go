package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"convergedash/internal/logging"
	"convergedash/internal/models"
	"convergedash/internal/monitor"
)

// IndicatorRenderer draws the status into the page's indicator element.
// The element is looked up on every render; a missing element is ignored.
type IndicatorRenderer struct {
	doc Document
	id  string
}

// NewIndicatorRenderer targets models.IndicatorID on doc.
func NewIndicatorRenderer(doc Document) *IndicatorRenderer {
	return &IndicatorRenderer{doc: doc, id: models.IndicatorID}
}

func (r *IndicatorRenderer) RenderHealthy()     { r.draw(models.Healthy) }
func (r *IndicatorRenderer) RenderUnhealthy()   { r.draw(models.Unhealthy) }
func (r *IndicatorRenderer) RenderUnreachable() { r.draw(models.Unreachable) }

func (r *IndicatorRenderer) draw(status models.HealthStatus) {
	if r.doc == nil {
		return
	}
	el, ok := r.doc.GetElementByID(r.id)
	if !ok || el == nil {
		return
	}
	el.SetInnerHTML(models.PresentationFor(status).HTML())
}

// LogRenderer logs status transitions. Repeats are logged at debug level.
type LogRenderer struct {
	log *logrus.Entry

	mu   sync.Mutex
	last *models.HealthStatus
}

// NewLogRenderer creates a renderer logging through the "indicator" component.
func NewLogRenderer() *LogRenderer {
	return &LogRenderer{log: logging.WithComponent("indicator")}
}

func (r *LogRenderer) RenderHealthy()     { r.record(models.Healthy) }
func (r *LogRenderer) RenderUnhealthy()   { r.record(models.Unhealthy) }
func (r *LogRenderer) RenderUnreachable() { r.record(models.Unreachable) }

func (r *LogRenderer) record(status models.HealthStatus) {
	r.mu.Lock()
	prev := r.last
	r.last = &status
	r.mu.Unlock()

	entry := r.log.WithFields(logrus.Fields{
		"state": status.String(),
		"label": models.PresentationFor(status).Label,
	})
	if prev != nil && *prev == status {
		entry.Debug("health unchanged")
		return
	}
	if prev != nil {
		entry = entry.WithField("previous", prev.String())
	}
	entry.Info("health changed")
}

// WriterRenderer prints one line per render, for terminal use.
type WriterRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterRenderer writes to w.
func NewWriterRenderer(w io.Writer) *WriterRenderer {
	return &WriterRenderer{w: w}
}

func (r *WriterRenderer) RenderHealthy()     { r.print(models.Healthy) }
func (r *WriterRenderer) RenderUnhealthy()   { r.print(models.Unhealthy) }
func (r *WriterRenderer) RenderUnreachable() { r.print(models.Unreachable) }

func (r *WriterRenderer) print(status models.HealthStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	marker := "+"
	if status != models.Healthy {
		marker = "!"
	}
	_, _ = fmt.Fprintf(r.w, "[%s] %s (%s)\n", marker, models.PresentationFor(status).Label, status)
}

// Multi fans each render out to all renderers in order.
type Multi []monitor.Renderer

func (m Multi) RenderHealthy() {
	for _, t := range m {
		t.RenderHealthy()
	}
}

func (m Multi) RenderUnhealthy() {
	for _, t := range m {
		t.RenderUnhealthy()
	}
}

func (m Multi) RenderUnreachable() {
	for _, t := range m {
		t.RenderUnreachable()
	}
}
