package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"convergedash/internal/models"
	"convergedash/internal/render"
)

const (
	indicatorRefreshInterval = 60 * time.Second
	indicatorWriteTimeout    = 5 * time.Second
)

var indicatorUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

func (s *Server) handleIndicatorWS(w http.ResponseWriter, r *http.Request) {
	conn, err := indicatorUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.serveIndicatorConnection(conn)
}

// serveIndicatorConnection pushes the indicator on every render and re-sends
// it periodically so idle proxies keep the connection open.
func (s *Server) serveIndicatorConnection(conn *websocket.Conn) {
	defer conn.Close()

	updates, cancel := s.page.Subscribe()
	defer cancel()

	if snap, ok := s.page.Snapshot(models.IndicatorID); ok {
		if err := writeIndicator(conn, snap); err != nil {
			return
		}
	}

	ticker := time.NewTicker(indicatorRefreshInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap := <-updates:
			if snap.ID != models.IndicatorID {
				continue
			}
			if err := writeIndicator(conn, snap); err != nil {
				return
			}
		case <-ticker.C:
			snap, ok := s.page.Snapshot(models.IndicatorID)
			if !ok {
				continue
			}
			if err := writeIndicator(conn, snap); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeIndicator(conn *websocket.Conn, snap render.ElementSnapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(indicatorWriteTimeout))
	return conn.WriteJSON(snap)
}
