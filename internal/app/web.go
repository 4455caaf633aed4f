// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/compass_indicator/internal/compass"
	"github.com/relabs-tech/compass_indicator/internal/config"
)

const wsWriteTimeout = time.Second

// WebServer relays the latest reading to browsers, as JSON on
// /api/heading and pushed over a websocket on /ws.
type WebServer struct {
	logger   *zap.SugaredLogger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	last    compass.Reading
	have    bool
	clients map[*wsClient]struct{}
}

// wsClient serializes writes to one connection; gorilla allows a single
// writer per conn.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(r compass.Reading) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(r)
}

// write must be called with c.mu held.
func (c *wsClient) write(r compass.Reading) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(r)
}

// NewWebServer returns a relay with no reading yet.
func NewWebServer(logger *zap.SugaredLogger) *WebServer {
	return &WebServer{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local development
			},
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// Handler routes the API, the websocket and static files from staticDir.
func (s *WebServer) Handler(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/heading", s.handleHeading)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

// Publish stores r and pushes it to every connected websocket. Writes
// happen outside mu, so a slow client delays only its own updates.
func (s *WebServer) Publish(r compass.Reading) {
	s.mu.Lock()
	s.last = r
	s.have = true
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.send(r); err != nil {
			s.logger.Debugf("dropping websocket client %s: %v", c.conn.RemoteAddr(), err)
			s.drop(c)
		}
	}
}

func (s *WebServer) drop(c *wsClient) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.conn.Close()
}

func (s *WebServer) handleHeading(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	r, have := s.last, s.have
	s.mu.Unlock()

	if !have {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(r); err != nil {
		s.logger.Warnf("json encode error: %v", err)
	}
}

func (s *WebServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade error: %v", err)
		return
	}
	c := &wsClient{conn: conn}

	// The client's lock is taken before it becomes visible to Publish, so
	// the latest reading is always its first message.
	c.mu.Lock()
	s.mu.Lock()
	s.clients[c] = struct{}{}
	last, have := s.last, s.have
	s.mu.Unlock()
	if have {
		err = c.write(last)
	}
	c.mu.Unlock()
	if err != nil {
		s.drop(c)
		return
	}

	// Reads only detect the close; clients send nothing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debugf("websocket error: %v", err)
			}
			break
		}
	}
	s.drop(c)
}

// mqttHandler feeds published readings into the relay.
func (s *WebServer) mqttHandler() mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var r compass.Reading
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			s.logger.Warnf("MQTT payload unmarshal error: %v", err)
			return
		}
		s.Publish(r)
	}
}

// RunWeb subscribes to the heading topic and serves ./web, /api/heading and
// /ws on WEB_SERVER_PORT.
func RunWeb(cfg *config.Config, logger *zap.SugaredLogger) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("web: MQTT_BROKER is not set")
	}
	srv := NewWebServer(logger)

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	logger.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicHeading, 0, srv.mqttHandler())
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("web: subscribe %s: %w", cfg.TopicHeading, token.Error())
	}
	logger.Infof("subscribed to MQTT topic %s", cfg.TopicHeading)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	logger.Infof("web server listening on %s", addr)
	return http.ListenAndServe(addr, srv.Handler("web"))
}
