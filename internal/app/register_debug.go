// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/compass_indicator/internal/config"
	"github.com/relabs-tech/compass_indicator/internal/sensors"
)

// RegisterCmd is a request from the register debug page.
type RegisterCmd struct {
	Action  string `json:"action"` // "get_map", "read", "read_all", "write"
	Address string `json:"addr,omitempty"`
	Value   string `json:"value,omitempty"`
}

// RegisterResponse is sent back for every command.
type RegisterResponse struct {
	Type        string                 `json:"type"` // "register_map", "register_data", "error"
	Device      string                 `json:"device,omitempty"`
	Address     string                 `json:"addr,omitempty"`
	Value       string                 `json:"value,omitempty"`
	Registers   map[string]string      `json:"registers,omitempty"`
	Timestamp   string                 `json:"timestamp,omitempty"`
	Message     string                 `json:"message,omitempty"`
	RegisterMap []sensors.RegisterInfo `json:"register_map,omitempty"`
}

// RegisterDebugServer exposes the magnetometer registers over a websocket.
type RegisterDebugServer struct {
	port     *sensors.RegisterPort
	device   string
	logger   *zap.SugaredLogger
	upgrader websocket.Upgrader
}

// NewRegisterDebugServer serves port, labelled with its driver name.
func NewRegisterDebugServer(port *sensors.RegisterPort, device string, logger *zap.SugaredLogger) *RegisterDebugServer {
	return &RegisterDebugServer{
		port:   port,
		device: device,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local development
			},
		},
	}
}

// Handler routes /ws and serves page on every other path.
func (s *RegisterDebugServer) Handler(page string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, page)
	})
	return mux
}

// HandleWS sends the register map on connect, then answers commands until
// the page goes away.
func (s *RegisterDebugServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(s.registerMap()); err != nil {
		s.logger.Warnf("error sending register map: %v", err)
		return
	}

	for {
		var cmd RegisterCmd
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warnf("websocket error: %v", err)
			}
			return
		}
		if err := conn.WriteJSON(s.execute(cmd)); err != nil {
			s.logger.Warnf("websocket write error: %v", err)
			return
		}
	}
}

func (s *RegisterDebugServer) execute(cmd RegisterCmd) RegisterResponse {
	switch cmd.Action {
	case "get_map":
		return s.registerMap()
	case "read":
		addr, err := parseByte(cmd.Address)
		if err != nil {
			return errorResponse("invalid address format: %s", cmd.Address)
		}
		v, err := s.port.Read(addr)
		if err != nil {
			return errorResponse("read error: %v", err)
		}
		return s.data(fmt.Sprintf("0x%02X", addr), fmt.Sprintf("0x%02X", v), "")
	case "read_all":
		values, err := s.port.ReadAll()
		if err != nil {
			return errorResponse("read all error: %v", err)
		}
		resp := s.data("", "", "")
		resp.Registers = make(map[string]string, len(values))
		for a, v := range values {
			resp.Registers[fmt.Sprintf("0x%02X", a)] = fmt.Sprintf("0x%02X", v)
		}
		return resp
	case "write":
		addr, err := parseByte(cmd.Address)
		if err != nil {
			return errorResponse("invalid address format: %s", cmd.Address)
		}
		v, err := parseByte(cmd.Value)
		if err != nil {
			return errorResponse("invalid value format: %s", cmd.Value)
		}
		if err := s.port.Write(addr, v); err != nil {
			return errorResponse("write error: %v", err)
		}
		s.logger.Infof("wrote 0x%02X to register 0x%02X", v, addr)
		return s.data(fmt.Sprintf("0x%02X", addr), fmt.Sprintf("0x%02X", v), "write successful")
	default:
		return errorResponse("unknown action: %s", cmd.Action)
	}
}

func (s *RegisterDebugServer) registerMap() RegisterResponse {
	return RegisterResponse{Type: "register_map", Device: s.device, RegisterMap: s.port.Map()}
}

func (s *RegisterDebugServer) data(addr, value, msg string) RegisterResponse {
	return RegisterResponse{
		Type:      "register_data",
		Device:    s.device,
		Address:   addr,
		Value:     value,
		Message:   msg,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func errorResponse(format string, args ...interface{}) RegisterResponse {
	return RegisterResponse{Type: "error", Message: fmt.Sprintf(format, args...)}
}

// parseByte accepts "0x1F", "31" or "0o37".
func parseByte(v string) (byte, error) {
	n, err := strconv.ParseUint(v, 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(n), nil
}

// RunRegisterDebug opens the configured magnetometer and serves the
// register debug page on REGISTER_DEBUG_PORT. Run it with the compass
// loop stopped; both would otherwise share the device.
func RunRegisterDebug(cfg *config.Config, logger *zap.SugaredLogger) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init failed: %w", err)
	}
	bus, err := i2creg.Open(cfg.SensorI2CBus)
	if err != nil {
		return fmt.Errorf("i2c open failed on bus %q: %w", cfg.SensorI2CBus, err)
	}
	defer bus.Close()

	port, err := sensors.NewRegisterPort(bus, cfg.SensorI2CAddr, cfg.SensorDriver)
	if err != nil {
		return err
	}
	srv := NewRegisterDebugServer(port, cfg.SensorDriver, logger)

	addr := fmt.Sprintf(":%d", cfg.RegisterDebugPort)
	logger.Infof("register debug tool listening on %s", addr)
	return http.ListenAndServe(addr, srv.Handler("web/register_debug.html"))
}
