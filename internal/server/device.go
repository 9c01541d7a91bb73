package server

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/ventoctl/internal/controller"
	"github.com/muurk/ventoctl/internal/discovery"
	"github.com/muurk/ventoctl/internal/logging"
	"github.com/muurk/ventoctl/internal/protocol"
	"github.com/muurk/ventoctl/internal/transport"
)

// DeviceInfo is a registry entry as listed by /api/devices.
type DeviceInfo struct {
	ID       string    `json:"id"`
	Nickname string    `json:"nickname,omitempty"`
	Family   string    `json:"family,omitempty"`
	UnitType uint16    `json:"unit_type,omitempty"`
	LastIP   string    `json:"last_ip,omitempty"`
	LastSeen time.Time `json:"last_seen,omitempty"`
}

func (s *Server) listDevices() []DeviceInfo {
	s.regMu.Lock()
	defer s.regMu.Unlock()

	out := make([]DeviceInfo, 0, len(s.config.Registry.Devices))
	for id, d := range s.config.Registry.Devices {
		out = append(out, DeviceInfo{
			ID:       id,
			Nickname: d.Nickname,
			Family:   d.Family,
			UnitType: d.UnitType,
			LastIP:   d.LastIP,
			LastSeen: d.LastSeen,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// resolve maps an id or nickname to a reachable, classified device. The
// registry lock is held only around lookups and updates, never across a scan.
func (s *Server) resolve(ctx context.Context, id string) (*discovery.Device, error) {
	id, dev := s.lookup(id)
	if dev != nil {
		return dev, nil
	}

	dev, err := s.scanner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.scanner.Classify(ctx, dev, s.config.Password); err != nil {
		return nil, err
	}

	s.remember(dev)
	return dev, nil
}

// lookup resolves a nickname and returns the cached device, if the registry
// knows both its address and family.
func (s *Server) lookup(id string) (string, *discovery.Device) {
	s.regMu.Lock()
	defer s.regMu.Unlock()

	reg := s.config.Registry
	if known, ok := reg.FindByNickname(id); ok {
		id = known
	}

	d := reg.GetDevice(id)
	if d == nil || d.LastIP == "" {
		return id, nil
	}
	family, err := discovery.ParseFamily(d.Family)
	if err != nil || family == discovery.FamilyUnknown {
		return id, nil
	}
	return id, &discovery.Device{ID: id, IP: d.LastIP, Family: family, UnitType: d.UnitType}
}

func (s *Server) remember(dev *discovery.Device) {
	s.regMu.Lock()
	defer s.regMu.Unlock()

	reg := s.config.Registry
	reg.UpdateDeviceLastSeen(dev.ID, dev.IP)
	reg.SetDeviceFamily(dev.ID, string(dev.Family), dev.UnitType)
	if err := reg.Save(); err != nil {
		logging.Warn("Failed to save config", zap.Error(err))
	}
}

// deviceHandle hides the parameter family of a device behind state and
// write operations.
type deviceHandle struct {
	family discovery.Family
	state  func(ctx context.Context) (any, error)
	write  func(ctx context.Context, values map[string]string) ([]string, error)
}

func (s *Server) handleFor(dev *discovery.Device) *deviceHandle {
	target := controller.Target{ID: dev.ID, IP: dev.IP, Password: s.config.Password}

	if dev.Family == discovery.FamilyExpert {
		e := controller.NewExpert(transport.NewClient[protocol.ExpertParameter](s.config.Transport...), target)
		return &deviceHandle{
			family: dev.Family,
			state:  func(ctx context.Context) (any, error) { return e.State(ctx) },
			write: func(ctx context.Context, values map[string]string) ([]string, error) {
				return writeNamed(ctx, e.Controller, values)
			},
		}
	}

	sw := controller.NewSmartWiFi(transport.NewClient[protocol.SmartWiFiParameter](s.config.Transport...), target)
	return &deviceHandle{
		family: discovery.FamilySmartWiFi,
		state:  func(ctx context.Context) (any, error) { return sw.State(ctx) },
		write: func(ctx context.Context, values map[string]string) ([]string, error) {
			return writeNamed(ctx, sw.Controller, values)
		},
	}
}

// writeNamed parses name/value pairs against catalog P and sends them in
// one WRITE. Names are applied in sorted order.
func writeNamed[P protocol.ParameterID](ctx context.Context, c *controller.Controller[P], values map[string]string) ([]string, error) {
	if len(values) == 0 {
		return nil, controller.NewValidationError("no values to write")
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]protocol.DataEntry[P], 0, len(names))
	written := make([]string, 0, len(names))
	for _, name := range names {
		e, err := protocol.ParseAssignment[P](name, values[name])
		if err != nil {
			return nil, controller.NewValidationError(fmt.Sprintf("%s: %v", name, err))
		}
		entries = append(entries, e)
		written = append(written, e.Parameter.String())
	}

	if err := c.Write(ctx, entries...); err != nil {
		return nil, err
	}
	return written, nil
}
