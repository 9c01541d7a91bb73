package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/ventoctl/internal/logging"
	"github.com/muurk/ventoctl/internal/protocol"
	"github.com/muurk/ventoctl/internal/transport"
)

// ErrDeviceNotFound is returned when a device id or address does not answer
// the search request.
var ErrDeviceNotFound = errors.New("device not found")

// ErrNoUnitType is returned by Classify when the controller does not report
// its unit type.
var ErrNoUnitType = errors.New("device did not report its unit type")

// Scanner finds controllers with the vendor UDP broadcast search.
//
// The search and UNIT_TYPE parameters share id and width across both
// families, so the scanner speaks the Expert catalog regardless of what it
// finds.
type Scanner struct {
	client *transport.Client[protocol.ExpertParameter]
}

// NewScanner creates a scanner. Options are passed to the UDP client; the
// client timeout is the listen window of one scan.
func NewScanner(opts ...transport.Option) *Scanner {
	return &Scanner{client: transport.NewClient[protocol.ExpertParameter](opts...)}
}

// Timeout returns how long one scan listens for answers.
func (s *Scanner) Timeout() time.Duration {
	return s.client.Timeout()
}

// BroadcastAddress returns where search requests are sent.
func (s *Scanner) BroadcastAddress() string {
	return s.client.BroadcastAddress()
}

// ScanForDevicesWithContext discovers devices with a custom context. An empty
// list is a normal result.
func (s *Scanner) ScanForDevicesWithContext(ctx context.Context) ([]*Device, error) {
	found, err := s.client.FindDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("device search failed: %w", err)
	}

	now := time.Now()
	devices := make([]*Device, 0, len(found))
	for _, addr := range found {
		devices = append(devices, &Device{
			ID:           addr.ID,
			IP:           addr.IP,
			Port:         s.client.Port(),
			DiscoveredAt: now,
		})
	}

	logging.Info("Device scan complete", zap.Int("found", len(devices)))
	return devices, nil
}

// FindByID scans and returns the device with the given id.
func (s *Scanner) FindByID(ctx context.Context, id string) (*Device, error) {
	devices, err := s.ScanForDevicesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s did not answer within %v", ErrDeviceNotFound, id, s.Timeout())
}

// Probe sends the search request straight to ip and returns the device
// that answers. It works where broadcast does not, e.g. across subnets.
func (s *Scanner) Probe(ctx context.Context, ip string) (*Device, error) {
	res, err := s.client.Send(ctx, protocol.NewSearchPacket[protocol.ExpertParameter](), ip)
	if err != nil {
		return nil, fmt.Errorf("probe %s failed: %w", ip, err)
	}
	if !res.Matched() {
		return nil, fmt.Errorf("%w: no answer from %s", ErrDeviceNotFound, ip)
	}

	id := res.Packet.DeviceID
	if res.Packet.Wildcard() {
		if e, ok := res.Packet.Entry(protocol.ExpertSearch); ok {
			id = e.Text()
		}
	}
	return &Device{
		ID:           id,
		IP:           res.IP,
		Port:         s.client.Port(),
		DiscoveredAt: time.Now(),
	}, nil
}

// Classify reads UNIT_TYPE from dev and sets its Family and UnitType. The
// password must be correct: controllers ignore requests with a wrong one,
// which shows up here as ErrNoUnitType.
func (s *Scanner) Classify(ctx context.Context, dev *Device, password string) error {
	pkt := protocol.NewReadPacket(dev.ID, password, protocol.ExpertUnitType)
	res, err := s.client.Send(ctx, pkt, dev.IP)
	if err != nil {
		return fmt.Errorf("classify %s failed: %w", dev.ID, err)
	}
	if !res.Matched() {
		return fmt.Errorf("%w: %s (no reply, check the password)", ErrNoUnitType, dev.ID)
	}

	e, ok := res.Packet.Entry(protocol.ExpertUnitType)
	if !ok || e.Unsupported || !e.HasValue() {
		return fmt.Errorf("%w: %s", ErrNoUnitType, dev.ID)
	}

	dev.UnitType = uint16(e.Uint())
	dev.Family = ClassifyUnitType(dev.UnitType)
	logging.Debug("Classified device",
		zap.String("device_id", dev.ID),
		zap.Uint16("unit_type", dev.UnitType),
		zap.String("family", dev.Family.String()),
	)
	return nil
}
