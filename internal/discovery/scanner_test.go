package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/muurk/ventoctl/internal/protocol"
	"github.com/muurk/ventoctl/internal/transport"
)

// startController runs a loopback controller with the given id, password and
// unit type. It answers searches from anyone and reads only with the right
// password.
func startController(t *testing.T, id, password string, unitType uint16) int {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 2048)
		for {
			n, from, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			req, err := protocol.Decode[protocol.ExpertParameter](buf[:n])
			if err != nil {
				continue
			}

			var entries []protocol.DataEntry[protocol.ExpertParameter]
			switch {
			case req.Wildcard():
				entries = append(entries, protocol.Write(protocol.ExpertSearch, []byte(id)))
			case req.DeviceID == id && req.Password == password:
				ut, _ := protocol.WriteUint(protocol.ExpertUnitType, uint64(unitType))
				entries = append(entries, ut)
			default:
				continue
			}

			frame, err := protocol.Encode(protocol.NewPacket(id, password, protocol.FunctionResponse, entries...))
			if err != nil {
				continue
			}
			conn.WriteTo(frame, from)
		}
	}()

	return conn.LocalAddr().(*net.UDPAddr).Port
}

func newTestScanner(port int) *Scanner {
	return NewScanner(
		transport.WithPort(port),
		transport.WithBroadcastAddress("127.0.0.1"),
		transport.WithTimeout(300*time.Millisecond),
	)
}

func TestScanForDevices(t *testing.T) {
	port := startController(t, "003A0024484B5010", "1111", 4)
	s := newTestScanner(port)

	devices, err := s.ScanForDevicesWithContext(context.Background())
	if err != nil {
		t.Fatalf("ScanForDevicesWithContext() error: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("len(devices) = %d, want 1", len(devices))
	}
	d := devices[0]
	if d.ID != "003A0024484B5010" || d.IP != "127.0.0.1" || d.Port != port {
		t.Errorf("device = %+v", d)
	}
	if d.Classified() {
		t.Error("scan should not classify")
	}
	if d.DiscoveredAt.IsZero() {
		t.Error("DiscoveredAt not set")
	}
}

func TestFindByID(t *testing.T) {
	port := startController(t, "003A0024484B5010", "1111", 4)
	s := newTestScanner(port)

	d, err := s.FindByID(context.Background(), "003A0024484B5010")
	if err != nil {
		t.Fatalf("FindByID() error: %v", err)
	}
	if d.IP != "127.0.0.1" {
		t.Errorf("IP = %q, want 127.0.0.1", d.IP)
	}

	_, err = s.FindByID(context.Background(), "FFFFFFFFFFFFFFFF")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("FindByID(unknown) error = %v, want ErrDeviceNotFound", err)
	}
}

func TestProbe(t *testing.T) {
	port := startController(t, "003A0024484B5010", "1111", 5)
	s := newTestScanner(port)

	d, err := s.Probe(context.Background(), "127.0.0.1")
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if d.ID != "003A0024484B5010" {
		t.Errorf("ID = %q", d.ID)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		unitType uint16
		password string
		want     Family
		wantErr  error
	}{
		{"expert duo", 4, "1111", FamilyExpert, nil},
		{"expert a30", 5, "1111", FamilyExpert, nil},
		{"smart wifi", 1, "1111", FamilySmartWiFi, nil},
		{"wrong password", 4, "9999", FamilyUnknown, ErrNoUnitType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := startController(t, "003A0024484B5010", "1111", tt.unitType)
			s := newTestScanner(port)
			d := &Device{ID: "003A0024484B5010", IP: "127.0.0.1", Port: port}

			err := s.Classify(context.Background(), d, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Classify() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify() error: %v", err)
			}
			if d.Family != tt.want || d.UnitType != tt.unitType {
				t.Errorf("Classify() = %v/%d, want %v/%d", d.Family, d.UnitType, tt.want, tt.unitType)
			}
		})
	}
}
