package config

import (
	"time"

	"github.com/muurk/ventoctl/internal/transport"
)

// Registry is the user configuration file: known fans and preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by 16-character device id
	Preferences *Preferences       `yaml:"preferences,omitempty"`

	path string
}

// Device is what ventoctl remembers about one fan. Passwords are never stored.
type Device struct {
	Nickname string    `yaml:"nickname,omitempty"`
	Family   string    `yaml:"family,omitempty"`    // "expert" or "smartwifi"
	UnitType uint16    `yaml:"unit_type,omitempty"` // Last reported UNIT_TYPE
	LastIP   string    `yaml:"last_ip,omitempty"`
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// Preferences are application-wide defaults. Zero values fall back to the
// transport defaults.
type Preferences struct {
	TimeoutMS        int    `yaml:"timeout_ms,omitempty"`        // Reply window per request
	BroadcastAddress string `yaml:"broadcast_address,omitempty"` // Discovery destination
	Port             int    `yaml:"port,omitempty"`              // Controller UDP port
	DiscoverTimeout  int    `yaml:"discover_timeout,omitempty"`  // Scan window in seconds
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Devices:     make(map[string]*Device),
		Preferences: defaultPreferences(),
	}
}

func defaultPreferences() *Preferences {
	return &Preferences{
		TimeoutMS:        int(transport.DefaultTimeout / time.Millisecond),
		BroadcastAddress: transport.DefaultBroadcastAddress,
		Port:             transport.DefaultPort,
		DiscoverTimeout:  3,
	}
}

// Path returns the file the registry was loaded from, or "" for a new one.
func (r *Registry) Path() string { return r.path }

// GetDevice retrieves device metadata by id.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(id string) *Device {
	return r.Devices[id]
}

// EnsureDevice returns the entry for id, creating it if needed.
func (r *Registry) EnsureDevice(id string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	if device, exists := r.Devices[id]; exists {
		return device
	}
	device := &Device{}
	r.Devices[id] = device
	return device
}

// UpdateDeviceLastSeen records where a device answered from.
func (r *Registry) UpdateDeviceLastSeen(id, ip string) {
	device := r.EnsureDevice(id)
	device.LastSeen = time.Now()
	device.LastIP = ip
}

// SetDeviceFamily records the family and unit type a device reported.
func (r *Registry) SetDeviceFamily(id, family string, unitType uint16) {
	device := r.EnsureDevice(id)
	device.Family = family
	device.UnitType = unitType
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(id, nickname string) {
	r.EnsureDevice(id).Nickname = nickname
}

// FindByNickname returns the id of the device with the given nickname.
func (r *Registry) FindByNickname(nickname string) (string, bool) {
	for id, d := range r.Devices {
		if d.Nickname != "" && d.Nickname == nickname {
			return id, true
		}
	}
	return "", false
}

// Timeout returns the preferred reply window.
func (p *Preferences) Timeout() time.Duration {
	if p == nil || p.TimeoutMS <= 0 {
		return transport.DefaultTimeout
	}
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

// DiscoverWindow returns the preferred scan window.
func (p *Preferences) DiscoverWindow() time.Duration {
	if p == nil || p.DiscoverTimeout <= 0 {
		return transport.DefaultTimeout
	}
	return time.Duration(p.DiscoverTimeout) * time.Second
}

// TransportOptions turns the preferences into client options. Unset fields
// are left to the transport defaults.
func (p *Preferences) TransportOptions() []transport.Option {
	if p == nil {
		return nil
	}
	var opts []transport.Option
	if p.TimeoutMS > 0 {
		opts = append(opts, transport.WithTimeout(p.Timeout()))
	}
	if p.BroadcastAddress != "" {
		opts = append(opts, transport.WithBroadcastAddress(p.BroadcastAddress))
	}
	if p.Port > 0 {
		opts = append(opts, transport.WithPort(p.Port))
	}
	return opts
}
