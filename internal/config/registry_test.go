package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/ventoctl/internal/protocol"
	"github.com/muurk/ventoctl/internal/transport"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	}

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if !strings.HasSuffix(configDir, "ventoctl") {
		t.Errorf("GetConfigDir() = %v, should end with 'ventoctl'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	default:
		if configDir != filepath.Join("/tmp/xdg", "ventoctl") {
			t.Errorf("GetConfigDir() = %v, want /tmp/xdg/ventoctl", configDir)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if got := reg.Preferences.Timeout(); got != transport.DefaultTimeout {
		t.Errorf("Preferences.Timeout() = %v, want %v", got, transport.DefaultTimeout)
	}
	if reg.Preferences.Port != 4000 {
		t.Errorf("Preferences.Port = %v, want 4000", reg.Preferences.Port)
	}
	if reg.Path() != "" {
		t.Errorf("Path() = %q, want empty", reg.Path())
	}
}

func TestRegistryEnsureDevice(t *testing.T) {
	reg := NewRegistry()

	device1 := reg.EnsureDevice("003A0024484B5010")
	if device1 == nil {
		t.Fatal("EnsureDevice() returned nil")
	}
	if device2 := reg.EnsureDevice("003A0024484B5010"); device1 != device2 {
		t.Error("EnsureDevice() should return same instance for same id")
	}
	if device3 := reg.EnsureDevice("0025003547415312"); device1 == device3 {
		t.Error("EnsureDevice() should create new instance for different id")
	}

	var empty Registry
	if empty.EnsureDevice("x") == nil {
		t.Error("EnsureDevice() on zero Registry returned nil")
	}
}

func TestRegistryUpdateDeviceLastSeen(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.UpdateDeviceLastSeen("003A0024484B5010", "192.168.1.100")
	after := time.Now()

	device := reg.GetDevice("003A0024484B5010")
	if device == nil {
		t.Fatal("Device should exist after UpdateDeviceLastSeen()")
	}
	if device.LastIP != "192.168.1.100" {
		t.Errorf("LastIP = %v, want 192.168.1.100", device.LastIP)
	}
	if device.LastSeen.Before(before) || device.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", device.LastSeen, before, after)
	}
}

func TestRegistryNicknameAndFamily(t *testing.T) {
	reg := NewRegistry()
	reg.SetDeviceNickname("003A0024484B5010", "bathroom")
	reg.SetDeviceFamily("003A0024484B5010", "expert", 4)

	id, ok := reg.FindByNickname("bathroom")
	if !ok || id != "003A0024484B5010" {
		t.Errorf("FindByNickname() = %q, %v", id, ok)
	}
	if _, ok := reg.FindByNickname("kitchen"); ok {
		t.Error("FindByNickname(kitchen) should not match")
	}
	if _, ok := reg.FindByNickname(""); ok {
		t.Error("FindByNickname(\"\") should not match")
	}

	device := reg.GetDevice("003A0024484B5010")
	if device.Family != "expert" || device.UnitType != 4 {
		t.Errorf("Family = %q UnitType = %d, want expert 4", device.Family, device.UnitType)
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom(missing) error = %v", err)
	}
	if len(reg.Devices) != 0 {
		t.Errorf("new registry has %d devices", len(reg.Devices))
	}

	reg.SetDeviceNickname("003A0024484B5010", "bathroom")
	reg.SetDeviceFamily("003A0024484B5010", "expert", 5)
	reg.UpdateDeviceLastSeen("003A0024484B5010", "192.168.1.50")
	reg.Preferences.TimeoutMS = 800

	if err := reg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	device := loaded.GetDevice("003A0024484B5010")
	if device == nil {
		t.Fatal("Device should exist in loaded registry")
	}
	if device.Nickname != "bathroom" || device.LastIP != "192.168.1.50" || device.UnitType != 5 {
		t.Errorf("loaded device = %+v", device)
	}
	if got := loaded.Preferences.Timeout(); got != 800*time.Millisecond {
		t.Errorf("loaded timeout = %v, want 800ms", got)
	}
	if loaded.Path() != path {
		t.Errorf("Path() = %q, want %q", loaded.Path(), path)
	}
}

func TestLoadRegistryFrom_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "version: [", "failed to parse"},
		{"wrong version", "version: 2\n", "unsupported config version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := LoadRegistryFrom(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadRegistryFrom() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadRegistryFrom_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if reg.Devices == nil || reg.Preferences == nil {
		t.Fatal("defaults not filled in")
	}
	if reg.Preferences.BroadcastAddress != transport.DefaultBroadcastAddress {
		t.Errorf("BroadcastAddress = %q", reg.Preferences.BroadcastAddress)
	}
}

func TestPreferences(t *testing.T) {
	var nilPrefs *Preferences
	if nilPrefs.Timeout() != transport.DefaultTimeout {
		t.Error("nil Preferences should use the default timeout")
	}
	if nilPrefs.TransportOptions() != nil {
		t.Error("nil Preferences should yield no options")
	}

	p := &Preferences{TimeoutMS: 250, BroadcastAddress: "192.168.1.255", Port: 4001, DiscoverTimeout: 2}
	if p.DiscoverWindow() != 2*time.Second {
		t.Errorf("DiscoverWindow() = %v, want 2s", p.DiscoverWindow())
	}

	client := transport.NewClient[protocol.ExpertParameter](p.TransportOptions()...)
	if client.Timeout() != 250*time.Millisecond {
		t.Errorf("client timeout = %v, want 250ms", client.Timeout())
	}
	if client.BroadcastAddress() != "192.168.1.255" {
		t.Errorf("client broadcast = %q", client.BroadcastAddress())
	}
	if client.Port() != 4001 {
		t.Errorf("client port = %d, want 4001", client.Port())
	}

	if opts := (&Preferences{}).TransportOptions(); len(opts) != 0 {
		t.Errorf("empty Preferences yielded %d options", len(opts))
	}
}

func BenchmarkEnsureDevice(b *testing.B) {
	reg := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.EnsureDevice("003A0024484B5010")
	}
}
