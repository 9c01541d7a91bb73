// Package config stores what ventoctl remembers between runs.
//
// The registry is a YAML file keyed by device id. For each fan it keeps a
// nickname, the family and unit type it reported, and the IP it last
// answered from, so commands can skip discovery. Preferences hold the
// default timeout, broadcast address and port.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/ventoctl/config.yaml or $HOME/.config/ventoctl/config.yaml
//   - macOS: $HOME/.config/ventoctl/config.yaml
//   - Windows: %LOCALAPPDATA%\ventoctl\config.yaml
//
// # Security
//
// Device passwords are NEVER written to this file.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	registry.UpdateDeviceLastSeen("003A0024484B5010", "192.168.1.50")
//	registry.SetDeviceNickname("003A0024484B5010", "bathroom")
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
//	client := transport.NewClient[protocol.ExpertParameter](registry.Preferences.TransportOptions()...)
//
// # Thread Safety
//
// The global registry is loaded once via sync.Once. Writes are serialized
// by a mutex and land atomically.
package config
