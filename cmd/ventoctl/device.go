package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/ventoctl/internal/controller"
	"github.com/muurk/ventoctl/internal/discovery"
	"github.com/muurk/ventoctl/internal/logging"
	"github.com/muurk/ventoctl/internal/protocol"
	"github.com/muurk/ventoctl/internal/transport"
)

// PasswordEnvVar holds the device password for non-interactive use.
const PasswordEnvVar = "VENTO_PASSWORD"

// transportOptions merges config preferences with command-line overrides.
// Later options win.
func transportOptions() []transport.Option {
	opts := registry.Preferences.TransportOptions()
	if timeoutMS > 0 {
		opts = append(opts, transport.WithTimeout(time.Duration(timeoutMS)*time.Millisecond))
	}
	if broadcastAddr != "" {
		opts = append(opts, transport.WithBroadcastAddress(broadcastAddr))
	}
	if udpPort > 0 {
		opts = append(opts, transport.WithPort(udpPort))
	}
	if transportMetrics != nil {
		opts = append(opts, transport.WithMetrics(transportMetrics))
	}
	return opts
}

// getPassword returns VENTO_PASSWORD if set, otherwise prompts on the
// terminal. An empty answer, or no terminal, means the factory password.
func getPassword() (string, error) {
	if pw, ok := os.LookupEnv(PasswordEnvVar); ok {
		return pw, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		logging.Debug("No terminal, using factory password")
		return protocol.DefaultPassword, nil
	}

	fmt.Fprintf(os.Stderr, "Device password [%s]: ", protocol.DefaultPassword)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		line, rerr := bufio.NewReader(os.Stdin).ReadString('\n')
		if rerr != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		pw = []byte(line)
	}

	password := strings.TrimSpace(string(pw))
	if password == "" {
		return protocol.DefaultPassword, nil
	}
	if len(password) > protocol.MaxPasswordLength {
		return "", fmt.Errorf("password is longer than %d characters", protocol.MaxPasswordLength)
	}
	return password, nil
}

// resolveDevice finds the device the flags point at and its family.
//
// Address: --ip (probed for its id when --id is empty), then the last IP
// the registry saw for --id, then broadcast discovery. Family: --family,
// then the registry, then a UNIT_TYPE read.
func resolveDevice(ctx context.Context, password string) (*discovery.Device, error) {
	scanner := discovery.NewScanner(transportOptions()...)

	id := deviceID
	if known, ok := registry.FindByNickname(id); ok {
		id = known
	}

	dev, err := locate(ctx, scanner, id)
	if err != nil {
		return nil, err
	}
	if err := settleFamily(ctx, scanner, dev, password); err != nil {
		return nil, err
	}
	return dev, nil
}

// settleFamily fills in dev.Family from --family, the registry, or by asking
// the controller, then records the device.
func settleFamily(ctx context.Context, scanner *discovery.Scanner, dev *discovery.Device, password string) error {
	family, err := discovery.ParseFamily(familyFlag)
	if err != nil {
		return err
	}
	if family == discovery.FamilyUnknown {
		if known := registry.GetDevice(dev.ID); known != nil {
			if f, err := discovery.ParseFamily(known.Family); err == nil {
				family = f
				dev.UnitType = known.UnitType
			}
		}
	}

	if family != discovery.FamilyUnknown {
		dev.Family = family
	} else if err := scanner.Classify(ctx, dev, password); err != nil {
		if errors.Is(err, discovery.ErrNoUnitType) {
			return fmt.Errorf("%w\nCheck the password, or pass --family expert|smartwifi", err)
		}
		return err
	}

	remember(dev)
	return nil
}

func locate(ctx context.Context, scanner *discovery.Scanner, id string) (*discovery.Device, error) {
	switch {
	case deviceIP != "" && id != "":
		return &discovery.Device{ID: id, IP: deviceIP, Port: devicePort(), DiscoveredAt: time.Now()}, nil

	case deviceIP != "":
		return scanner.Probe(ctx, deviceIP)

	case id != "":
		if known := registry.GetDevice(id); known != nil && known.LastIP != "" {
			logging.Debug("Using remembered address",
				zap.String("device_id", id),
				zap.String("ip", known.LastIP),
			)
			return &discovery.Device{ID: id, IP: known.LastIP, Port: devicePort()}, nil
		}
		return scanner.FindByID(ctx, id)
	}

	devices, err := scanner.ScanForDevicesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	switch len(devices) {
	case 0:
		return nil, fmt.Errorf("no devices found; pass --ip, or --broadcast with your subnet's broadcast address")
	case 1:
		return devices[0], nil
	default:
		var b strings.Builder
		for _, d := range devices {
			fmt.Fprintf(&b, "\n  %s  %s", d.ID, d.IP)
		}
		return nil, fmt.Errorf("%d devices found, pick one with --id:%s", len(devices), b.String())
	}
}

// remember records a resolved device in the registry. Failures to save are
// logged; they never fail the command.
func remember(devices ...*discovery.Device) {
	for _, d := range devices {
		registry.UpdateDeviceLastSeen(d.ID, d.IP)
		if d.Classified() {
			registry.SetDeviceFamily(d.ID, string(d.Family), d.UnitType)
		}
	}
	if err := registry.Save(); err != nil {
		logging.Warn("Failed to save config", zap.Error(err))
	}
}

func devicePort() int {
	switch {
	case udpPort > 0:
		return udpPort
	case registry.Preferences != nil && registry.Preferences.Port > 0:
		return registry.Preferences.Port
	default:
		return transport.DefaultPort
	}
}

func targetOf(dev *discovery.Device, password string) controller.Target {
	return controller.Target{ID: dev.ID, IP: dev.IP, Password: password}
}

// connect resolves the device and reads the password.
func connect(ctx context.Context) (*discovery.Device, controller.Target, error) {
	password, err := getPassword()
	if err != nil {
		return nil, controller.Target{}, err
	}
	dev, err := resolveDevice(ctx, password)
	if err != nil {
		return nil, controller.Target{}, err
	}
	return dev, targetOf(dev, password), nil
}
