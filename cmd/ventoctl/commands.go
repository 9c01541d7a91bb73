package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/ventoctl/internal/config"
	"github.com/muurk/ventoctl/internal/controller"
	"github.com/muurk/ventoctl/internal/discovery"
	"github.com/muurk/ventoctl/internal/protocol"
	"github.com/muurk/ventoctl/internal/transport"
	"github.com/muurk/ventoctl/internal/ui"
)

// reportedError marks an error already shown to the user as a failure box.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// fail shows err with its troubleshooting hint in detailed mode. The
// returned error keeps main from printing it a second time.
func fail(cmd *cobra.Command, title string, err error) error {
	if outputFormat != "detailed" {
		return err
	}
	ui.NewPrinter(cmd.ErrOrStderr()).PrintError(title, err, controller.GetTroubleshootingHint(err))
	return &reportedError{err: err}
}

func alreadyReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// scanCmd finds controllers on the local network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover Vento controllers on the network",
	Long: `Broadcast a search request and list every controller that answers.

Found devices are remembered in the config file, so later commands can
address them by id or nickname without another broadcast.`,
	Example: `  # Scan the default broadcast address
  ventoctl scan

  # Scan one subnet and read each unit's type
  ventoctl scan --broadcast 192.168.1.255 --classify`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

var scanClassify bool

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts := transportOptions()
	if timeoutMS <= 0 {
		opts = append(opts, transport.WithTimeout(registry.Preferences.DiscoverWindow()))
	}
	scanner := discovery.NewScanner(opts...)

	devices, err := scanner.ScanForDevicesWithContext(ctx)
	if err != nil {
		return fail(cmd, "Scan failed", err)
	}

	if scanClassify && len(devices) > 0 {
		password, err := getPassword()
		if err != nil {
			return err
		}
		for _, d := range devices {
			if err := scanner.Classify(ctx, d, password); err != nil && ctx.Err() == nil {
				d.Family = discovery.FamilyUnknown
			}
		}
	}
	remember(devices...)

	out := cmd.OutOrStdout()
	switch outputFormat {
	case "json":
		return writeJSON(out, devices)
	case "raw":
		for _, d := range devices {
			fmt.Fprintf(out, "%s %s %s %d\n", d.ID, d.IP, d.Family, d.UnitType)
		}
		return nil
	}

	p := ui.NewPrinter(out)
	p.PrintHeader("Device Scan", "ventoctl scan",
		ui.Detail{Key: "Broadcast", Value: scanner.BroadcastAddress()},
		ui.Detail{Key: "Window", Value: scanner.Timeout().String()},
	)
	if len(devices) == 0 {
		p.PrintWarning("No devices found",
			ui.Detail{Key: "Hint", Value: "use --broadcast with your subnet's broadcast address"},
		)
		return nil
	}
	for i, d := range devices {
		p.PrintSuccess(fmt.Sprintf("Device %d", i+1), deviceDetails(d)...)
	}
	return nil
}

// stateCmd shows the device status
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show device status",
	Long: `Read the status parameter set of a controller in one request and show
power, speed, mode, sensors, timers and alarms.`,
	Example: `  ventoctl state --id 003A0024484B5010
  ventoctl state --ip 192.168.1.50 --format json`,
	Args: cobra.NoArgs,
	RunE: runState,
}

func runState(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dev, target, err := connect(ctx)
	if err != nil {
		return fail(cmd, "Device not available", err)
	}

	var (
		state   any
		details []ui.Detail
	)
	switch dev.Family {
	case discovery.FamilyExpert:
		s, err := controller.NewExpert(transport.NewClient[protocol.ExpertParameter](transportOptions()...), target).State(ctx)
		if err != nil {
			return fail(cmd, "Failed to read state", err)
		}
		state, details = s, expertDetails(s)
	default:
		s, err := controller.NewSmartWiFi(transport.NewClient[protocol.SmartWiFiParameter](transportOptions()...), target).State(ctx)
		if err != nil {
			return fail(cmd, "Failed to read state", err)
		}
		state, details = s, smartWiFiDetails(s)
	}

	if outputFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), state)
	}
	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("Device State", "ventoctl state", deviceDetails(dev)...)
	p.PrintDetails(details...)
	return nil
}

// getCmd reads parameters by name or id
var getCmd = &cobra.Command{
	Use:   "get PARAM...",
	Short: "Read parameters",
	Long: `Read one or more parameters by catalog name or numeric id. Names are
case-insensitive and '-' may stand for '_'. See 'ventoctl params'.`,
	Example: `  ventoctl get speed manual_speed --id 003A0024484B5010
  ventoctl get 0xB9 --ip 192.168.1.50 --format raw`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	return withFamily(cmd,
		func(ctx context.Context, dev *discovery.Device, t controller.Target) error {
			return getParams[protocol.ExpertParameter](ctx, cmd, dev, t, args)
		},
		func(ctx context.Context, dev *discovery.Device, t controller.Target) error {
			return getParams[protocol.SmartWiFiParameter](ctx, cmd, dev, t, args)
		},
	)
}

func getParams[P protocol.ParameterID](ctx context.Context, cmd *cobra.Command, dev *discovery.Device, t controller.Target, args []string) error {
	params, err := parseParams[P](args)
	if err != nil {
		return err
	}
	c := controller.New(transport.NewClient[P](transportOptions()...), t)
	resp, err := c.Read(ctx, params...)
	if err != nil {
		return fail(cmd, "Read failed", err)
	}
	return printEntries(cmd, "Parameters", "ventoctl get "+strings.Join(args, " "), dev, resp)
}

func printEntries[P protocol.ParameterID](cmd *cobra.Command, title, command string, dev *discovery.Device, pkt *protocol.Packet[P]) error {
	out := cmd.OutOrStdout()
	switch outputFormat {
	case "json":
		return writeJSON(out, entriesJSON(pkt.Entries))
	case "raw":
		return writeRaw(out, pkt)
	}
	p := ui.NewPrinter(out)
	p.PrintHeader(title, command, deviceDetails(dev)...)
	p.PrintDetails(entryDetails(pkt.Entries)...)
	return nil
}

// setCmd writes parameters
var setCmd = &cobra.Command{
	Use:   "set PARAM VALUE [PARAM VALUE]...",
	Short: "Write parameters",
	Long: `Write one or more parameters. Controllers do not acknowledge plain
writes; use --confirm to send WRITEREAD and show the values the device
reports back.

Values may be integers (decimal, 0x hex), on/off, dotted IPv4 addresses for
address parameters, text for variable-size parameters, or hex:BYTES for the
exact encoded value.`,
	Example: `  ventoctl set on_off on --id 003A0024484B5010
  ventoctl set speed 255 manual_speed 128 --confirm
  ventoctl set wifi_name "home" --ip 192.168.1.50`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSet,
}

var setConfirm bool

func runSet(cmd *cobra.Command, args []string) error {
	return withFamily(cmd,
		func(ctx context.Context, dev *discovery.Device, t controller.Target) error {
			return setParams[protocol.ExpertParameter](ctx, cmd, dev, t, args)
		},
		func(ctx context.Context, dev *discovery.Device, t controller.Target) error {
			return setParams[protocol.SmartWiFiParameter](ctx, cmd, dev, t, args)
		},
	)
}

func setParams[P protocol.ParameterID](ctx context.Context, cmd *cobra.Command, dev *discovery.Device, t controller.Target, args []string) error {
	entries, err := parseAssignments[P](args)
	if err != nil {
		return err
	}
	c := controller.New(transport.NewClient[P](transportOptions()...), t)

	if setConfirm {
		resp, err := c.WriteRead(ctx, entries...)
		if err != nil {
			return fail(cmd, "Write failed", err)
		}
		return printEntries(cmd, "Written", "ventoctl set --confirm", dev, resp)
	}

	if err := c.Write(ctx, entries...); err != nil {
		return fail(cmd, "Write failed", err)
	}
	if outputFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), entriesJSON(entries))
	}
	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintSuccess("Sent", entryDetails(entries)...)
	return nil
}

// incCmd and decCmd step a parameter on the device
var incCmd = &cobra.Command{
	Use:     "inc PARAM",
	Short:   "Increment a parameter",
	Example: `  ventoctl inc speed --id 003A0024484B5010`,
	Args:    cobra.ExactArgs(1),
	RunE:    func(cmd *cobra.Command, args []string) error { return runStep(cmd, args[0], true) },
}

var decCmd = &cobra.Command{
	Use:     "dec PARAM",
	Short:   "Decrement a parameter",
	Example: `  ventoctl dec speed --id 003A0024484B5010`,
	Args:    cobra.ExactArgs(1),
	RunE:    func(cmd *cobra.Command, args []string) error { return runStep(cmd, args[0], false) },
}

func runStep(cmd *cobra.Command, name string, up bool) error {
	return withFamily(cmd,
		func(ctx context.Context, dev *discovery.Device, t controller.Target) error {
			return stepParam[protocol.ExpertParameter](ctx, cmd, dev, t, name, up)
		},
		func(ctx context.Context, dev *discovery.Device, t controller.Target) error {
			return stepParam[protocol.SmartWiFiParameter](ctx, cmd, dev, t, name, up)
		},
	)
}

func stepParam[P protocol.ParameterID](ctx context.Context, cmd *cobra.Command, dev *discovery.Device, t controller.Target, name string, up bool) error {
	param, err := protocol.ParseParameter[P](name)
	if err != nil {
		return err
	}
	c := controller.New(transport.NewClient[P](transportOptions()...), t)
	e, err := c.Step(ctx, param, up)
	if err != nil {
		return fail(cmd, "Step failed", err)
	}
	pkt := protocol.NewPacket(t.ID, t.Password, protocol.FunctionResponse, e)
	verb := "dec"
	if up {
		verb = "inc"
	}
	return printEntries(cmd, "Stepped", "ventoctl "+verb+" "+name, dev, pkt)
}

// powerCmd is a shortcut for ON_OFF
var powerCmd = &cobra.Command{
	Use:       "power on|off|toggle",
	Short:     "Switch the fan on or off",
	Example:   `  ventoctl power toggle --id living-room`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off", "toggle"},
	RunE:      runPower,
}

func runPower(cmd *cobra.Command, args []string) error {
	want := strings.ToLower(args[0])
	switch want {
	case "on", "off", "toggle":
	default:
		return fmt.Errorf("unknown power state %q (want on, off or toggle)", args[0])
	}

	return withFamily(cmd,
		func(ctx context.Context, dev *discovery.Device, t controller.Target) error {
			e := controller.NewExpert(transport.NewClient[protocol.ExpertParameter](transportOptions()...), t)
			var err error
			if want == "toggle" {
				err = e.TogglePower(ctx)
			} else {
				err = e.SetPower(ctx, want == "on")
			}
			return reportSent(cmd, "Power", want, err)
		},
		func(ctx context.Context, dev *discovery.Device, t controller.Target) error {
			s := controller.NewSmartWiFi(transport.NewClient[protocol.SmartWiFiParameter](transportOptions()...), t)
			on := want == "on"
			if want == "toggle" {
				state, err := s.State(ctx)
				if err != nil {
					return fail(cmd, "Failed to read state", err)
				}
				on = !state.Power
			}
			return reportSent(cmd, "Power", onOff(on), s.SetPower(ctx, on))
		},
	)
}

// speedCmd selects a speed
var speedCmd = &cobra.Command{
	Use:   "speed 1|2|3|PERCENT%",
	Short: "Set the fan speed",
	Long: `Set the fan speed. On a Vento Expert, 1-3 select a preset and a
percentage switches to manual speed. On a Smart Wi-Fi fan the percentage
sets the maximum speed setpoint (30-100%).`,
	Example: `  ventoctl speed 2 --id 003A0024484B5010
  ventoctl speed 65% --id 003A0024484B5010`,
	Args: cobra.ExactArgs(1),
	RunE: runSpeed,
}

func runSpeed(cmd *cobra.Command, args []string) error {
	arg := args[0]
	pct, isPercent := strings.CutSuffix(arg, "%")
	n, err := strconv.Atoi(pct)
	if err != nil {
		return fmt.Errorf("invalid speed %q", arg)
	}

	return withFamily(cmd,
		func(ctx context.Context, dev *discovery.Device, t controller.Target) error {
			e := controller.NewExpert(transport.NewClient[protocol.ExpertParameter](transportOptions()...), t)
			if !isPercent {
				if n < 1 || n > 3 {
					return fail(cmd, "Invalid speed", controller.NewValidationError(fmt.Sprintf("speed %d out of range (1-3, or a percentage)", n)))
				}
				return reportSent(cmd, "Speed", arg, e.SetSpeedMode(ctx, uint8(n)))
			}
			if err := e.SetManualSpeed(ctx, n); err != nil {
				return reportSent(cmd, "Speed", arg, err)
			}
			return reportSent(cmd, "Speed", arg, e.SetSpeedMode(ctx, controller.SpeedManual))
		},
		func(ctx context.Context, dev *discovery.Device, t controller.Target) error {
			if n < 0 || n > 0xFF {
				return fail(cmd, "Invalid speed", controller.NewValidationError(fmt.Sprintf("speed %d out of range", n)))
			}
			s := controller.NewSmartWiFi(transport.NewClient[protocol.SmartWiFiParameter](transportOptions()...), t)
			return reportSent(cmd, "Max speed", pct+"%", s.SetMaxSpeed(ctx, uint8(n)))
		},
	)
}

// resetCmd clears the filter timer or alarms of a Vento Expert
var resetCmd = &cobra.Command{
	Use:       "reset filter|alarms",
	Short:     "Reset the filter timer or alarms (Vento Expert)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"filter", "alarms"},
	RunE:      runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	what := strings.ToLower(args[0])
	if what != "filter" && what != "alarms" {
		return fmt.Errorf("unknown reset target %q (want filter or alarms)", args[0])
	}
	return withFamily(cmd,
		func(ctx context.Context, dev *discovery.Device, t controller.Target) error {
			e := controller.NewExpert(transport.NewClient[protocol.ExpertParameter](transportOptions()...), t)
			if what == "filter" {
				return reportSent(cmd, "Reset", "filter timer", e.ResetFilterTimer(ctx))
			}
			return reportSent(cmd, "Reset", "alarms", e.ResetAlarms(ctx))
		},
		func(ctx context.Context, dev *discovery.Device, t controller.Target) error {
			return fmt.Errorf("reset is only available on Vento Expert units")
		},
	)
}

func reportSent(cmd *cobra.Command, key, value string, err error) error {
	if err != nil {
		return fail(cmd, "Write failed", err)
	}
	if outputFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]string{strings.ToLower(key): value})
	}
	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Sent", ui.Detail{Key: key, Value: value})
	return nil
}

// paramsCmd lists the parameter catalog of a family
var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List known parameters",
	Long: `List the parameter catalog of a device family. Without --family both
catalogs are shown.`,
	Example: `  ventoctl params --family expert`,
	Args:    cobra.NoArgs,
	RunE:    runParams,
}

func runParams(cmd *cobra.Command, args []string) error {
	family, err := discovery.ParseFamily(familyFlag)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if family != discovery.FamilySmartWiFi {
		fmt.Fprintln(out, "Vento Expert")
		fmt.Fprint(out, catalogTable(protocol.Catalog[protocol.ExpertParameter]()))
	}
	if family == discovery.FamilyUnknown {
		fmt.Fprintln(out)
	}
	if family != discovery.FamilyExpert {
		fmt.Fprintln(out, "Smart Wi-Fi")
		fmt.Fprint(out, catalogTable(protocol.Catalog[protocol.SmartWiFiParameter]()))
	}
	return nil
}

func catalogTable[P protocol.ParameterID](params []P) string {
	var b strings.Builder
	for _, p := range params {
		fmt.Fprintf(&b, "  0x%02X  %-34s %s\n", byte(p), p.String(), p.Size())
	}
	return b.String()
}

// watchCmd polls the device state on an interval
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live device status",
	Long: `Poll the device state on an interval and show it full screen.
Press r to refresh now, q to quit.`,
	Example: `  ventoctl watch --id 003A0024484B5010 --interval 5s`,
	Args:    cobra.NoArgs,
	RunE:    runWatch,
}

var watchInterval time.Duration

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if watchInterval < 500*time.Millisecond {
		return fmt.Errorf("--interval must be at least 500ms")
	}
	dev, target, err := connect(ctx)
	if err != nil {
		return fail(cmd, "Device not available", err)
	}
	return watchDevice(ctx, "ventoctl watch", dev, target)
}

func watchDevice(ctx context.Context, command string, dev *discovery.Device, target controller.Target) error {
	var poll ui.Poller
	switch dev.Family {
	case discovery.FamilyExpert:
		e := controller.NewExpert(transport.NewClient[protocol.ExpertParameter](transportOptions()...), target)
		poll = func(ctx context.Context) (*ui.Snapshot, error) {
			s, err := e.State(ctx)
			if err != nil {
				return nil, err
			}
			return expertSnapshot(s), nil
		}
	default:
		s := controller.NewSmartWiFi(transport.NewClient[protocol.SmartWiFiParameter](transportOptions()...), target)
		poll = func(ctx context.Context) (*ui.Snapshot, error) {
			st, err := s.State(ctx)
			if err != nil {
				return nil, err
			}
			return smartWiFiSnapshot(st), nil
		}
	}

	header := ui.NewHeader("Watching "+dev.ID, command, deviceDetails(dev)...)
	return ui.RunWatch(ctx, header, watchInterval, poll)
}

// nicknameCmd names a device in the config file
var nicknameCmd = &cobra.Command{
	Use:   "nickname NAME",
	Short: "Give a device a nickname",
	Long: `Store a nickname for a device in the config file. The nickname can then
be passed to --id. An empty name removes it.`,
	Example: `  ventoctl nickname bathroom --id 003A0024484B5010`,
	Args:    cobra.ExactArgs(1),
	RunE:    runNickname,
}

func runNickname(cmd *cobra.Command, args []string) error {
	if deviceID == "" {
		return fmt.Errorf("--id is required")
	}
	id := deviceID
	if known, ok := registry.FindByNickname(id); ok {
		id = known
	}
	if other, ok := registry.FindByNickname(args[0]); ok && other != id {
		return fmt.Errorf("nickname %q is already used by %s", args[0], other)
	}
	registry.SetDeviceNickname(id, args[0])
	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	path := registry.Path()
	if path == "" {
		path, _ = config.GetConfigPath()
	}
	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Saved",
		ui.Detail{Key: "ID", Value: id},
		ui.Detail{Key: "Nickname", Value: args[0]},
		ui.Detail{Key: "Config", Value: path},
	)
	return nil
}

type familyFunc func(ctx context.Context, dev *discovery.Device, t controller.Target) error

// withFamily resolves the device and runs the handler for its family.
func withFamily(cmd *cobra.Command, expert, smartWiFi familyFunc) error {
	ctx := cmd.Context()
	dev, target, err := connect(ctx)
	if err != nil {
		return fail(cmd, "Device not available", err)
	}
	if dev.Family == discovery.FamilyExpert {
		return expert(ctx, dev, target)
	}
	return smartWiFi(ctx, dev, target)
}

// pickCmd chooses a device interactively and watches it
var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose a device from a scan and watch it",
	Long: `Broadcast a search, list the controllers that answer and watch the one
you choose. Press m to type the IP of a controller on another subnet.`,
	Args: cobra.NoArgs,
	RunE: runPick,
}

func runPick(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if watchInterval < 500*time.Millisecond {
		return fmt.Errorf("--interval must be at least 500ms")
	}
	password, err := getPassword()
	if err != nil {
		return err
	}

	opts := transportOptions()
	if timeoutMS <= 0 {
		opts = append(opts, transport.WithTimeout(registry.Preferences.DiscoverWindow()))
	}
	scanner := discovery.NewScanner(opts...)
	label := func(d *discovery.Device) string {
		if known := registry.GetDevice(d.ID); known != nil {
			return known.Nickname
		}
		return ""
	}

	dev, err := ui.RunPicker(ctx, scanner.Timeout(), scanner.ScanForDevicesWithContext, scanner.Probe, label)
	if err != nil {
		return err
	}
	if dev == nil {
		return nil
	}
	if err := settleFamily(ctx, scanner, dev, password); err != nil {
		return fail(cmd, "Device not available", err)
	}
	return watchDevice(ctx, "ventoctl pick", dev, targetOf(dev, password))
}

func init() {
	scanCmd.Flags().BoolVar(&scanClassify, "classify", false, "Read each device's unit type (needs the password)")
	setCmd.Flags().BoolVar(&setConfirm, "confirm", false, "Use WRITEREAD and show the values the device reports back")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "Poll interval")
	pickCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "Poll interval")

	rootCmd.AddCommand(scanCmd, stateCmd, getCmd, setCmd, incCmd, decCmd,
		powerCmd, speedCmd, resetCmd, paramsCmd, watchCmd, pickCmd, nicknameCmd)
}
