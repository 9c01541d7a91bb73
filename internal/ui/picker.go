package ui

import (
	"context"
	"fmt"
	"io"
	"net/netip"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/ventoctl/internal/discovery"
)

// ScanFunc broadcasts a search and returns every controller that answered.
type ScanFunc func(ctx context.Context) ([]*discovery.Device, error)

// ProbeFunc asks a single address for its device id.
type ProbeFunc func(ctx context.Context, ip string) (*discovery.Device, error)

type scanStartMsg struct{}

type scanCompleteMsg struct {
	devices []*discovery.Device
	err     error
}

type probeCompleteMsg struct {
	ip     string
	device *discovery.Device
	err    error
}

type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Enter}, {k.Rescan, k.Manual, k.Quit}}
}

// bindings is a help.KeyMap over a fixed list of keys, used for the
// scanning, empty and manual entry screens.
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding  { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }

type deviceItem struct {
	device *discovery.Device
	label  string
}

func (d deviceItem) FilterValue() string {
	return d.label + " " + d.device.ID + " " + d.device.IP
}

func (d deviceItem) Title() string {
	if d.label != "" {
		return d.label
	}
	return d.device.ID
}

func (d deviceItem) Description() string {
	return fmt.Sprintf("%s:%d • %s", d.device.IP, d.device.Port, d.device.Family)
}

type deviceDelegate struct {
	width int
}

func (d deviceDelegate) Height() int { return 6 }

func (d deviceDelegate) Spacing() int { return 1 }

func (d deviceDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d deviceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(deviceItem)
	if !ok {
		return
	}
	selected := index == m.Index()

	var content strings.Builder
	if selected {
		content.WriteString(SelectedItemStyle.Render("→ " + it.Title()))
	} else {
		content.WriteString("  " + it.Title())
	}
	content.WriteString("\n")
	content.WriteString(fmt.Sprintf("  ID:     %s\n", it.device.ID))
	content.WriteString(fmt.Sprintf("  IP:     %s:%d\n", it.device.IP, it.device.Port))
	content.WriteString(fmt.Sprintf("  Family: %s", it.device.Family))

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Padding(0, 2).
		MarginLeft(2).
		Width(clampWidth(d.width) - 6)
	if selected {
		card = card.BorderForeground(PrimaryColor)
	}

	fmt.Fprint(w, card.Render(content.String()))
}

// PickerModel scans the network and lets the user choose a controller,
// or type the address of one the broadcast did not reach.
type PickerModel struct {
	ctx    context.Context
	scan   ScanFunc
	probe  ProbeFunc
	label  func(*discovery.Device) string
	window time.Duration

	scanning  bool
	probing   bool
	scanStart time.Time
	selected  *discovery.Device
	err       error

	manual  bool
	ipInput textinput.Model

	width    int
	list     list.Model
	spinner  spinner.Model
	progress progress.Model
	help     help.Model
	keys     pickerKeyMap
}

// NewPickerModel creates the picker. window is the expected scan duration and
// only drives the progress bar. label may be nil; when set it names a device
// in the list (for instance by its registry nickname).
func NewPickerModel(ctx context.Context, window time.Duration, scan ScanFunc, probe ProbeFunc, label func(*discovery.Device) string) PickerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	ip := textinput.New()
	ip.Placeholder = "192.168.1.50"
	ip.CharLimit = 15
	ip.Width = 30

	l := list.New(nil, deviceDelegate{width: MinTerminalWidth}, MinTerminalWidth, 30)
	l.Title = "Vento controllers"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = HeaderTitleStyle

	return PickerModel{
		ctx:      ctx,
		scan:     scan,
		probe:    probe,
		label:    label,
		window:   window,
		ipInput:  ip,
		width:    MinTerminalWidth,
		list:     l,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:     help.New(),
		keys: pickerKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
			Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "watch")),
			Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
			Manual: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "enter IP")),
			Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		},
	}
}

// Init starts the first scan.
func (m PickerModel) Init() tea.Cmd {
	return m.startScan()
}

func (m PickerModel) startScan() tea.Cmd {
	ctx, scan := m.ctx, m.scan
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		func() tea.Msg {
			devices, err := scan(ctx)
			return scanCompleteMsg{devices: devices, err: err}
		},
		m.spinner.Tick,
	)
}

func (m PickerModel) probeCmd(ip string) tea.Cmd {
	ctx, probe := m.ctx, m.probe
	return func() tea.Msg {
		dev, err := probe(ctx, ip)
		return probeCompleteMsg{ip: ip, device: dev, err: err}
	}
}

// Update implements tea.Model
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.manual {
			return m.updateManual(msg)
		}
		return m.updateList(msg)

	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width)
		m.list.SetDelegate(deviceDelegate{width: m.width})
		m.list.SetSize(m.width-4, max(msg.Height-8, 6))
		return m, nil

	case scanStartMsg:
		m.scanning = true
		m.scanStart = time.Now()
		return m, nil

	case scanCompleteMsg:
		m.scanning = false
		m.err = msg.err
		items := make([]list.Item, 0, len(msg.devices))
		for _, dev := range msg.devices {
			items = append(items, m.item(dev))
		}
		return m, m.list.SetItems(items)

	case probeCompleteMsg:
		m.probing = false
		if msg.err != nil {
			m.err = fmt.Errorf("no controller answered at %s: %w", msg.ip, msg.err)
			return m, nil
		}
		m.err = nil
		items := []list.Item{m.item(msg.device)}
		for _, it := range m.list.Items() {
			if d, ok := it.(deviceItem); ok && d.device.ID == msg.device.ID {
				continue
			}
			items = append(items, it)
		}
		cmd := m.list.SetItems(items)
		m.list.Select(0)
		return m, cmd

	case spinner.TickMsg:
		if !m.scanning && !m.probing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if !m.scanning {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m PickerModel) item(dev *discovery.Device) deviceItem {
	it := deviceItem{device: dev}
	if m.label != nil {
		it.label = m.label(dev)
	}
	return it
}

func (m PickerModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Enter):
		if m.scanning {
			return m, nil
		}
		if it, ok := m.list.SelectedItem().(deviceItem); ok {
			m.selected = it.device
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Rescan):
		if m.scanning || m.probing {
			return m, nil
		}
		m.err = nil
		return m, tea.Batch(m.list.SetItems(nil), m.startScan())

	case key.Matches(msg, m.keys.Manual):
		m.manual = true
		m.ipInput.SetValue("")
		return m, m.ipInput.Focus()
	}

	var cmd tea.Cmd
	if !m.scanning {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m PickerModel) updateManual(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.manual = false
		m.ipInput.Blur()
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.ipInput.Value())
		addr, err := netip.ParseAddr(value)
		if err != nil || !addr.Is4() {
			m.err = fmt.Errorf("%q is not an IPv4 address", value)
			return m, nil
		}
		m.err = nil
		m.manual = false
		m.probing = true
		m.ipInput.Blur()
		return m, tea.Batch(m.probeCmd(addr.String()), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.ipInput, cmd = m.ipInput.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m PickerModel) View() string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case m.manual:
		b.WriteString(HeaderTitleStyle.Render("Controller IP address: "))
		b.WriteString(m.ipInput.View())
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString("\n  ")
			b.WriteString(ErrorMessageStyle.Render(m.err.Error()))
			b.WriteString("\n")
		}
		b.WriteString("\n  ")
		b.WriteString(m.help.View(bindings{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "probe")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}))

	case m.scanning:
		b.WriteString(m.renderScanning())
		b.WriteString("\n\n  ")
		b.WriteString(m.help.View(bindings{m.keys.Quit}))

	default:
		b.WriteString(m.renderResults())
		b.WriteString("\n  ")
		if len(m.list.Items()) > 0 {
			b.WriteString(m.help.View(m.keys))
		} else {
			b.WriteString(m.help.View(bindings{m.keys.Rescan, m.keys.Manual, m.keys.Quit}))
		}
	}

	b.WriteString("\n")
	return b.String()
}

func (m PickerModel) renderScanning() string {
	elapsed := time.Since(m.scanStart)
	frac := 1.0
	if m.window > 0 {
		frac = min(1, float64(elapsed)/float64(m.window))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		HeaderTitleStyle.Render(m.spinner.View()+" SEARCHING FOR CONTROLLERS"),
		"",
		HeaderCommandStyle.Render("Broadcasting a search on the local network..."),
		"",
		m.progress.ViewAs(frac),
	)
	return lipgloss.Place(m.width, 0, lipgloss.Center, lipgloss.Top, content)
}

func (m PickerModel) renderResults() string {
	var b strings.Builder

	if m.probing {
		b.WriteString("  ")
		b.WriteString(m.spinner.View())
		b.WriteString(StatusNoteStyle.Render(" probing..."))
		b.WriteString("\n\n")
	}

	if m.err != nil {
		b.WriteString("  ")
		b.WriteString(ErrorTitleStyle.Render(FailureMarker + "  " + m.err.Error()))
		b.WriteString("\n\n")
	}

	if len(m.list.Items()) == 0 {
		if m.err == nil && !m.probing {
			b.WriteString("  ")
			b.WriteString(WarningTitleStyle.Render(WarningMarker + "  No controllers answered the search"))
			b.WriteString("\n\n")
		}
		b.WriteString(TroubleshootingTitleStyle.Render("  Troubleshooting:"))
		b.WriteString("\n")
		for _, hint := range []string{
			"Ensure the fan is powered and joined to this network",
			"Broadcasts do not cross routers; press 'm' to enter the IP",
			"Press 'r' to scan again",
		} {
			b.WriteString(TroubleshootingItemStyle.Render("    • " + hint))
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString(m.list.View())
	b.WriteString("\n")
	return b.String()
}

// Selected returns the device the user chose, or nil if they quit.
func (m PickerModel) Selected() *discovery.Device {
	return m.selected
}

// RunPicker runs the picker and returns the chosen device. A nil device and
// nil error means the user quit without choosing.
func RunPicker(ctx context.Context, window time.Duration, scan ScanFunc, probe ProbeFunc, label func(*discovery.Device) string) (*discovery.Device, error) {
	p := tea.NewProgram(NewPickerModel(ctx, window, scan, probe, label), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, err
	}
	return final.(PickerModel).Selected(), nil
}
