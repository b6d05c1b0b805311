package ui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // green, success, approvals
	ColorWarning   = lipgloss.Color("#FFB800") // yellow, outgoing value, warnings
	ColorError     = lipgloss.Color("#FF4444") // red, errors, destructive prompts
	ColorAddress   = lipgloss.Color("#1FC5C9") // ICON teal, addresses, hashes
	ColorValue     = lipgloss.Color("#FFFFFF") // white bold, amounts
	ColorMeta      = lipgloss.Color("#666666") // dim gray, timestamps, metadata
	ColorBorder    = lipgloss.Color("#1E3A5F") // dark blue, UI chrome
	ColorNetwork   = lipgloss.Color("#9B5DE5") // purple, network names
	ColorHighlight = lipgloss.Color("#F15BB5") // pink, selected rows
	ColorInfo      = lipgloss.Color("#4EA8DE") // blue, informational notes
)

// Base styles.
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleNetwork = lipgloss.NewStyle().Foreground(ColorNetwork).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleDanger = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(ColorError).
			Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorNetwork).
			Bold(true).
			MarginBottom(1)
)

// Banner returns the CLI banner shown by the bare command.
func Banner(version string) string {
	art := `
  ██╗ ██████╗ ██████╗ ███╗   ██╗
  ██║██╔════╝██╔═══██╗████╗  ██║
  ██║██║     ██║   ██║██╔██╗ ██║
  ██║██║     ██║   ██║██║╚██╗██║
  ██║╚██████╗╚██████╔╝██║ ╚████║
  ╚═╝ ╚═════╝ ╚═════╝ ╚═╝  ╚═══╝`

	tagline := StyleMeta.Render("     ICON wallet and protocol CLI  v" + version)
	return StyleNetwork.Render(art) + "\n" + tagline + "\n"
}

// Success formats a success message.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats an error message.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Info formats an informational note.
func Info(msg string) string { return StyleInfo.Render("ℹ " + msg) }

// Hint formats a suggestion for what to run next.
func Hint(msg string) string { return StyleMeta.Render("💡 " + msg) }

// Addr formats an address.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats a value.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats metadata text.
func Meta(m string) string { return StyleMeta.Render(m) }

// NetworkName formats a network name.
func NetworkName(n string) string { return StyleNetwork.Render(n) }

// DangerBox frames content that describes an irreversible action.
func DangerBox(content string) string { return StyleDanger.Render(content) }

// TruncateAddr shortens an address for display, hx1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
