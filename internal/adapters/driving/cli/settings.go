package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

// stdin is the source of interactive answers. Replaced in tests.
var stdin io.Reader = os.Stdin

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure fetch pacing, caching, background refresh and
notification settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsNotificationsCmd = &cobra.Command{
	Use:       "notifications <on|off>",
	Short:     "Turn new citation notifications on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runSettingsNotifications,
}

var settingsChannelCmd = &cobra.Command{
	Use:   "channel <log|email>",
	Short: "Choose how notifications are delivered",
	Long: `Choose how notifications are delivered.

Available channels:
  log   - Print to the terminal running citetrack watch
  email - Send an email per new citation (run 'citetrack settings email' first)`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"log", "email"},
	RunE:      runSettingsChannel,
}

var settingsEmailCmd = &cobra.Command{
	Use:   "email",
	Short: "Configure the SMTP server for email notifications",
	Long:  `Interactively configure the SMTP server, sender and recipients.`,
	RunE:  runSettingsEmail,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsNotificationsCmd)
	settingsCmd.AddCommand(settingsChannelCmd)
	settingsCmd.AddCommand(settingsEmailCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Fetch]")
	cmd.Printf("  Base URL: %s\n", settings.Fetch.BaseURL)
	cmd.Printf("  Delay between tasks: %s - %s\n", settings.Fetch.MinDelay, settings.Fetch.MaxDelay)
	cmd.Printf("  Request interval: %s\n", settings.Fetch.RequestInterval)
	cmd.Printf("  Timeouts: %s request, %s resource\n", settings.Fetch.RequestTimeout, settings.Fetch.ResourceTimeout)
	cmd.Printf("  Pages per sort: %d\n", settings.Fetch.PagesPerSort)
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  Backend: %s\n", settings.Cache.Backend)
	cmd.Printf("  TTL: %s\n", settings.Cache.TTL)
	dir := settings.Cache.Dir
	if dir == "" {
		dir = "(default)"
	}
	cmd.Printf("  Directory: %s\n", dir)
	if settings.Cache.HistoryLimit > 0 {
		cmd.Printf("  History limit: %d snapshots\n", settings.Cache.HistoryLimit)
	} else {
		cmd.Printf("  History limit: unlimited\n")
	}
	cmd.Println()

	cmd.Println("[Scheduler]")
	cmd.Printf("  Enabled: %s\n", yesNo(settings.Scheduler.Enabled))
	cmd.Printf("  Refresh every: %s\n", settings.Scheduler.RefreshInterval)
	cmd.Printf("  Compact every: %s\n", settings.Scheduler.CompactInterval)
	cmd.Printf("  Tracked scholars: %d\n", len(settings.Scholars))
	cmd.Println()

	cmd.Println("[Notifications]")
	cmd.Printf("  Enabled: %s\n", yesNo(settings.Notifications.Enabled))
	cmd.Printf("  Channel: %s\n", settings.Notifications.Channel)
	if settings.Notifications.Channel == domain.NotificationChannelEmail {
		smtp := settings.Notifications.SMTP
		cmd.Printf("  SMTP server: %s:%d\n", smtp.Server, smtp.Port)
		cmd.Printf("  From: %s\n", smtp.From)
		cmd.Printf("  To: %s\n", strings.Join(smtp.To, ", "))
		if smtp.Password != "" {
			cmd.Printf("  Password: %s\n", maskSecret(smtp.Password))
		}
		if !smtp.IsConfigured() {
			cmd.Println("  Status: not configured")
		}
	}
	cmd.Println()

	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsNotifications(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var enabled bool
	switch strings.ToLower(args[0]) {
	case "on", "true", "yes":
		enabled = true
	case "off", "false", "no":
	default:
		return fmt.Errorf("expected on or off, got %q", args[0])
	}

	if err := settingsService.SetNotificationsEnabled(enabled); err != nil {
		return fmt.Errorf("failed to update notifications: %w", err)
	}
	cmd.Printf("Notifications %s.\n", map[bool]string{true: "enabled", false: "disabled"}[enabled])
	return nil
}

func runSettingsChannel(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	channel := domain.NotificationChannel(strings.ToLower(args[0]))
	if !channel.IsValid() {
		return fmt.Errorf("unknown channel %q", args[0])
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if channel == domain.NotificationChannelEmail && !settings.Notifications.SMTP.IsConfigured() {
		return errors.New("email delivery needs an SMTP server: run 'citetrack settings email' first")
	}

	settings.Notifications.Channel = channel
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Notification channel set to: %s\n", channel)
	return nil
}

func runSettingsEmail(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	smtp := settings.Notifications.SMTP
	reader := bufio.NewReader(stdin)

	cmd.Println("Configure Email Notifications")
	cmd.Println("-----------------------------")
	smtp.Server = prompt(cmd, reader, "SMTP server", smtp.Server)
	port := prompt(cmd, reader, "SMTP port", strconv.Itoa(smtp.Port))
	if smtp.Port, err = strconv.Atoi(port); err != nil || smtp.Port <= 0 {
		return fmt.Errorf("invalid port %q", port)
	}
	smtp.Username = prompt(cmd, reader, "Username", smtp.Username)
	cmd.Print("Password (leave empty to keep): ")
	smtp.Password = readPassword(reader)
	cmd.Println()
	smtp.From = prompt(cmd, reader, "From address", smtp.From)
	to := prompt(cmd, reader, "To addresses (comma separated)", strings.Join(smtp.To, ", "))
	smtp.To = splitList(to)

	if !smtp.IsConfigured() {
		return errors.New("server, port, from and at least one recipient are required")
	}

	settings.Notifications.SMTP = smtp
	settings.Notifications.Channel = domain.NotificationChannelEmail
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Email notifications configured: %s:%d -> %s\n", smtp.Server, smtp.Port, strings.Join(smtp.To, ", "))
	return nil
}

// Helper functions.

func prompt(cmd *cobra.Command, reader *bufio.Reader, label, current string) string {
	if current != "" {
		cmd.Printf("%s [%s]: ", label, current)
	} else {
		cmd.Printf("%s: ", label)
	}
	if input := readLine(reader); input != "" {
		return input
	}
	return current
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// readPassword reads without echo on a terminal and falls back to a plain
// line otherwise.
func readPassword(reader *bufio.Reader) string {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:2] + "..." + secret[len(secret)-2:]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
