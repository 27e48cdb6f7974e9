package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/yourusername/osz-extract-go/internal/domain"
	"go.uber.org/zap"
)

// NotificationService handles sending notifications
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	switch n.config.Method {
	case "osascript":
		return n.sendOSAScript(title, message)
	case "notify-send":
		return n.sendNotifySend(title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}
}

// sendOSAScript sends notification using macOS osascript
func (n *NotificationService) sendOSAScript(title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(message), escapeAppleScript(title))
	cmd := exec.Command("osascript", "-e", script)

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "osascript"),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))

	return nil
}

// sendNotifySend sends notification using Linux notify-send
func (n *NotificationService) sendNotifySend(title, message string) error {
	cmd := exec.Command("notify-send", title, message)

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "notify-send"),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))

	return nil
}

// NotifyAcquireCompleted sends notification when a beatmapset was added to the library
func (n *NotificationService) NotifyAcquireCompleted(contentID int, title string, tracks int) {
	message := fmt.Sprintf("Added %d track(s): %s (#%d)", tracks, truncateString(title, 40), contentID)
	n.Send("Beatmap Added", message)
}

// NotifyAcquireFailed sends notification when an acquisition fails
func (n *NotificationService) NotifyAcquireFailed(contentID int, title string, err error) {
	message := fmt.Sprintf("Failed: %s (#%d): %s", truncateString(title, 40), contentID, truncateString(err.Error(), 80))
	n.Send("Beatmap Download Failed", message)
}

// escapeAppleScript quotes remote text for use inside an AppleScript string literal
func escapeAppleScript(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// truncateString truncates a string to the specified length without splitting a rune
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return truncateBytes(s, maxLen) + "..."
}
