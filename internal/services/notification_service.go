package services

import (
	"fmt"
	"regexp"
	"time"

	"github.com/containrrr/shoutrrr"

	"github.com/hirewire/warden/internal/logger"
)

// NotificationService fans critical alerts out to external channels via
// shoutrrr URLs (discord, slack, smtp, generic webhooks...). Delivery is
// fire-and-forget: a failed send is logged and never retried.
type NotificationService struct {
	urls []string
}

// NewNotificationService returns a sender for the configured shoutrrr URLs.
// An empty list yields a no-op sender.
func NewNotificationService(urls []string) *NotificationService {
	normalized := make([]string, 0, len(urls))
	for _, u := range urls {
		normalized = append(normalized, normalizeURL(u))
	}
	return &NotificationService{urls: normalized}
}

var discordWebhookRegex = regexp.MustCompile(`^https://discord(?:app)?\.com/api/webhooks/(\d+)/([a-zA-Z0-9_-]+)`)

// normalizeURL converts raw Discord webhook URLs into shoutrrr form; other
// URLs pass through unchanged.
func normalizeURL(rawURL string) string {
	matches := discordWebhookRegex.FindStringSubmatch(rawURL)
	if len(matches) == 3 {
		return fmt.Sprintf("discord://%s@%s", matches[2], matches[1])
	}
	return rawURL
}

// SendAlert delivers the alert to every configured channel in the
// background.
func (s *NotificationService) SendAlert(title, message string) {
	if len(s.urls) == 0 {
		return
	}

	body := fmt.Sprintf("[%s] %s\n%s", time.Now().Format(time.RFC3339), title, message)
	for _, u := range s.urls {
		go func(target string) {
			if err := shoutrrr.Send(target, body); err != nil {
				logger.WithFields(map[string]interface{}{
					"source": "notifications",
				}).WithError(err).Warn("failed to send alert notification")
			}
		}(u)
	}
}
