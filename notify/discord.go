package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gamenight/events"

	"github.com/bwmarrin/discordgo"
)

const defaultAnnounceTimeout = 5 * time.Second

// webhookExecutor is the slice of *discordgo.Session used for announcements
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAnnouncer posts signup announcements to a Discord channel webhook
type DiscordAnnouncer struct {
	session   webhookExecutor
	webhookID string
	token     string
	timeout   time.Duration
}

// NewDiscordAnnouncer creates an announcer for a webhook URL of the form
// https://discord.com/api/webhooks/<id>/<token>
func NewDiscordAnnouncer(webhookURL string, timeout time.Duration) (*DiscordAnnouncer, error) {
	webhookID, token, err := ParseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}

	// Webhook execution is authorized by the token in the URL, not a bot token
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.ShouldRetryOnRateLimit = false

	return newDiscordAnnouncer(session, webhookID, token, timeout), nil
}

func newDiscordAnnouncer(session webhookExecutor, webhookID, token string, timeout time.Duration) *DiscordAnnouncer {
	if timeout <= 0 {
		timeout = defaultAnnounceTimeout
	}
	return &DiscordAnnouncer{
		session:   session,
		webhookID: webhookID,
		token:     token,
		timeout:   timeout,
	}
}

// AnnounceSignup posts a new-signup message. The call is bounded by the announcer's timeout.
func (a *DiscordAnnouncer) AnnounceSignup(ctx context.Context, event events.IdentityCreatedEvent) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	_, err := a.session.WebhookExecute(a.webhookID, a.token, false, signupMessage(event), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to post signup announcement: %w", err)
	}
	return nil
}

func signupMessage(event events.IdentityCreatedEvent) *discordgo.WebhookParams {
	embed := &discordgo.MessageEmbed{
		Title: "New signup!",
		Color: 0x57F287,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Name", Value: event.Name, Inline: true},
			{Name: "Email", Value: event.Email, Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if event.Avatar != nil && *event.Avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: *event.Avatar}
	}

	return &discordgo.WebhookParams{
		Content: fmt.Sprintf("🎉 **New signup!** %s", event.Name),
		Embeds:  []*discordgo.MessageEmbed{embed},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{},
		},
	}
}

// ParseWebhookURL extracts the webhook id and token from a Discord webhook URL
func ParseWebhookURL(webhookURL string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(webhookURL))
	if err != nil {
		return "", "", fmt.Errorf("invalid discord webhook URL: %w", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}

	return "", "", fmt.Errorf("invalid discord webhook URL: expected .../webhooks/<id>/<token>")
}
