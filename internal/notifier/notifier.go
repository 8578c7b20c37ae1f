package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"backend/internal/config"
	"backend/internal/service"
)

// Bot pushes alert notifications to a Telegram chat and lets analysts
// acknowledge them inline. Nil when alerts are disabled; every method is
// nil-safe so the wiring does not need to branch.
type Bot struct {
	api        *tgbotapi.BotAPI
	logger     *zap.Logger
	aggregator *service.Aggregator
	cfg        config.AlertsConfig
}

// NewBot creates the alert bot, or returns nil when alerting is disabled.
func NewBot(cfg config.AlertsConfig, aggregator *service.Aggregator, logger *zap.Logger) (*Bot, error) {
	if !cfg.Enabled || cfg.TelegramBotToken == "" {
		logger.Info("Alert bot is disabled (alerts.enabled=false or token is empty)")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Alert bot authorized", zap.String("username", botAPI.Self.UserName))

	return &Bot{
		api:        botAPI,
		logger:     logger,
		aggregator: aggregator,
		cfg:        cfg,
	}, nil
}

// HandleEvent implements service.EventHandler. Only AlertRaised events reach
// the chat.
func (b *Bot) HandleEvent(event any) error {
	if b == nil {
		return nil
	}
	alert, ok := event.(service.AlertRaised)
	if !ok {
		return nil
	}
	return b.sendAlert(alert)
}

func (b *Bot) sendAlert(alert service.AlertRaised) error {
	d := alert.Detection

	var sb strings.Builder
	switch alert.AlertType {
	case "escalation":
		sb.WriteString("🚨 Detection escalated\n")
	default:
		sb.WriteString("⚠️ Critical detection\n")
	}
	fmt.Fprintf(&sb, "ID: %d\n", d.ID)
	fmt.Fprintf(&sb, "Severity: %s\n", d.SeverityLevel)
	fmt.Fprintf(&sb, "Confidence: %.2f\n", d.ConfidenceScore)
	if d.DetectedKeywords != "" {
		fmt.Fprintf(&sb, "Keywords: %s\n", d.DetectedKeywords)
	}
	if d.AuthorUsername != "" {
		fmt.Fprintf(&sb, "Author: %s\n", d.AuthorUsername)
	}
	fmt.Fprintf(&sb, "Content: %s", truncate(d.ContentText, 200))

	msg := tgbotapi.NewMessage(b.cfg.ChatID, sb.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Acknowledge",
				fmt.Sprintf("ack:%s:%d", alert.AlertType, d.ID)),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send alert message: %w", err)
	}
	return nil
}

// Start listens for chat updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b == nil {
		return nil
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Alert bot started, waiting for updates...")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Alert bot shutting down...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			if update.CallbackQuery != nil {
				b.handleCallbackQuery(update.CallbackQuery)
			} else if update.Message != nil {
				b.handleMessage(update.Message)
			}
		}
	}
}

// handleCallbackQuery processes the inline Acknowledge button.
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	b.logger.Info("Received callback query",
		zap.String("data", query.Data),
		zap.Int64("user_id", query.From.ID))

	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Error("Failed to send callback response", zap.Error(err))
	}

	// Callback data: "ack:<alert_type>:<detection_id>"
	parts := strings.SplitN(query.Data, ":", 3)
	if len(parts) != 3 || parts[0] != "ack" {
		b.logger.Error("Failed to parse callback data", zap.String("data", query.Data))
		b.sendMessage(query.Message.Chat.ID, "Could not process this action")
		return
	}
	alertType := parts[1]
	detectionID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		b.logger.Error("Failed to parse detection ID", zap.String("id", parts[2]), zap.Error(err))
		b.sendMessage(query.Message.Chat.ID, "Could not process this action")
		return
	}

	if err := b.aggregator.AcknowledgeAlert(alertType); err != nil {
		b.logger.Error("Failed to record acknowledgment", zap.Error(err))
		b.sendMessage(query.Message.Chat.ID, "Failed to record acknowledgment")
		return
	}

	b.sendMessage(query.Message.Chat.ID,
		fmt.Sprintf("✅ Alert for detection %d acknowledged by %s", detectionID, query.From.UserName))
}

// handleMessage processes chat commands. Supported: /ack <type>.
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if !message.IsCommand() {
		return
	}

	switch message.Command() {
	case "ack":
		alertType := strings.TrimSpace(message.CommandArguments())
		if alertType == "" {
			b.sendMessage(message.Chat.ID, "Usage: /ack <alert_type>")
			return
		}
		if err := b.aggregator.AcknowledgeAlert(alertType); err != nil {
			b.logger.Error("Failed to record acknowledgment", zap.Error(err))
			b.sendMessage(message.Chat.ID, "Failed to record acknowledgment")
			return
		}
		b.sendMessage(message.Chat.ID, fmt.Sprintf("✅ %s alert acknowledged", alertType))
	case "status":
		b.sendStatus(message.Chat.ID)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Supported: /ack, /status")
	}
}

func (b *Bot) sendStatus(chatID int64) {
	metrics, err := b.aggregator.AlertMetrics()
	if err != nil {
		b.logger.Error("Failed to load alert metrics", zap.Error(err))
		b.sendMessage(chatID, "Failed to load alert metrics")
		return
	}
	if len(metrics) == 0 {
		b.sendMessage(chatID, "No alerts today")
		return
	}

	var sb strings.Builder
	sb.WriteString("Today's alerts:\n")
	for _, m := range metrics {
		fmt.Fprintf(&sb, "%s: %d sent, %.0f%% acknowledged, %.0f%% resolved\n",
			m.AlertType, m.TotalAlerts, m.AcknowledgmentRate(), m.ResolutionRate())
	}
	b.sendMessage(chatID, sb.String())
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send Telegram message", zap.Error(err))
	}
}

// truncate shortens s to at most n runes so multi-byte text is never cut
// mid-character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
