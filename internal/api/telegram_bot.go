// Package api provides handlers for external APIs and interfaces
package api

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/abelzeko/water-feed/internal/log"
	"github.com/abelzeko/water-feed/internal/repository"
	"github.com/abelzeko/water-feed/internal/usecases"
)

const latestRows = 3

// Reporter is what the bot needs to answer questions
type Reporter interface {
	AvailableSources() ([]string, error)
	Latest(sourceID string) (*repository.Snapshot, error)
}

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot      *tgbotapi.BotAPI
	reporter Reporter
	logger   *zap.SugaredLogger
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(botToken string, reporter Reporter, logger *zap.SugaredLogger) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &TelegramBot{
		bot:      bot,
		reporter: reporter,
		logger:   log.OrNop(logger),
	}, nil
}

// Start begins listening for and handling Telegram messages
func (t *TelegramBot) Start() {
	t.logger.Infof("Authorized on Telegram account %s", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	t.logger.Info("Bot is now listening for messages...")

	for update := range updates {
		if update.Message == nil {
			continue
		}

		t.logger.Infof("Received message from %s (ID: %d): %s",
			update.Message.From.UserName,
			update.Message.From.ID,
			update.Message.Text)

		msg := tgbotapi.NewMessage(update.Message.Chat.ID, t.Reply(update.Message))
		if _, err := t.bot.Send(msg); err != nil {
			t.logger.Errorf("Error sending message: %v", err)
		}
	}
}

// Reply builds the answer to a message
func (t *TelegramBot) Reply(message *tgbotapi.Message) string {
	if !message.IsCommand() {
		return t.handleNonCommand(message.Text)
	}

	switch message.Command() {
	case "start":
		return "Welcome! Use /sources to see the monitored locations or /help for more information."
	case "help":
		return "Available commands:\n" +
			"/start - Start the bot\n" +
			"/sources - Show the monitored locations\n" +
			"/latest [source] - Show the latest readings for a location\n" +
			"/help - Show this help message"
	case "sources":
		return t.handleSources()
	case "latest":
		return t.handleLatest(strings.TrimSpace(message.CommandArguments()))
	default:
		t.logger.Infof("Received unknown command /%s", message.Command())
		return "Unknown command. Use /help to see available commands."
	}
}

// handleSources processes the /sources command
func (t *TelegramBot) handleSources() string {
	sources, err := t.reporter.AvailableSources()
	if err != nil {
		t.logger.Errorf("Error listing sources: %v", err)
		return "Error fetching the list of sources. Please try again later."
	}
	if len(sources) == 0 {
		return "No data has been collected yet."
	}

	var b strings.Builder
	b.WriteString("Available sources:\n\n")
	for _, id := range sources {
		b.WriteString("• " + id + "\n")
	}
	b.WriteString("\nUse /latest [source] to get the latest readings.")
	return b.String()
}

// handleLatest processes the /latest [source] command
func (t *TelegramBot) handleLatest(sourceID string) string {
	if sourceID == "" {
		return "Please specify a source. Example: /latest beaver_lake"
	}

	snap, err := t.reporter.Latest(sourceID)
	if errors.Is(err, repository.ErrNoSnapshot) {
		return fmt.Sprintf("No data collected yet for '%s'.", sourceID)
	}
	if err != nil {
		t.logger.Warnf("Error loading snapshot for %s: %v", sourceID, err)
		return fmt.Sprintf("No information found for '%s'. Use /sources to see the available sources.", sourceID)
	}
	return usecases.FormatSnapshot(snap, latestRows)
}

// handleNonCommand treats plain text as a source name
func (t *TelegramBot) handleNonCommand(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "I don't understand. Use /help to see available commands."
	}
	return t.handleLatest(strings.ToLower(text))
}
