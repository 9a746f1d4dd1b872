package api

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/abelzeko/water-feed/internal/repository"
)

type fakeReporter struct {
	sources   []string
	snapshots map[string]*repository.Snapshot
	err       error
}

func (f *fakeReporter) AvailableSources() ([]string, error) {
	return f.sources, f.err
}

func (f *fakeReporter) Latest(id string) (*repository.Snapshot, error) {
	if snap, ok := f.snapshots[id]; ok {
		return snap, nil
	}
	if id == "bull_shoals" {
		return nil, fmt.Errorf("%w: %s", repository.ErrNoSnapshot, id)
	}
	return nil, errors.New("unknown source")
}

func command(text string) *tgbotapi.Message {
	name := strings.SplitN(text, " ", 2)[0]
	return &tgbotapi.Message{
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func newTestBot(t *testing.T, r Reporter) *TelegramBot {
	return &TelegramBot{reporter: r, logger: zaptest.NewLogger(t).Sugar()}
}

func TestReplyCommands(t *testing.T) {
	reporter := &fakeReporter{
		sources: []string{"white_river", "beaver_lake"},
		snapshots: map[string]*repository.Snapshot{
			"beaver_lake": {
				SourceID:  "beaver_lake",
				Header:    []string{"Date", "Time", "Elevation"},
				Rows:      [][]string{{"02JAN2024", "0100", "651.20"}},
				UpdatedAt: time.Date(2024, 1, 2, 1, 5, 0, 0, time.UTC),
			},
		},
	}
	bot := newTestBot(t, reporter)

	assert.Contains(t, bot.Reply(command("/start")), "Welcome")
	assert.Contains(t, bot.Reply(command("/help")), "/latest [source]")
	assert.Contains(t, bot.Reply(command("/sources")), "• beaver_lake")
	assert.Contains(t, bot.Reply(command("/latest beaver_lake")), "Elevation: 651.20")
	assert.Contains(t, bot.Reply(command("/latest")), "Please specify a source")
	assert.Contains(t, bot.Reply(command("/latest bull_shoals")), "No data collected yet")
	assert.Contains(t, bot.Reply(command("/latest nowhere")), "No information found")
	assert.Contains(t, bot.Reply(command("/weather")), "Unknown command")
}

func TestReplyPlainText(t *testing.T) {
	reporter := &fakeReporter{snapshots: map[string]*repository.Snapshot{
		"beaver_lake": {SourceID: "beaver_lake", Header: []string{"Date", "Time"}, Rows: [][]string{{"02JAN2024", "0100"}}},
	}}
	bot := newTestBot(t, reporter)

	assert.Contains(t, bot.Reply(&tgbotapi.Message{Text: "Beaver_Lake"}), "Latest readings for beaver_lake")
	assert.Contains(t, bot.Reply(&tgbotapi.Message{Text: "  "}), "I don't understand")
}

func TestReplySourcesErrors(t *testing.T) {
	bot := newTestBot(t, &fakeReporter{err: errors.New("disk gone")})
	assert.Contains(t, bot.Reply(command("/sources")), "Error fetching")

	bot = newTestBot(t, &fakeReporter{})
	assert.Equal(t, "No data has been collected yet.", bot.Reply(command("/sources")))
}
