// Package bot runs quiz sessions over Telegram.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/wordwise/internal/service"
	"github.com/example/wordwise/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// sender is the part of tgbotapi.BotAPI the bot talks through
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// chatState is what the bot remembers about one Telegram user
type chatState struct {
	ChatID      int64
	SessionID   string
	LastSession string
	FreeText    bool
}

// Bot represents the Telegram bot application
type Bot struct {
	api    *tgbotapi.BotAPI
	sender sender
	svc    *service.Service
	config Config
	log    *slog.Logger

	mu     sync.Mutex
	states map[int64]*chatState
}

// New creates a bot; it connects to Telegram in Start
func New(svc *service.Service, config Config, log *slog.Logger) (*Bot, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bot{
		svc:    svc,
		config: config,
		log:    log.With("component", "bot"),
		states: make(map[int64]*chatState),
	}, nil
}

// Start connects and handles updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	botAPI, err := tgbotapi.NewBotAPI(b.config.Token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	b.api = botAPI
	b.sender = botAPI
	b.log.Info("authorized on account", "username", botAPI.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// SendReminder implements scheduler.Notifier. Learners created outside Telegram have
// non-numeric ids and cannot be reached.
func (b *Bot) SendReminder(learnerID string, kind models.Kind, count int) error {
	if b.sender == nil {
		return fmt.Errorf("bot is not connected")
	}
	chatID, err := strconv.ParseInt(learnerID, 10, 64)
	if err != nil {
		return fmt.Errorf("learner %q is not a telegram user", learnerID)
	}

	text := fmt.Sprintf("📚 You have %d %s item(s) to review. Send /review %s to practise them.", count, kind, kind)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "Review now", CallbackData: "review_" + string(kind)}}})
	_, err = b.sender.Send(msg)
	return err
}

func (b *Bot) state(userID, chatID int64) *chatState {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.states[userID]
	if !ok {
		st = &chatState{}
		b.states[userID] = st
	}
	st.ChatID = chatID
	return st
}

func (b *Bot) update(userID int64, fn func(*chatState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.states[userID]; ok {
		fn(st)
	}
}

func (b *Bot) send(chatID int64, text string) {
	b.sendMsg(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendMsg(msg tgbotapi.MessageConfig) {
	if _, err := b.sender.Send(msg); err != nil {
		b.log.Warn("failed to send message", "chat", msg.ChatID, "error", err)
	}
}

func learnerID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
