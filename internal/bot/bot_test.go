package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordwise/internal/corpus"
	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/internal/service"
	"github.com/example/wordwise/pkg/models"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func (f *fakeSender) texts() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var parts []string
	for _, m := range f.sent {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n---\n")
}

const (
	userID = int64(42)
	chatID = int64(7)
)

func newBot(t *testing.T) (*Bot, *fakeSender) {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	items := corpus.NewMemory(
		models.Item{Kind: models.KindVocabulary, Source: "apple", Target: "苹果", PartOfSpeech: "n.", Level: models.LevelA1},
		models.Item{Kind: models.KindVocabulary, Source: "river", Target: "河", PartOfSpeech: "n.", Level: models.LevelA2},
		models.Item{Kind: models.KindVocabulary, Source: "novel", Target: "小说", PartOfSpeech: "n.", Level: models.LevelB1},
		models.Item{Kind: models.KindVocabulary, Source: "quick", Target: "快的", PartOfSpeech: "adj.", Level: models.LevelA2},
	)
	svc := service.New(items, db, service.Config{Logger: log})

	cfg := DefaultConfig("test-token")
	cfg.DefaultMode = models.StudySourceToTarget
	b, err := New(svc, cfg, log)
	require.NoError(t, err)
	fake := &fakeSender{}
	b.sender = fake
	return b, fake
}

func command(text string) tgbotapi.Update {
	name := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: userID},
		Chat:     &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func text(s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: s,
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: chatID},
	}}
}

func callback(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}

func (b *Bot) currentSession() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.states[userID].SessionID
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(nil, Config{}, nil)
	assert.Error(t, err)
}

func TestQuizWithButtons(t *testing.T) {
	ctx := context.Background()
	b, fake := newBot(t)

	b.handleUpdate(ctx, command("/quiz vocabulary 1"))
	sessionID := b.currentSession()
	require.NotEmpty(t, sessionID)

	msg := fake.last()
	require.True(t, strings.HasPrefix(msg.Text, "Question 1/1"))
	keyboard, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, keyboard.InlineKeyboard, 4)

	q, err := b.svc.Next(ctx, "42", sessionID)
	require.NoError(t, err)
	correct := ""
	for _, row := range keyboard.InlineKeyboard {
		if row[0].Text == q.Item.Target {
			correct = *row[0].CallbackData
		}
	}
	require.NotEmpty(t, correct)
	assert.True(t, strings.HasPrefix(correct, "ans_"+sessionID[:8]+"_0_"))

	b.handleUpdate(ctx, callback(correct))
	assert.Contains(t, fake.texts(), "✅ Correct!")
	assert.Contains(t, fake.last().Text, "Finished! 1/1 correct")
	assert.Empty(t, b.currentSession())
}

func TestStaleKeyboardIsIgnored(t *testing.T) {
	ctx := context.Background()
	b, fake := newBot(t)

	b.handleUpdate(ctx, command("/quiz vocabulary 2"))
	sessionID := b.currentSession()
	require.NotEmpty(t, sessionID)
	keyboard, ok := fake.last().ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	first := *keyboard.InlineKeyboard[0][0].CallbackData

	b.handleUpdate(ctx, callback(first))
	sess, err := b.svc.Session("42", sessionID)
	require.NoError(t, err)
	require.Equal(t, 1, sess.CurrentIndex)

	b.handleUpdate(ctx, callback(first))
	assert.Equal(t, "That question was already answered.", fake.last().Text)
	sess, err = b.svc.Session("42", sessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.CurrentIndex)

	b.handleUpdate(ctx, callback("ans_deadbeef_1_0"))
	assert.Contains(t, fake.last().Text, "This quiz is over")
	sess, err = b.svc.Session("42", sessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.CurrentIndex)
}

func TestParseAnswerData(t *testing.T) {
	tag, q, o, ok := parseAnswerData(answerData("0123456789abcdef", 3, 2))
	require.True(t, ok)
	assert.Equal(t, "01234567", tag)
	assert.Equal(t, 3, q)
	assert.Equal(t, 2, o)

	for _, bad := range []string{"ans_", "ans_1", "ans_tag_x_1", "ans_tag_1_y", "ans_a_1_2_3"} {
		_, _, _, ok := parseAnswerData(bad)
		assert.False(t, ok, bad)
	}
}

func TestTypedAnswersAndRedo(t *testing.T) {
	ctx := context.Background()
	b, fake := newBot(t)

	b.handleUpdate(ctx, command("/text"))
	assert.Contains(t, fake.last().Text, "Typed answers on")

	b.handleUpdate(ctx, command("/quiz 1"))
	assert.Contains(t, fake.last().Text, "Type your answer")

	b.handleUpdate(ctx, text("definitely wrong"))
	assert.Contains(t, fake.texts(), "❌ Wrong. The answer is:")
	assert.Contains(t, fake.last().Text, "Send /redo")

	b.handleUpdate(ctx, command("/redo"))
	assert.Contains(t, fake.texts(), "Redo started: 1 question(s).")
	assert.NotEmpty(t, b.currentSession())

	b.handleUpdate(ctx, command("/stats"))
	assert.Contains(t, fake.last().Text, "vocabulary: studied 1 of 4, 1 to review")
}

func TestReviewWithoutMistakes(t *testing.T) {
	b, fake := newBot(t)
	b.handleUpdate(context.Background(), command("/review"))
	assert.Equal(t, "Nothing to practise here yet.", fake.last().Text)
}

func TestParseQuizArgs(t *testing.T) {
	b, _ := newBot(t)

	req, err := b.parseQuizArgs([]string{"phrase", "all", "zh-en"})
	require.NoError(t, err)
	assert.Equal(t, models.KindPhrase, req.Kind)
	assert.Equal(t, -1, req.Count)
	assert.Equal(t, models.StudyTargetToSource, req.Mode)

	req, err = b.parseQuizArgs([]string{"hell"})
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyHell, req.DifficultyMode)

	_, err = b.parseQuizArgs([]string{"0"})
	assert.Error(t, err)
	_, err = b.parseQuizArgs([]string{"banana"})
	assert.Error(t, err)
}

func TestSendReminder(t *testing.T) {
	b, fake := newBot(t)

	require.NoError(t, b.SendReminder("42", models.KindPhrase, 3))
	msg := fake.last()
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "3 phrase item(s)")

	assert.Error(t, b.SendReminder("default", models.KindPhrase, 3))
}
