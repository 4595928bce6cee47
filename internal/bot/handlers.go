package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/wordwise/internal/quiz"
	"github.com/example/wordwise/internal/service"
	"github.com/example/wordwise/pkg/models"
)

// Callback data prefixes
const (
	callbackAnswer = "ans_"
	callbackReview = "review_"
	callbackQuiz   = "quiz_"
	callbackRedo   = "redo"
	callbackStats  = "stats"
)

const helpText = `Commands:
/quiz [vocabulary|phrase] [mode] [count] - start a quiz (mode: en-zh, zh-en, mixed; count: a number or all)
/review [vocabulary|phrase] - practise the items you got wrong
/redo - repeat the wrong answers of your last quiz
/stats - show your progress
/text - switch between multiple choice and typed answers`

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		if update.Message.IsCommand() {
			b.handleCommand(ctx, update.Message)
		} else {
			b.handleText(ctx, update.Message)
		}
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID, userID := message.Chat.ID, message.From.ID
	b.state(userID, chatID)
	args := strings.Fields(message.CommandArguments())

	switch message.Command() {
	case "start":
		msg := tgbotapi.NewMessage(chatID, "Welcome to WordWise! 🎓\n\n"+helpText)
		msg.ReplyMarkup = createKeyboard(b.mainMenuButtons())
		b.sendMsg(msg)
	case "help":
		b.send(chatID, helpText)
	case "quiz":
		b.handleQuiz(ctx, userID, chatID, args)
	case "review":
		kind := b.config.DefaultKind
		if len(args) > 0 {
			k, err := models.ParseKind(args[0])
			if err != nil {
				b.send(chatID, err.Error())
				return
			}
			kind = k
		}
		b.startSession(ctx, userID, chatID, service.StartRequest{Kind: kind, Mode: b.config.DefaultMode, Count: quiz.AllItems, Review: true})
	case "redo":
		b.handleRedo(ctx, userID, chatID)
	case "stats":
		b.handleStats(ctx, userID, chatID)
	case "text":
		var freeText bool
		b.update(userID, func(st *chatState) {
			st.FreeText = !st.FreeText
			freeText = st.FreeText
		})
		if freeText {
			b.send(chatID, "✍️ Typed answers on. New quizzes ask you to type the answer.")
		} else {
			b.send(chatID, "🔘 Multiple choice on.")
		}
	default:
		b.send(chatID, "Unknown command. Use /help to see what I can do.")
	}
}

// parseQuizArgs reads [kind] [mode] [count] in any order
func (b *Bot) parseQuizArgs(args []string) (service.StartRequest, error) {
	req := service.StartRequest{
		Kind:  b.config.DefaultKind,
		Mode:  b.config.DefaultMode,
		Count: b.config.DefaultCount,
	}
	for _, arg := range args {
		if arg == "all" {
			req.Count = quiz.AllItems
			continue
		}
		if n, err := strconv.Atoi(arg); err == nil {
			if n <= 0 {
				return req, quiz.ErrInvalidCount
			}
			req.Count = n
			continue
		}
		if k, err := models.ParseKind(arg); err == nil {
			req.Kind = k
			continue
		}
		if m, err := models.ParseStudyMode(arg); err == nil {
			req.Mode = m
			continue
		}
		if d, err := models.ParseDifficultyMode(arg); err == nil {
			req.DifficultyMode = d
			continue
		}
		return req, fmt.Errorf("I don't understand %q", arg)
	}
	return req, nil
}

func (b *Bot) handleQuiz(ctx context.Context, userID, chatID int64, args []string) {
	req, err := b.parseQuizArgs(args)
	if err != nil {
		b.send(chatID, err.Error())
		return
	}
	b.startSession(ctx, userID, chatID, req)
}

func (b *Bot) startSession(ctx context.Context, userID, chatID int64, req service.StartRequest) {
	st := b.state(userID, chatID)
	b.mu.Lock()
	req.FreeText = st.FreeText
	b.mu.Unlock()

	sess, err := b.svc.Start(ctx, learnerID(userID), req)
	if err != nil {
		b.reportError(chatID, err)
		return
	}
	b.update(userID, func(st *chatState) { st.SessionID = sess.ID })

	label := "Quiz"
	if sess.Review {
		label = "Review"
	}
	b.send(chatID, fmt.Sprintf("%s started: %d question(s).", label, sess.TotalQuestions))
	b.askNext(ctx, userID, chatID, sess.ID)
}

func (b *Bot) handleRedo(ctx context.Context, userID, chatID int64) {
	var last string
	b.update(userID, func(st *chatState) { last = st.LastSession })
	if last == "" {
		b.send(chatID, "Finish a quiz first.")
		return
	}
	sess, err := b.svc.Redo(ctx, learnerID(userID), last)
	if err != nil {
		b.reportError(chatID, err)
		return
	}
	b.update(userID, func(st *chatState) { st.SessionID = sess.ID })
	b.send(chatID, fmt.Sprintf("Redo started: %d question(s).", sess.TotalQuestions))
	b.askNext(ctx, userID, chatID, sess.ID)
}

func (b *Bot) askNext(ctx context.Context, userID, chatID int64, sessionID string) {
	learner := learnerID(userID)
	q, err := b.svc.Next(ctx, learner, sessionID)
	if err != nil {
		b.reportError(chatID, err)
		return
	}
	sess, err := b.svc.Session(learner, sessionID)
	if err != nil {
		b.reportError(chatID, err)
		return
	}

	text := fmt.Sprintf("Question %d/%d\n\n%s", q.Index+1, sess.TotalQuestions, q.Prompt)
	if q.Item.PartOfSpeech != "" {
		text += " (" + q.Item.PartOfSpeech + ")"
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if len(q.Options) > 0 {
		rows := make([][]MenuButton, 0, len(q.Options))
		for i, opt := range q.Options {
			rows = append(rows, []MenuButton{{Text: opt, CallbackData: answerData(sessionID, q.Index, i)}})
		}
		msg.ReplyMarkup = createKeyboard(rows)
	} else {
		msg.Text += "\n\nType your answer."
	}
	b.sendMsg(msg)
}

// handleText treats plain text as an answer when a session is waiting for one
func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) {
	chatID, userID := message.Chat.ID, message.From.ID
	st := b.state(userID, chatID)
	b.mu.Lock()
	sessionID := st.SessionID
	b.mu.Unlock()

	if sessionID == "" {
		b.send(chatID, "Send /quiz to start practising or /help for all commands.")
		return
	}
	b.submit(ctx, userID, chatID, sessionID, message.Text)
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil || callback.From == nil {
		return
	}
	userID, chatID := callback.From.ID, callback.Message.Chat.ID
	if _, err := b.sender.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Debug("failed to answer callback", "error", err)
	}
	st := b.state(userID, chatID)

	switch {
	case strings.HasPrefix(callback.Data, callbackAnswer):
		tag, question, option, valid := parseAnswerData(callback.Data)
		if !valid {
			return
		}
		b.mu.Lock()
		sessionID := st.SessionID
		b.mu.Unlock()
		if sessionID == "" || sessionTag(sessionID) != tag {
			b.send(chatID, "This quiz is over. Send /quiz to start a new one.")
			return
		}
		q, err := b.svc.Next(ctx, learnerID(userID), sessionID)
		if err != nil {
			b.reportError(chatID, err)
			return
		}
		if q.Index != question {
			b.send(chatID, "That question was already answered.")
			return
		}
		if option < 0 || option >= len(q.Options) {
			return
		}
		b.submit(ctx, userID, chatID, sessionID, q.Options[option])
	case strings.HasPrefix(callback.Data, callbackReview):
		kind, err := models.ParseKind(strings.TrimPrefix(callback.Data, callbackReview))
		if err != nil {
			return
		}
		b.startSession(ctx, userID, chatID, service.StartRequest{Kind: kind, Mode: b.config.DefaultMode, Count: quiz.AllItems, Review: true})
	case strings.HasPrefix(callback.Data, callbackQuiz):
		b.handleQuiz(ctx, userID, chatID, []string{strings.TrimPrefix(callback.Data, callbackQuiz)})
	case callback.Data == callbackRedo:
		b.handleRedo(ctx, userID, chatID)
	case callback.Data == callbackStats:
		b.handleStats(ctx, userID, chatID)
	}
}

// answerData is the callback data of a choice: ans_<session tag>_<question index>_<option index>
func answerData(sessionID string, question, option int) string {
	return fmt.Sprintf("%s%s_%d_%d", callbackAnswer, sessionTag(sessionID), question, option)
}

func parseAnswerData(data string) (tag string, question, option int, ok bool) {
	parts := strings.Split(strings.TrimPrefix(data, callbackAnswer), "_")
	if len(parts) != 3 {
		return "", 0, 0, false
	}
	q, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, false
	}
	o, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, 0, false
	}
	return parts[0], q, o, true
}

// sessionTag shortens a session id to fit Telegram's 64-byte callback data
func sessionTag(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (b *Bot) submit(ctx context.Context, userID, chatID int64, sessionID, answer string) {
	rec, sess, err := b.svc.Answer(ctx, learnerID(userID), sessionID, answer)
	if rec == nil {
		b.reportError(chatID, err)
		return
	}

	if rec.IsCorrect {
		b.send(chatID, "✅ Correct!")
	} else {
		b.send(chatID, fmt.Sprintf("❌ Wrong. The answer is: %s", rec.CorrectAnswer))
	}
	if err != nil {
		b.reportError(chatID, err)
		return
	}

	if sess.State != quiz.StateCompleted {
		b.askNext(ctx, userID, chatID, sessionID)
		return
	}

	b.update(userID, func(st *chatState) {
		st.SessionID = ""
		st.LastSession = sessionID
	})
	sum, err := b.svc.Summary(learnerID(userID), sessionID)
	if err != nil {
		b.reportError(chatID, err)
		return
	}
	rows := b.mainMenuButtons()
	if sum.WrongCount > 0 {
		rows = append([][]MenuButton{{{Text: "🔄 Redo wrong answers", CallbackData: callbackRedo}}}, rows...)
	}
	msg := tgbotapi.NewMessage(chatID, formatSummary(sum))
	msg.ReplyMarkup = createKeyboard(rows)
	b.sendMsg(msg)
}

func formatSummary(sum quiz.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏁 Finished! %d/%d correct (%.0f%%)\n", sum.CorrectCount, sum.TotalQuestions, sum.Accuracy)
	if len(sum.WrongList) > 0 {
		sb.WriteString("\nTo practise:\n")
		for _, it := range sum.WrongList {
			fmt.Fprintf(&sb, "• %s - %s\n", it.Source, it.Target)
		}
		sb.WriteString("\nSend /redo to try them again.")
	}
	return sb.String()
}

func (b *Bot) handleStats(ctx context.Context, userID, chatID int64) {
	var sb strings.Builder
	sb.WriteString("📊 Your progress\n")
	for _, kind := range models.Kinds {
		o, err := b.svc.Overview(ctx, learnerID(userID), kind)
		if err != nil {
			b.reportError(chatID, err)
			return
		}
		fmt.Fprintf(&sb, "\n%s: studied %d of %d, %d to review\nsessions %d, average accuracy %.1f%%\n",
			kind, o.Studied, o.Total, o.Wrong, o.Aggregate.TotalSessions, o.Aggregate.AverageAccuracy)
	}
	b.send(chatID, sb.String())
}

func (b *Bot) reportError(chatID int64, err error) {
	var writeErr *quiz.StatsWriteError
	switch {
	case errors.Is(err, quiz.ErrEmptyPool):
		b.send(chatID, "Nothing to practise here yet.")
	case errors.Is(err, quiz.ErrInvalidCount):
		b.send(chatID, "The number of questions must be positive.")
	case errors.Is(err, quiz.ErrBlankAnswer):
		b.send(chatID, "Type an answer first.")
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, quiz.ErrSessionNotActive):
		b.send(chatID, "This quiz is over. Send /quiz to start a new one.")
	case errors.As(err, &writeErr):
		b.log.Error("statistics write failed", "chat", chatID, "error", err)
		b.send(chatID, "⚠️ Could not save your progress, please try again.")
	default:
		b.log.Error("bot request failed", "chat", chatID, "error", err)
		b.send(chatID, "Something went wrong, please try again.")
	}
}

func (b *Bot) mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📝 Vocabulary quiz", CallbackData: callbackQuiz + string(models.KindVocabulary)},
			{Text: "💬 Phrase quiz", CallbackData: callbackQuiz + string(models.KindPhrase)},
		},
		{
			{Text: "🔁 Review mistakes", CallbackData: callbackReview + string(b.config.DefaultKind)},
			{Text: "📊 Stats", CallbackData: callbackStats},
		},
	}
}
