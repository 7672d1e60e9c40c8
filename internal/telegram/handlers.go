package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/suspectuso/numcheck-bot/internal/checker"
	"github.com/suspectuso/numcheck-bot/internal/i18n"
	"github.com/suspectuso/numcheck-bot/internal/lib/sl"
	"github.com/suspectuso/numcheck-bot/internal/notifier"
	"github.com/suspectuso/numcheck-bot/internal/session"
	"github.com/suspectuso/numcheck-bot/internal/storage"
)

// MaxFileSize is the largest file the Bot API lets a bot download.
const MaxFileSize = 20 << 20

var errFileTooLarge = errors.New("file too large")

// Sessions turns user input into replies.
type Sessions interface {
	HandleIntent(ctx context.Context, chatID int64, in session.Intent) ([]session.Reply, error)
	HandleText(ctx context.Context, chatID int64, text string) ([]session.Reply, error)
}

// Reporter provides the admin report.
type Reporter interface {
	Stats(ctx context.Context) (*storage.Stats, error)
}

// PollerCounter reports how many invoice pollers are running.
type PollerCounter interface {
	Pollers() int
}

// Bot wraps the telegram bot with handlers
type Bot struct {
	bot      *bot.Bot
	sessions Sessions
	stats    Reporter
	pollers  PollerCounter
	adminID  int64
	notify   *notifier.Notifier
	client   *http.Client
	log      *slog.Logger
}

// New creates a new telegram bot
func New(token string, adminID int64, sessions Sessions, stats Reporter, pollers PollerCounter, log *slog.Logger) (*Bot, error) {
	b := &Bot{
		sessions: sessions,
		stats:    stats,
		pollers:  pollers,
		adminID:  adminID,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log.With("component", "telegram"),
	}
	b.notify = notifier.New(b, log)

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, b.callbackHandler),
	}

	tgBot, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.bot = tgBot

	// Register command handlers
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, b.startHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start ", bot.MatchTypePrefix, b.startHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/admin", bot.MatchTypeExact, b.adminHandler)

	return b, nil
}

// Start starts the message sweeper and the bot polling. It blocks until ctx
// is done.
func (b *Bot) Start(ctx context.Context) {
	go b.notify.Start(ctx, time.Minute)
	b.bot.Start(ctx)
}

// Notify delivers replies that were not triggered by an update, such as
// invoice countdowns and settlements.
func (b *Bot) Notify(ctx context.Context, chatID int64, replies ...session.Reply) {
	b.notify.Notify(ctx, chatID, replies...)
}

// --- Handlers ---

func (b *Bot) startHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	replies, err := b.sessions.HandleIntent(ctx, from.ID, session.Start{})
	b.respond(ctx, from, replies, err)
}

func (b *Bot) adminHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	lang := fallbackLanguage(from)
	if b.adminID == 0 || from.ID != b.adminID {
		b.sendMessage(ctx, from.ID, i18n.T(lang, i18n.NotAllowed), nil)
		return
	}

	stats, err := b.stats.Stats(ctx)
	if err != nil {
		b.log.Error("load stats", sl.Err(err))
		b.sendMessage(ctx, from.ID, i18n.T(lang, i18n.GenericError), nil)
		return
	}

	text := i18n.T(lang, i18n.AdminStats, i18n.Args{
		"users":           stats.Users,
		"active_subs":     stats.ActiveSubscriptions,
		"history_active":  stats.HistoryActive,
		"history_expired": stats.HistoryExpired,
		"pending":         stats.PendingInvoices,
		"confirmed":       stats.ConfirmedInvoices,
		"pollers":         b.pollers.Pollers(),
	})
	b.sendMessage(ctx, from.ID, text, nil)
}

func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	var (
		replies []session.Reply
		err     error
	)

	switch {
	case msg.Document != nil:
		replies, err = b.handleDocument(ctx, msg)
	case len(msg.Photo) > 0:
		replies, err = b.handlePhoto(ctx, msg)
	case msg.Text != "":
		replies, err = b.sessions.HandleText(ctx, msg.From.ID, msg.Text)
	default:
		return
	}

	b.respond(ctx, msg.From, replies, err)
}

func (b *Bot) handleDocument(ctx context.Context, msg *models.Message) ([]session.Reply, error) {
	doc := msg.Document
	if int64(doc.FileSize) > MaxFileSize {
		return nil, &session.UserError{Key: i18n.InvalidInput, Lang: fallbackLanguage(msg.From)}
	}

	return b.sessions.HandleIntent(ctx, msg.From.ID, session.SubmitCheckInput{
		Source:   checker.SourceFile,
		FileName: doc.FileName,
		Fetch:    b.downloader(doc.FileID),
	})
}

func (b *Bot) handlePhoto(ctx context.Context, msg *models.Message) ([]session.Reply, error) {
	// sizes are ordered from smallest to largest
	photo := msg.Photo[len(msg.Photo)-1]

	return b.sessions.HandleIntent(ctx, msg.From.ID, session.SubmitCheckInput{
		Source: checker.SourceScreenshot,
		Fetch:  b.downloader(photo.FileID),
	})
}

func (b *Bot) callbackHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	cb := update.CallbackQuery
	data := cb.Data

	// Answer callback to remove loading state
	tgBot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	})

	switch data {
	case cbKeyHide:
		b.deleteCallbackMessage(ctx, cb)
		return
	case cbKeySaved:
		b.deleteCallbackMessage(ctx, cb)
	}

	if page, lang, ok := parseCurrencyPage(data); ok {
		b.showCurrencyPage(ctx, cb, page, lang)
		return
	}

	in, ok := parseCallback(data)
	if !ok {
		b.log.Warn("unknown callback", "data", data, "user_id", cb.From.ID)
		return
	}

	replies, err := b.sessions.HandleIntent(ctx, cb.From.ID, in)
	b.respond(ctx, &cb.From, replies, err)
}

func (b *Bot) showCurrencyPage(ctx context.Context, cb *models.CallbackQuery, page int, lang string) {
	if cb.Message.Message == nil {
		return
	}

	_, err := b.bot.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      cb.Message.Message.Chat.ID,
		MessageID:   cb.Message.Message.ID,
		ReplyMarkup: CurrencyKeyboard(lang, page),
	})
	if err != nil {
		b.log.Error("edit currency keyboard", sl.Err(err))
	}
}

func (b *Bot) deleteCallbackMessage(ctx context.Context, cb *models.CallbackQuery) {
	if cb.Message.Message == nil {
		return
	}
	chatID, messageID := cb.Message.Message.Chat.ID, cb.Message.Message.ID
	b.notify.Forget(chatID, messageID)
	if err := b.Delete(ctx, chatID, messageID); err != nil {
		b.log.Debug("delete message", "chat_id", chatID, sl.Err(err))
	}
}

// respond delivers replies and renders err. User errors are shown in the
// user's language; anything else is logged and reported generically.
func (b *Bot) respond(ctx context.Context, from *models.User, replies []session.Reply, err error) {
	b.notify.Deliver(ctx, from.ID, replies...)
	if err == nil {
		return
	}

	var uerr *session.UserError
	if errors.As(err, &uerr) {
		b.sendMessage(ctx, from.ID, uerr.Render(), errorKeyboard(uerr))
		return
	}

	b.log.Error("handle update", "user_id", from.ID, sl.Err(err))
	b.sendMessage(ctx, from.ID, i18n.T(fallbackLanguage(from), i18n.GenericError), nil)
}

// --- Messenger ---

// Send renders r as a new message.
func (b *Bot) Send(ctx context.Context, chatID int64, r session.Reply) (int, error) {
	if r.Kind == session.KindExport {
		msg, err := b.bot.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:    chatID,
			Document:  &models.InputFileUpload{Filename: r.FileName, Data: bytes.NewReader(r.Document)},
			Caption:   r.Render(),
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			return 0, fmt.Errorf("send document: %w", err)
		}
		return msg.ID, nil
	}

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      r.Render(),
		ParseMode: models.ParseModeHTML,
	}
	if keyboard := keyboardFor(r); keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	msg, err := b.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return msg.ID, nil
}

// Edit replaces the text and keyboard of a sent message.
func (b *Bot) Edit(ctx context.Context, chatID int64, messageID int, r session.Reply) error {
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      r.Render(),
		ParseMode: models.ParseModeHTML,
	}
	if keyboard := keyboardFor(r); keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	if _, err := b.bot.EditMessageText(ctx, params); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// Delete removes a message from a chat.
func (b *Bot) Delete(ctx context.Context, chatID int64, messageID int) error {
	if _, err := b.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID}); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// --- Helpers ---

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.SendMessage(ctx, params)
	if err != nil {
		b.log.Error("send message", "chat_id", chatID, sl.Err(err))
	}
}

// download fetches a file the user sent, retrying transient failures.
// downloader defers the download of fileID until the session asks for it.
func (b *Bot) downloader(fileID string) func(context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		return b.download(ctx, fileID)
	}
}

func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.bot.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	link := b.bot.FileDownloadLink(file)

	var data []byte
	op := func() error {
		data, err = fetch(ctx, b.client, link, MaxFileSize)
		if errors.Is(err, errFileTooLarge) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return data, nil
}

// fetch reads at most limit bytes from url.
func fetch(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errFileTooLarge
	}
	return data, nil
}

// fallbackLanguage guesses a language for messages rendered outside a session.
func fallbackLanguage(u *models.User) string {
	if u != nil && i18n.Supported(u.LanguageCode) {
		return u.LanguageCode
	}
	return i18n.Default
}
