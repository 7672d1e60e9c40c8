package session

import (
	"errors"
	"time"

	"github.com/suspectuso/numcheck-bot/internal/account"
	"github.com/suspectuso/numcheck-bot/internal/i18n"
	"github.com/suspectuso/numcheck-bot/internal/storage"
)

// How long transient messages stay in the chat.
const (
	PromptTTL = 5 * time.Minute
	SecretTTL = 2 * time.Minute
	ResultTTL = 24 * time.Hour
)

// ReplyKind selects how the conversational layer renders a reply.
type ReplyKind int

const (
	KindNotice ReplyKind = iota
	KindHome
	KindLanguageMenu
	KindSecretKey
	KindPrompt
	KindDepositPrompt
	KindCurrencyMenu
	KindInvoice
	KindCountdown
	KindCheckMenu
	KindCheckResult
	KindExport
	KindPlans
)

// Reply is one message to show the user. Text is an i18n key filled with Args
// in Lang. A non-zero TTL asks for the message to be deleted after it.
type Reply struct {
	Kind ReplyKind
	Lang string
	Text i18n.Key
	Args i18n.Args
	TTL  time.Duration

	Invoice  *storage.Invoice
	Plans    []account.Plan
	Document []byte
	FileName string
}

// Render returns the reply's text.
func (r Reply) Render() string {
	if r.Args == nil {
		return i18n.T(r.Lang, r.Text)
	}
	return i18n.T(r.Lang, r.Text, r.Args)
}

// UserError is a recoverable rejection shown to the user. The session state
// is unchanged when it is returned.
type UserError struct {
	Key  i18n.Key
	Args i18n.Args
	Lang string
}

func (e *UserError) Error() string {
	return "session: " + string(e.Key)
}

// Render returns the error's text in the user's language.
func (e *UserError) Render() string {
	if e.Args == nil {
		return i18n.T(e.Lang, e.Key)
	}
	return i18n.T(e.Lang, e.Key, e.Args)
}

// Recoverable rejections, usable with errors.Is.
var (
	ErrUnexpectedInput     = &UserError{Key: i18n.UnexpectedInput}
	ErrInvalidAmount       = &UserError{Key: i18n.InvalidAmount}
	ErrAmountRange         = &UserError{Key: i18n.AmountRange}
	ErrUnknownSecret       = &UserError{Key: i18n.SecretKeyInvalid}
	ErrSubscriptionNeeded  = &UserError{Key: i18n.SubscriptionRequired}
	ErrInsufficientBalance = &UserError{Key: i18n.InsufficientBalance}
	ErrInvalidInput        = &UserError{Key: i18n.InvalidInput}
	ErrTooManyNumbers      = &UserError{Key: i18n.MaxNumbers}
	ErrCooldown            = &UserError{Key: i18n.RateLimit}
	ErrNotTxt              = &UserError{Key: i18n.UploadTxt}
	ErrNoScreenshot        = &UserError{Key: i18n.UploadScreenshot}
	ErrNoRecognition       = &UserError{Key: i18n.RecognitionUnavailable}
	ErrNothingToExport     = &UserError{Key: i18n.NothingToExport}
	ErrUnsupportedLanguage = &UserError{Key: i18n.ChooseLanguage}
)

// Is matches user errors by key so a localized copy still matches its sentinel.
func (e *UserError) Is(target error) bool {
	var t *UserError
	if !errors.As(target, &t) {
		return false
	}
	return t.Key == e.Key
}

// localize returns a copy of a sentinel with the user's language and args.
func localize(err *UserError, lang string, args i18n.Args) *UserError {
	return &UserError{Key: err.Key, Args: args, Lang: lang}
}
