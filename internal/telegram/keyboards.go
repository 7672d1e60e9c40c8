package telegram

import (
	"github.com/go-telegram/bot/models"

	"github.com/suspectuso/numcheck-bot/internal/account"
	"github.com/suspectuso/numcheck-bot/internal/i18n"
	"github.com/suspectuso/numcheck-bot/internal/session"
	"github.com/suspectuso/numcheck-bot/internal/storage"
)

var languageNames = map[string]string{
	i18n.EN: "🇬🇧 English",
	i18n.RU: "🇷🇺 Русский",
	i18n.ZH: "🇨🇳 中文",
}

// currencyPages splits the supported currencies over two keyboard pages.
var currencyPages = [][]string{
	{"USDTTRC20", "TON"},
	{"TRX", "BTC"},
}

var currencyNames = map[string]string{
	"USDTTRC20": "USDT (TRC20)",
	"TON":       "TON",
	"TRX":       "TRX",
	"BTC":       "BTC",
}

func btn(lang string, key i18n.Key, data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: i18n.T(lang, key), CallbackData: data}
}

// MainKeyboard returns the main menu keyboard
func MainKeyboard(lang string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{btn(lang, i18n.BtnCheck, cbCheck)},
			{
				btn(lang, i18n.BtnDeposit, cbDeposit),
				btn(lang, i18n.BtnBuySubscription, cbSubscription),
			},
			{btn(lang, i18n.BtnRestore, cbRestore)},
		},
	}
}

// LanguageKeyboard lists the interface languages
func LanguageKeyboard() *models.InlineKeyboardMarkup {
	row := make([]models.InlineKeyboardButton, 0, len(i18n.Languages))
	for _, lang := range i18n.Languages {
		row = append(row, models.InlineKeyboardButton{Text: languageNames[lang], CallbackData: cbLanguagePrefix + lang})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}
}

// SecretKeyKeyboard is attached to the message showing a secret key
func SecretKeyKeyboard(lang string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{btn(lang, i18n.BtnSaveKey, cbKeySaved)},
			{
				btn(lang, i18n.BtnLoadKey, cbRestore),
				btn(lang, i18n.BtnHide, cbKeyHide),
			},
		},
	}
}

// BackKeyboard returns a single button to the main menu
func BackKeyboard(lang string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{btn(lang, i18n.BtnBack, cbHome)},
		},
	}
}

// DepositPromptKeyboard lets the user abandon the amount prompt
func DepositPromptKeyboard(lang string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{btn(lang, i18n.BtnCancel, cbDepositCancel)},
		},
	}
}

// CurrencyKeyboard returns one page of pay currencies. Page 0 links forward
// to page 1 and page 1 links back.
func CurrencyKeyboard(lang string, page int) *models.InlineKeyboardMarkup {
	if page < 0 || page >= len(currencyPages) {
		page = 0
	}

	var rows [][]models.InlineKeyboardButton
	for _, c := range currencyPages[page] {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: currencyNames[c], CallbackData: cbCurrencyPrefix + c},
		})
	}

	if page == 0 {
		rows = append(rows, []models.InlineKeyboardButton{btn(lang, i18n.BtnMore, currencyPageData(1, lang))})
	} else {
		rows = append(rows, []models.InlineKeyboardButton{btn(lang, i18n.BtnBack, currencyPageData(0, lang))})
	}
	rows = append(rows, []models.InlineKeyboardButton{btn(lang, i18n.BtnCancel, cbDepositCancel)})

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// InvoiceKeyboard returns the actions for an open invoice
func InvoiceKeyboard(lang string, inv *storage.Invoice) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	if inv != nil && inv.InvoiceURL != "" {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: i18n.T(lang, i18n.BtnPayLink), URL: inv.InvoiceURL},
		})
	}
	rows = append(rows,
		[]models.InlineKeyboardButton{btn(lang, i18n.BtnPaid, cbInvoicePaid)},
		[]models.InlineKeyboardButton{
			btn(lang, i18n.BtnChangeCurrency, cbInvoiceChange),
			btn(lang, i18n.BtnCancel, cbInvoiceCancel),
		},
	)
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// CheckMenuKeyboard offers the ways to submit numbers
func CheckMenuKeyboard(lang string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{btn(lang, i18n.BtnSendText, cbCheckText)},
			{btn(lang, i18n.BtnUploadTxt, cbCheckFile)},
			{btn(lang, i18n.BtnUploadScreenshot, cbCheckScreenshot)},
			{btn(lang, i18n.BtnBack, cbHome)},
		},
	}
}

// CheckResultKeyboard is attached to a check summary
func CheckResultKeyboard(lang string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{btn(lang, i18n.BtnExport, cbCheckExport)},
			{
				btn(lang, i18n.BtnNewCheck, cbCheck),
				btn(lang, i18n.BtnBack, cbHome),
			},
		},
	}
}

var planButtons = map[string]i18n.Key{
	account.PlanDaily:   i18n.BtnDaily,
	account.PlanWeekly:  i18n.BtnWeekly,
	account.PlanMonthly: i18n.BtnMonthly,
}

// PlansKeyboard lists the purchasable plans with prices
func PlansKeyboard(lang string, plans []account.Plan) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, p := range plans {
		key, ok := planButtons[p.Name]
		if !ok {
			continue
		}
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         i18n.T(lang, key, i18n.Args{"price": p.Price.StringFixed(2)}),
			CallbackData: cbPlanPrefix + p.Name,
		}})
	}
	rows = append(rows, []models.InlineKeyboardButton{btn(lang, i18n.BtnBack, cbHome)})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// SubscriptionRequiredKeyboard points a user without a subscription to the plans
func SubscriptionRequiredKeyboard(lang string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{btn(lang, i18n.BtnBuySubscription, cbSubscription)},
			{btn(lang, i18n.BtnBack, cbHome)},
		},
	}
}

// keyboardFor picks the keyboard rendered under a reply.
func keyboardFor(r session.Reply) *models.InlineKeyboardMarkup {
	switch r.Kind {
	case session.KindHome:
		return MainKeyboard(r.Lang)
	case session.KindLanguageMenu:
		return LanguageKeyboard()
	case session.KindSecretKey:
		return SecretKeyKeyboard(r.Lang)
	case session.KindPrompt:
		return BackKeyboard(r.Lang)
	case session.KindDepositPrompt:
		return DepositPromptKeyboard(r.Lang)
	case session.KindCurrencyMenu:
		return CurrencyKeyboard(r.Lang, 0)
	case session.KindInvoice, session.KindCountdown:
		return InvoiceKeyboard(r.Lang, r.Invoice)
	case session.KindCheckMenu:
		return CheckMenuKeyboard(r.Lang)
	case session.KindCheckResult:
		return CheckResultKeyboard(r.Lang)
	case session.KindPlans:
		return PlansKeyboard(r.Lang, r.Plans)
	}
	return nil
}

// errorKeyboard picks the keyboard rendered under a user error.
func errorKeyboard(e *session.UserError) *models.InlineKeyboardMarkup {
	switch e.Key {
	case i18n.SubscriptionRequired, i18n.InsufficientBalance:
		return SubscriptionRequiredKeyboard(e.Lang)
	case i18n.ChooseLanguage:
		return LanguageKeyboard()
	}
	return nil
}
