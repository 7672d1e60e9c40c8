package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suspectuso/numcheck-bot/internal/checker"
	"github.com/suspectuso/numcheck-bot/internal/session"
)

// Callback data carried by inline buttons.
const (
	cbHome           = "home"
	cbLanguagePrefix = "lang:"
	cbKeySaved       = "key:saved"
	cbKeyHide        = "key:hide"
	cbRestore        = "restore"

	cbDeposit        = "deposit"
	cbDepositCancel  = "dep:cancel"
	cbCurrencyPrefix = "cur:"
	cbCurrencyPage   = "curpage:"
	cbInvoicePaid    = "inv:paid"
	cbInvoiceChange  = "inv:change"
	cbInvoiceCancel  = "inv:cancel"

	cbCheck           = "check"
	cbCheckText       = "check:text"
	cbCheckFile       = "check:file"
	cbCheckScreenshot = "check:screenshot"
	cbCheckExport     = "check:export"

	cbSubscription = "sub"
	cbPlanPrefix   = "plan:"
)

// parseCallback maps button data to an intent. ok is false for data that is
// not an intent (UI-only buttons) or is unknown.
func parseCallback(data string) (session.Intent, bool) {
	switch data {
	case cbHome:
		return session.GoHome{}, true
	case cbKeySaved:
		return session.ConfirmSecretSaved{}, true
	case cbRestore:
		return session.RequestSecretRestore{}, true
	case cbDeposit:
		return session.RequestDeposit{}, true
	case cbDepositCancel, cbInvoiceCancel:
		return session.CancelDeposit{}, true
	case cbInvoicePaid:
		return session.SubmitPaymentCheck{}, true
	case cbInvoiceChange:
		return session.ChangeCurrency{}, true
	case cbCheck:
		return session.RequestCheck{}, true
	case cbCheckText:
		return session.ChooseCheckMode{Source: checker.SourceText}, true
	case cbCheckFile:
		return session.ChooseCheckMode{Source: checker.SourceFile}, true
	case cbCheckScreenshot:
		return session.ChooseCheckMode{Source: checker.SourceScreenshot}, true
	case cbCheckExport:
		return session.ExportCheck{}, true
	case cbSubscription:
		return session.RequestSubscription{}, true
	}

	switch {
	case strings.HasPrefix(data, cbLanguagePrefix):
		return session.ChooseLanguage{Language: strings.TrimPrefix(data, cbLanguagePrefix)}, true
	case strings.HasPrefix(data, cbCurrencyPrefix):
		return session.ChooseCurrency{Currency: strings.TrimPrefix(data, cbCurrencyPrefix)}, true
	case strings.HasPrefix(data, cbPlanPrefix):
		return session.ChoosePlan{Plan: strings.TrimPrefix(data, cbPlanPrefix)}, true
	}
	return nil, false
}

// currencyPageData addresses a currency keyboard page. The language travels
// with it because switching pages never reaches the session.
func currencyPageData(page int, lang string) string {
	return fmt.Sprintf("%s%d:%s", cbCurrencyPage, page, lang)
}

func parseCurrencyPage(data string) (page int, lang string, ok bool) {
	rest, found := strings.CutPrefix(data, cbCurrencyPage)
	if !found {
		return 0, "", false
	}
	num, lang, _ := strings.Cut(rest, ":")
	page, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", false
	}
	return page, lang, true
}
