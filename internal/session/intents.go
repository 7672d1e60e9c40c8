package session

import (
	"context"

	"github.com/suspectuso/numcheck-bot/internal/checker"
)

// Intent is a user action. The set is closed: only the types below
// implement it.
type Intent interface {
	intent()
}

type (
	Start          struct{}
	ChooseLanguage struct{ Language string }

	ConfirmSecretSaved   struct{}
	RequestSecretRestore struct{}
	SubmitSecretKey      struct{ Key string }

	RequestDeposit     struct{}
	SubmitAmount       struct{ Text string }
	ChooseCurrency     struct{ Currency string }
	SubmitPaymentCheck struct{}
	ChangeCurrency     struct{}
	CancelDeposit      struct{}

	RequestCheck    struct{}
	ChooseCheckMode struct{ Source checker.Source }
	// SubmitCheckInput carries typed text, a file's bytes or an image.
	SubmitCheckInput struct {
		Source   checker.Source
		Text     string
		FileName string
		Data     []byte
		// Fetch loads Data on demand. It runs only when the session is
		// waiting for this kind of upload.
		Fetch func(ctx context.Context) ([]byte, error)
	}
	ExportCheck struct{}

	RequestSubscription struct{}
	ChoosePlan          struct{ Plan string }

	GoHome struct{}
)

func (Start) intent()                {}
func (ChooseLanguage) intent()       {}
func (ConfirmSecretSaved) intent()   {}
func (RequestSecretRestore) intent() {}
func (SubmitSecretKey) intent()      {}
func (RequestDeposit) intent()       {}
func (SubmitAmount) intent()         {}
func (ChooseCurrency) intent()       {}
func (SubmitPaymentCheck) intent()   {}
func (ChangeCurrency) intent()       {}
func (CancelDeposit) intent()        {}
func (RequestCheck) intent()         {}
func (ChooseCheckMode) intent()      {}
func (SubmitCheckInput) intent()     {}
func (ExportCheck) intent()          {}
func (RequestSubscription) intent()  {}
func (ChoosePlan) intent()           {}
func (GoHome) intent()               {}
