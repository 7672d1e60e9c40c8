package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/suspectuso/numcheck-bot/internal/checker"
	"github.com/suspectuso/numcheck-bot/internal/i18n"
	"github.com/suspectuso/numcheck-bot/internal/storage"
)

const exportFileName = "results.txt"

func (m *Machine) requestCheck(t *turn) ([]Reply, error) {
	if !t.user.Subscription.Active(m.now()) {
		return nil, ErrSubscriptionNeeded
	}
	t.s.Awaiting = Idle{}
	return []Reply{{Kind: KindCheckMenu, Lang: t.lang(), Text: i18n.CheckPrompt}}, nil
}

func (m *Machine) chooseCheckMode(t *turn, source checker.Source) ([]Reply, error) {
	if !t.user.Subscription.Active(m.now()) {
		return nil, ErrSubscriptionNeeded
	}

	var (
		next Awaiting
		key  i18n.Key
	)
	switch source {
	case checker.SourceText:
		next, key = AwaitingCheckText{}, i18n.EnterText
	case checker.SourceFile:
		next, key = AwaitingCheckFile{}, i18n.UploadTxt
	case checker.SourceScreenshot:
		next, key = AwaitingCheckScreenshot{}, i18n.UploadScreenshot
	default:
		return nil, ErrUnexpectedInput
	}

	t.s.Awaiting = next
	return []Reply{{Kind: KindPrompt, Lang: t.lang(), Text: key, TTL: PromptTTL}}, nil
}

func (m *Machine) submitCheckInput(ctx context.Context, t *turn, in SubmitCheckInput) ([]Reply, error) {
	if !awaitsSource(t.s.Awaiting, in.Source) {
		return nil, ErrUnexpectedInput
	}
	if !t.user.Subscription.Active(m.now()) {
		return nil, ErrSubscriptionNeeded
	}

	text, err := m.inputText(ctx, in)
	if err != nil {
		return nil, err
	}

	numbers := checker.ExtractNumbers(text)
	if len(numbers) == 0 {
		return nil, ErrInvalidInput
	}
	if m.cfg.CheckMaxNumbers > 0 && len(numbers) > m.cfg.CheckMaxNumbers {
		return nil, localize(ErrTooManyNumbers, t.lang(), i18n.Args{"max": m.cfg.CheckMaxNumbers})
	}
	if !t.s.cooldown.Allow() {
		return nil, ErrCooldown
	}

	results := checker.Check(numbers)
	sum := checker.Summarize(results)

	rec := &storage.CheckRecord{
		UserID:    t.user.ID,
		Source:    string(in.Source),
		Total:     sum.Total,
		Clean:     sum.Clean,
		Locked:    sum.Locked,
		Blocked:   sum.Blocked,
		Errors:    sum.Errors,
		Results:   results,
		CreatedAt: m.now(),
	}
	if err := m.checks.CreateCheck(ctx, rec); err != nil {
		return nil, fmt.Errorf("store check: %w", err)
	}
	if m.metrics != nil {
		m.metrics.CheckCompleted(string(in.Source))
	}

	m.log.Info("check completed",
		"user_id", t.user.ID,
		"source", in.Source,
		"total", sum.Total,
		"clean", sum.Clean,
	)

	t.s.Check.Last = results
	t.s.Awaiting = Idle{}
	return []Reply{{
		Kind: KindCheckResult,
		Lang: t.lang(),
		Text: i18n.CheckSummary,
		Args: i18n.Args{
			"clean":   sum.Clean,
			"locked":  sum.Locked,
			"blocked": sum.Blocked,
			"error":   sum.Errors,
		},
		TTL: ResultTTL,
	}}, nil
}

// inputText turns the submitted input into text to extract numbers from.
func (m *Machine) inputText(ctx context.Context, in SubmitCheckInput) (string, error) {
	switch in.Source {
	case checker.SourceText:
		return in.Text, nil
	case checker.SourceFile:
		if !in.hasData() || !strings.EqualFold(filepath.Ext(in.FileName), ".txt") {
			return "", ErrNotTxt
		}
		data, err := in.load(ctx)
		if err != nil {
			return "", fmt.Errorf("load file: %w", err)
		}
		if !utf8.Valid(data) {
			return "", ErrInvalidInput
		}
		return string(data), nil
	case checker.SourceScreenshot:
		if !in.hasData() {
			return "", ErrNoScreenshot
		}
		data, err := in.load(ctx)
		if err != nil {
			return "", fmt.Errorf("load screenshot: %w", err)
		}
		text, err := m.recognizer.Recognize(ctx, data)
		if errors.Is(err, checker.ErrRecognitionUnavailable) {
			return "", ErrNoRecognition
		}
		if errors.Is(err, checker.ErrUnreadableImage) {
			return "", ErrNoScreenshot
		}
		if err != nil {
			return "", fmt.Errorf("recognize screenshot: %w", err)
		}
		return text, nil
	}
	return "", ErrUnexpectedInput
}

func (m *Machine) exportCheck(t *turn) ([]Reply, error) {
	if len(t.s.Check.Last) == 0 {
		return nil, ErrNothingToExport
	}
	return []Reply{{
		Kind:     KindExport,
		Lang:     t.lang(),
		Text:     i18n.ExportReady,
		Document: []byte(checker.Format(t.s.Check.Last)),
		FileName: exportFileName,
		TTL:      ResultTTL,
	}}, nil
}

func (in SubmitCheckInput) hasData() bool {
	return in.Data != nil || in.Fetch != nil
}

func (in SubmitCheckInput) load(ctx context.Context) ([]byte, error) {
	if in.Data != nil || in.Fetch == nil {
		return in.Data, nil
	}
	return in.Fetch(ctx)
}

func awaitsSource(a Awaiting, source checker.Source) bool {
	switch a.(type) {
	case AwaitingCheckText:
		return source == checker.SourceText
	case AwaitingCheckFile:
		return source == checker.SourceFile
	case AwaitingCheckScreenshot:
		return source == checker.SourceScreenshot
	}
	return false
}
