// Package account manages user identities: first-contact registration with a
// recovery secret key, restoring an account from that key, plan purchases and
// merging two accounts into one.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/suspectuso/numcheck-bot/internal/storage"
)

var (
	ErrUnknownSecret = errors.New("unknown secret key")
	ErrUnknownPlan   = errors.New("unknown plan")
)

// Store is the persistence the account service needs.
type Store interface {
	CreateUser(ctx context.Context, externalID int64, language, secretHash string, issuedAt time.Time) (*storage.User, error)
	GetUser(ctx context.Context, id string) (*storage.User, error)
	GetUserByExternalID(ctx context.Context, externalID int64) (*storage.User, error)
	GetUserBySecretHash(ctx context.Context, hash string) (*storage.User, error)
	SetLanguage(ctx context.Context, userID, language string) error
	PurchaseSubscription(ctx context.Context, userID, plan string, price decimal.Decimal, period time.Duration, now time.Time) (*storage.SubscriptionRecord, error)
	ReassignOwner(ctx context.Context, c storage.Collection, fromUserID, toUserID string) (int64, error)
	CommitMerge(ctx context.Context, targetID, sourceID string, merge storage.MergeFunc) (*storage.User, bool, error)
}

// Recorder receives account metrics.
type Recorder interface {
	AccountMerged()
}

type Service struct {
	store           Store
	plans           []Plan
	defaultLanguage string
	metrics         Recorder
	log             *slog.Logger
	now             func() time.Time
}

func NewService(store Store, plans []Plan, metrics Recorder, log *slog.Logger) *Service {
	return &Service{
		store:           store,
		plans:           plans,
		defaultLanguage: "en",
		metrics:         metrics,
		log:             log.With("component", "account"),
		now:             time.Now,
	}
}

// EnsureUser returns the user for a messenger id, creating it on first
// contact. secret is the plaintext recovery key and is only non-empty for
// the call that created the user.
func (s *Service) EnsureUser(ctx context.Context, externalID int64) (user *storage.User, secret string, err error) {
	user, err = s.store.GetUserByExternalID(ctx, externalID)
	if err == nil {
		return user, "", nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	secret, err = GenerateSecretKey()
	if err != nil {
		return nil, "", err
	}

	user, err = s.store.CreateUser(ctx, externalID, s.defaultLanguage, HashSecretKey(secret), s.now())
	if errors.Is(err, storage.ErrAlreadyExists) {
		// lost a first-contact race with another update from the same user
		user, err = s.store.GetUserByExternalID(ctx, externalID)
		if err != nil {
			return nil, "", fmt.Errorf("get user: %w", err)
		}
		return user, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", "user_id", user.ID, "external_id", externalID)
	return user, secret, nil
}

// GetUser returns a user by id
func (s *Service) GetUser(ctx context.Context, id string) (*storage.User, error) {
	return s.store.GetUser(ctx, id)
}

// SetLanguage stores the user's interface language
func (s *Service) SetLanguage(ctx context.Context, userID, language string) error {
	return s.store.SetLanguage(ctx, userID, language)
}

// Restore resolves secret to an account and merges it into the current one.
// Presenting the current account's own key changes nothing.
func (s *Service) Restore(ctx context.Context, currentUserID, secret string) (*storage.User, error) {
	source, err := s.store.GetUserBySecretHash(ctx, HashSecretKey(secret))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownSecret
	}
	if err != nil {
		return nil, fmt.Errorf("lookup secret: %w", err)
	}

	return s.Merge(ctx, currentUserID, source.ID)
}

// Plans returns the purchasable plans.
func (s *Service) Plans() []Plan {
	return s.plans
}

// Plan looks a plan up by name.
func (s *Service) Plan(name string) (Plan, bool) {
	for _, p := range s.plans {
		if p.Name == name {
			return p, true
		}
	}
	return Plan{}, false
}

// Purchase debits the plan price and extends the subscription. It returns
// storage.ErrInsufficientBalance when the balance does not cover the price.
func (s *Service) Purchase(ctx context.Context, userID, planName string) (*storage.SubscriptionRecord, error) {
	plan, ok := s.Plan(planName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, planName)
	}

	rec, err := s.store.PurchaseSubscription(ctx, userID, plan.Name, plan.Price, plan.Period, s.now())
	if err != nil {
		return nil, err
	}

	s.log.Info("subscription purchased",
		"user_id", userID,
		"plan", plan.Name,
		"price_usd", plan.Price.String(),
		"expires_at", rec.ExpiresAt,
	)
	return rec, nil
}
