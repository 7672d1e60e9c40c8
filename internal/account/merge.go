package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/suspectuso/numcheck-bot/internal/storage"
)

// Merge folds source into target and returns the surviving user. The steps
// run in a fixed order and each is safe to repeat, so a failed merge can be
// retried with the same arguments:
//
//  1. re-point every owned collection from source to target
//  2. recompute the aggregate from fresh rows, write it to target and delete
//     source in one transaction
//
// Once source is gone a repeat is a no-op that returns target unchanged.
func (s *Service) Merge(ctx context.Context, targetID, sourceID string) (*storage.User, error) {
	if targetID == sourceID {
		return s.store.GetUser(ctx, targetID)
	}

	if _, err := s.store.GetUser(ctx, sourceID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return s.store.GetUser(ctx, targetID)
		}
		return nil, fmt.Errorf("load source: %w", err)
	}

	for _, c := range storage.OwnedCollections {
		moved, err := s.store.ReassignOwner(ctx, c, sourceID, targetID)
		if err != nil {
			return nil, fmt.Errorf("reassign %s: %w", c, err)
		}
		if moved > 0 {
			s.log.Debug("records reassigned", "collection", c, "count", moved, "from", sourceID, "to", targetID)
		}
	}

	merged, applied, err := s.store.CommitMerge(ctx, targetID, sourceID, mergeUsers(s.now()))
	if err != nil {
		return nil, fmt.Errorf("commit merge: %w", err)
	}
	if !applied {
		return s.store.GetUser(ctx, targetID)
	}

	if s.metrics != nil {
		s.metrics.AccountMerged()
	}
	s.log.Info("accounts merged",
		"target_id", targetID,
		"source_id", sourceID,
		"balance_usd", merged.Balance.String(),
		"subscription_active", merged.Subscription.Active(s.now()),
	)

	return merged, nil
}

// mergeUsers combines two fresh user rows as of now.
func mergeUsers(now time.Time) storage.MergeFunc {
	return func(target, source storage.User) storage.User {
		merged := target
		merged.Balance = target.Balance.Add(source.Balance)
		merged.Subscription = mergeSubscription(target.Subscription, source.Subscription, now)
		if source.Language != "" {
			merged.Language = source.Language
		}
		if source.SecretKeyIssuedAt.After(target.SecretKeyIssuedAt) {
			merged.SecretKeyHash = source.SecretKeyHash
			merged.SecretKeyIssuedAt = source.SecretKeyIssuedAt
		}
		return merged
	}
}

// mergeSubscription keeps the later expiry if it is still in the future.
func mergeSubscription(a, b storage.Subscription, now time.Time) storage.Subscription {
	var latest *time.Time
	for _, sub := range []storage.Subscription{a, b} {
		if sub.ExpiresAt == nil {
			continue
		}
		if latest == nil || sub.ExpiresAt.After(*latest) {
			latest = sub.ExpiresAt
		}
	}

	if latest == nil || !latest.After(now) {
		return storage.Subscription{}
	}
	expires := *latest
	return storage.Subscription{ExpiresAt: &expires}
}
