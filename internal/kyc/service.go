package kyc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	id "corebank/pkg/domain"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/platform/sentinel"
	"corebank/pkg/requestcontext"
)

// Service is the Identity & Compliance Gate. Gating is a read-only query
// against the most recent verification per user; denials are non-retryable
// state conflicts (user action required), never transient faults.
type Service struct {
	store          Store
	cache          EligibilityCache
	validityWindow time.Duration
	logger         *slog.Logger
}

// NewService builds the gate. cache may be nil; logger may be nil in tests.
func NewService(store Store, cache EligibilityCache, validityWindow time.Duration, logger *slog.Logger) *Service {
	return &Service{
		store:          store,
		cache:          cache,
		validityWindow: validityWindow,
		logger:         logger,
	}
}

// CheckTransferEligibility returns nil when the user may initiate transfers
// and a CodeComplianceDenied error carrying the reason otherwise.
func (s *Service) CheckTransferEligibility(ctx context.Context, userID id.UserID) error {
	if s.cache != nil {
		if verdict, ok, err := s.cache.Get(ctx, userID); err == nil && ok {
			if verdict == verdictAllowed {
				return nil
			}
			return dErrors.New(dErrors.CodeComplianceDenied, verdict)
		} else if err != nil && s.logger != nil {
			// Cache trouble must never block a gating decision.
			s.logger.WarnContext(ctx, "kyc cache read failed", "user_id", userID, "error", err)
		}
	}

	reason := s.eligibilityReason(ctx, userID)
	if s.cache != nil {
		verdict := verdictAllowed
		if reason != "" {
			verdict = reason
		}
		if err := s.cache.Set(ctx, userID, verdict); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "kyc cache write failed", "user_id", userID, "error", err)
		}
	}
	if reason != "" {
		return dErrors.New(dErrors.CodeComplianceDenied, reason)
	}
	return nil
}

// eligibilityReason returns "" when eligible, otherwise the denial reason.
func (s *Service) eligibilityReason(ctx context.Context, userID id.UserID) string {
	latest, err := s.store.FindLatestByUser(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "no identity verification on file"
	}
	if err != nil {
		// A store failure is indistinguishable from "cannot prove identity";
		// fail closed.
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "kyc store lookup failed", "user_id", userID, "error", err)
		}
		return "identity verification unavailable"
	}

	switch latest.Status {
	case StatusApproved:
		if latest.VerifiedAt != nil && requestcontext.Now(ctx).Sub(*latest.VerifiedAt) > s.validityWindow {
			return "identity verification approval has lapsed"
		}
		return ""
	case StatusPending:
		return "identity verification is pending review"
	case StatusRejected:
		return "identity verification was rejected"
	case StatusExpired:
		return "identity verification has expired"
	default:
		return fmt.Sprintf("unrecognized verification status %q", latest.Status)
	}
}

// Get returns the authoritative (most recent) verification for the user.
func (s *Service) Get(ctx context.Context, userID id.UserID) (*Verification, error) {
	latest, err := s.store.FindLatestByUser(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no verification on file for user")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load verification", err)
	}
	return latest, nil
}

// Submit records a new PENDING verification. The new record becomes the
// authoritative one, superseding any prior outcome.
func (s *Service) Submit(ctx context.Context, userID id.UserID) (*Verification, error) {
	v := &Verification{
		ID:          id.NewVerificationID(),
		UserID:      userID,
		Status:      StatusPending,
		SubmittedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, v); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "save verification", err)
	}
	s.invalidate(ctx, userID)
	return v, nil
}

// Review applies an administrative status transition.
func (s *Service) Review(ctx context.Context, verificationID id.VerificationID, status VerificationStatus) (*Verification, error) {
	if !status.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown verification status %q", status))
	}
	v, err := s.store.FindByID(ctx, verificationID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load verification", err)
	}
	if v.Status == status {
		// Reviewing to the current status is a no-op, not a conflict.
		return v, nil
	}
	if !CanTransition(v.Status, status) {
		return nil, dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("verification cannot move from %s to %s", v.Status, status))
	}
	v.Status = status
	if status == StatusApproved {
		now := requestcontext.Now(ctx)
		v.VerifiedAt = &now
	}
	if err := s.store.Save(ctx, v); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "save verification", err)
	}
	s.invalidate(ctx, v.UserID)
	return v, nil
}

func (s *Service) invalidate(ctx context.Context, userID id.UserID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "kyc cache invalidation failed", "user_id", userID, "error", err)
	}
}
