package verification

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/award"
	"eco-proof/community-portal/community-portal-backend/internal/ledger"
	"eco-proof/community-portal/community-portal-backend/internal/notifications"
	"eco-proof/community-portal/community-portal-backend/pkg/workflows"
)

// autoAcceptMinBytes is the review heuristic: proofs strictly larger than
// this are accepted without an administrator.
const autoAcceptMinBytes = 2048

// Creditor applies awards to the participant ledger.
type Creditor interface {
	Credit(ctx context.Context, name string, a award.Award) (*ledger.Entry, error)
}

// Service runs the verification workflow: intake, the acceptance heuristic,
// award lookup, crediting and administrative approval.
type Service struct {
	repo      Repository
	awards    *award.Mapping
	creditor  Creditor
	states    *workflows.StateMachine
	publisher notifications.Publisher
	logger    *zap.Logger
}

// NewService creates a verification service.
func NewService(repo Repository, awards *award.Mapping, creditor Creditor, publisher notifications.Publisher, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		awards:    awards,
		creditor:  creditor,
		states:    workflows.NewStateMachine(),
		publisher: publisher,
		logger:    logger,
	}
}

// Submit records a proof-of-action submission. Proofs over the size
// threshold are accepted and credited immediately, the rest stay pending
// until an administrator approves them.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if strings.TrimSpace(input.User) == "" || strings.TrimSpace(input.Action) == "" || input.File == nil {
		return nil, ErrMissingFields
	}

	granted, known := s.awards.Lookup(input.Action)
	if !known {
		s.logger.Debug("no award configured for action",
			zap.String("action", input.Action),
			zap.String("user", input.User))
	}

	v := &Verification{
		User:   input.User,
		Action: input.Action,
		File:   *input.File,
		Status: StatusPending,
	}

	accepted := input.File.Size > autoAcceptMinBytes
	if accepted {
		v.Status = StatusAccepted
		v.Award = &granted
	}

	created, err := s.repo.Create(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("failed to persist verification: %w", err)
	}

	if !accepted {
		s.logger.Info("verification pending review",
			zap.Int64("id", created.ID),
			zap.String("user", created.User),
			zap.String("action", created.Action),
			zap.Int64("size", created.File.Size))
		notifications.Publish(s.publisher, notifications.NewEvent(notifications.EventVerificationSubmitted, eventData(created)))

		return &SubmitResult{Status: StatusPending, ID: created.ID, Filename: created.File.Filename}, nil
	}

	if _, err := s.creditor.Credit(ctx, created.User, granted); err != nil {
		return nil, fmt.Errorf("failed to credit %s: %w", created.User, err)
	}

	s.logger.Info("verification accepted",
		zap.Int64("id", created.ID),
		zap.String("user", created.User),
		zap.String("action", created.Action),
		zap.Int("points", granted.Points),
		zap.Int("co2", granted.CO2))
	notifications.Publish(s.publisher, notifications.NewEvent(notifications.EventVerificationAccepted, eventData(created)))

	return &SubmitResult{Status: StatusAccepted, ID: created.ID, Award: &granted}, nil
}

// Approve accepts a pending verification and credits its participant. The
// status check and the transition happen under the collection lock, so
// racing approvals credit exactly once. Approving an already accepted
// verification is a no-op success.
func (s *Service) Approve(ctx context.Context, id int64) (*ApproveResult, error) {
	updated, transitioned, err := s.repo.Update(ctx, id, func(v *Verification) (bool, error) {
		if !s.states.CanTransition(string(v.Status), string(StatusAccepted)) {
			return false, nil
		}
		granted, _ := s.awards.Lookup(v.Action)
		v.Status = StatusAccepted
		v.Award = &granted
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if !transitioned {
		s.logger.Info("approval skipped, verification already accepted",
			zap.Int64("id", id),
			zap.String("status", string(updated.Status)))
		return &ApproveResult{Verification: *updated, Credited: false}, nil
	}

	if _, err := s.creditor.Credit(ctx, updated.User, *updated.Award); err != nil {
		return nil, fmt.Errorf("failed to credit %s: %w", updated.User, err)
	}

	s.logger.Info("verification approved",
		zap.Int64("id", updated.ID),
		zap.String("user", updated.User),
		zap.String("action", updated.Action),
		zap.Int("points", updated.Award.Points),
		zap.Int("co2", updated.Award.CO2))
	notifications.Publish(s.publisher, notifications.NewEvent(notifications.EventVerificationApproved, eventData(updated)))

	return &ApproveResult{Verification: *updated, Credited: true}, nil
}

// List returns verifications matching the filter, newest first. Action
// matching is case-insensitive like the award table, user matching is exact.
func (s *Service) List(ctx context.Context, filter Filter) ([]Verification, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Verification, 0, len(items))
	for _, v := range items {
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		if filter.Action != "" && !strings.EqualFold(filter.Action, v.Action) {
			continue
		}
		if filter.User != "" && v.User != filter.User {
			continue
		}
		out = append(out, v)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Get returns a single verification by id.
func (s *Service) Get(ctx context.Context, id int64) (*Verification, error) {
	return s.repo.Get(ctx, id)
}

func eventData(v *Verification) map[string]any {
	data := map[string]any{
		"id":     v.ID,
		"user":   v.User,
		"action": v.Action,
		"status": string(v.Status),
	}
	if v.Award != nil {
		data["points"] = v.Award.Points
		data["co2"] = v.Award.CO2
	}
	return data
}
