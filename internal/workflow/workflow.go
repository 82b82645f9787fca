package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"claimdesk/internal/apperr"
	"claimdesk/internal/model"
	"claimdesk/internal/notify"
	"claimdesk/internal/repository"
	"claimdesk/internal/store"

	"github.com/google/uuid"
)

// Actor is whoever is driving a transition.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role string
}

// Workflow enforces the claim state machine: PENDING is the only state a
// decision can leave from, APPROVED and REJECTED are terminal, and an
// escalation keeps the claim pending at a higher authority level. Every
// transition appends one immutable ApprovalEvent.
type Workflow struct {
	store    *store.Store
	events   repository.ApprovalEventRepository
	notifier *notify.Notifier
	now      func() time.Time
}

func New(st *store.Store, events repository.ApprovalEventRepository, notifier *notify.Notifier) *Workflow {
	return &Workflow{store: st, events: events, notifier: notifier, now: time.Now}
}

// Approve moves a pending claim to APPROVED.
func (w *Workflow) Approve(ctx context.Context, claimID uuid.UUID, actor Actor, comment string) (*model.Claim, error) {
	if !model.ReviewerRole(actor.Role) {
		return nil, &apperr.PermissionError{Role: actor.Role, Operation: "approve claims"}
	}

	claim, err := w.store.Transition(ctx, claimID, func(c *model.Claim) error {
		if c.Status != model.ClaimStatusPending {
			return &apperr.InvalidTransitionError{ClaimID: claimID.String(), From: c.Status, Action: model.ActionApprove}
		}
		now := w.now()
		c.Status = model.ClaimStatusApproved
		c.ReviewerID = &actor.ID
		c.ReviewerName = actor.Name
		c.ReviewerComment = comment
		c.DecidedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.record(ctx, claim, actor, model.ActionApprove, comment)
	w.notifier.Send(ctx, notify.Event{
		Type:     "claim-approved",
		ClaimID:  claim.ID.String(),
		TargetID: claim.EmployeeID.String(),
		Message:  fmt.Sprintf("Your %s claim for %s %s was approved", claim.Category, claim.Amount.StringFixed(2), claim.Currency),
	})
	return claim, nil
}

// Reject moves a pending claim to REJECTED. A non-empty reason is mandatory.
func (w *Workflow) Reject(ctx context.Context, claimID uuid.UUID, actor Actor, reason string) (*model.Claim, error) {
	if !model.ReviewerRole(actor.Role) {
		return nil, &apperr.PermissionError{Role: actor.Role, Operation: "reject claims"}
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.Validation(apperr.FieldViolation{Field: "reason", Reason: "is required when rejecting"})
	}

	claim, err := w.store.Transition(ctx, claimID, func(c *model.Claim) error {
		if c.Status != model.ClaimStatusPending {
			return &apperr.InvalidTransitionError{ClaimID: claimID.String(), From: c.Status, Action: model.ActionReject}
		}
		now := w.now()
		c.Status = model.ClaimStatusRejected
		c.ReviewerID = &actor.ID
		c.ReviewerName = actor.Name
		c.ReviewerComment = reason
		c.DecidedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.record(ctx, claim, actor, model.ActionReject, reason)
	w.notifier.Send(ctx, notify.Event{
		Type:     "claim-rejected",
		ClaimID:  claim.ID.String(),
		TargetID: claim.EmployeeID.String(),
		Message:  fmt.Sprintf("Your %s claim was rejected: %s", claim.Category, reason),
	})
	return claim, nil
}

// Escalate re-queues a pending claim at a higher authority level. The claim
// stays PENDING; only the escalation level moves.
func (w *Workflow) Escalate(ctx context.Context, claimID uuid.UUID, actor Actor, reason string) (*model.Claim, error) {
	if !model.ReviewerRole(actor.Role) {
		return nil, &apperr.PermissionError{Role: actor.Role, Operation: "escalate claims"}
	}

	claim, err := w.store.Transition(ctx, claimID, func(c *model.Claim) error {
		if c.Status != model.ClaimStatusPending {
			return &apperr.InvalidTransitionError{ClaimID: claimID.String(), From: c.Status, Action: model.ActionEscalate}
		}
		c.EscalationLevel++
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.record(ctx, claim, actor, model.ActionEscalate, reason)
	w.notifier.Send(ctx, notify.Event{
		Type:    "claim-escalated",
		ClaimID: claim.ID.String(),
		Message: fmt.Sprintf("Claim %s escalated to level %d", claim.ID, claim.EscalationLevel),
	})
	return claim, nil
}

// record appends the transition to the immutable approval log. A failed
// append does not undo the decision; the resync job reconciles on the next
// pass and the gap is visible in the log.
func (w *Workflow) record(ctx context.Context, claim *model.Claim, actor Actor, action, reason string) {
	event := &model.ApprovalEvent{
		ClaimID:   claim.ID,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Action:    action,
		Reason:    reason,
	}
	if err := w.events.Append(ctx, event); err != nil {
		log.Printf("approval event append failed for claim %s: %v", claim.ID, err)
	}
}
