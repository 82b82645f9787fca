package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"claimdesk/internal/apperr"
	"claimdesk/internal/eventbus"
	"claimdesk/internal/fraud"
	"claimdesk/internal/model"
	"claimdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateClaimInput carries everything needed to submit a claim. TaxAmount is
// optional; when nil the store derives it from the configured tax rate.
type CreateClaimInput struct {
	EmployeeID   uuid.UUID
	EmployeeName string
	Department   string
	Amount       decimal.Decimal
	Currency     string
	TaxAmount    *decimal.Decimal
	Category     string
	Description  string
	Vendor       string
	ExpenseDate  time.Time
	Attachments  []model.Attachment
	Draft        bool
}

// UpdatePatch merges onto a stored claim. Nil fields are left untouched.
type UpdatePatch struct {
	Amount      *decimal.Decimal
	TaxAmount   *decimal.Decimal
	Category    *string
	Description *string
	Vendor      *string
	Department  *string
	ExpenseDate *time.Time
}

// Filter narrows ListByFilter. Zero values mean "no constraint".
type Filter struct {
	Department    string
	Status        string
	Category      string
	EscalatedOnly bool
}

// Snapshot is a point-in-time value copy of the claim set. Aggregations over
// the same version are guaranteed to see identical data.
type Snapshot struct {
	Version uint64
	Claims  []model.Claim
}

// Store is the authoritative in-memory claim set for the session. Mutations
// persist through the repository first and publish exactly one invalidation
// event afterwards, so subscribers never observe state the durable store
// does not also hold.
type Store struct {
	repo   repository.ClaimRepository
	bus    *eventbus.Bus
	scorer *fraud.Scorer
	now    func() time.Time

	mu      sync.RWMutex
	claims  map[uuid.UUID]*model.Claim
	version uint64
}

// New builds an empty store. Call Load to hydrate it from the repository.
func New(repo repository.ClaimRepository, bus *eventbus.Bus, scorer *fraud.Scorer) *Store {
	return &Store{
		repo:   repo,
		bus:    bus,
		scorer: scorer,
		now:    time.Now,
		claims: make(map[uuid.UUID]*model.Claim),
	}
}

// SetClock overrides the store's clock. Tests only.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Load replaces the in-memory set with the repository's current contents.
func (s *Store) Load(ctx context.Context) error {
	claims, err := s.repo.FetchClaims(ctx, repository.ClaimFilter{})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims = make(map[uuid.UUID]*model.Claim, len(claims))
	for i := range claims {
		c := claims[i]
		s.claims[c.ID] = &c
	}
	s.version++
	return nil
}

// Create validates the input, derives tax and fraud fields, persists the
// claim and publishes claims-changed. Validation reports every violated
// field, not just the first.
func (s *Store) Create(ctx context.Context, input CreateClaimInput) (*model.Claim, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	now := s.now()
	status := model.ClaimStatusPending
	if input.Draft {
		status = model.ClaimStatusDraft
	}
	department := strings.TrimSpace(input.Department)
	if department == "" {
		department = model.DepartmentUnknown
	}
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	claim := &model.Claim{
		ID:           uuid.New(),
		EmployeeID:   input.EmployeeID,
		EmployeeName: input.EmployeeName,
		Department:   department,
		Amount:       input.Amount,
		Currency:     currency,
		Category:     input.Category,
		Description:  input.Description,
		Vendor:       input.Vendor,
		ExpenseDate:  input.ExpenseDate,
		SubmittedAt:  now,
		UpdatedAt:    now,
		Status:       status,
	}
	if input.TaxAmount != nil {
		claim.TaxAmount = *input.TaxAmount
	} else {
		claim.TaxAmount = input.Amount.Mul(s.scorer.Config().TaxRate)
	}
	for _, a := range input.Attachments {
		a.ClaimID = claim.ID
		claim.Attachments = append(claim.Attachments, a)
	}

	s.mu.Lock()
	s.rescore(claim)
	if err := s.repo.CreateClaim(ctx, claim); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.claims[claim.ID] = claim
	s.version++
	out := claim.Clone()
	s.mu.Unlock()

	s.bus.Publish(eventbus.TopicClaimsChanged, map[string]any{
		"claim_id": claim.ID.String(),
		"action":   "created",
	})
	return out, nil
}

// Get returns a copy of the claim or a NotFoundError.
func (s *Store) Get(id uuid.UUID) (*model.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claim, ok := s.claims[id]
	if !ok {
		return nil, apperr.NotFound("claim", id.String())
	}
	return claim.Clone(), nil
}

// ListByEmployee returns copies of every claim owned by the employee.
// Ordering is a caller concern.
func (s *Store) ListByEmployee(employeeID uuid.UUID) []*model.Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Claim
	for _, claim := range s.claims {
		if claim.EmployeeID == employeeID {
			out = append(out, claim.Clone())
		}
	}
	return out
}

// ListByFilter returns copies of every claim matching the filter.
func (s *Store) ListByFilter(filter Filter) []*model.Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Claim
	for _, claim := range s.claims {
		if filter.Department != "" && claim.Department != filter.Department {
			continue
		}
		if filter.Status != "" && claim.Status != filter.Status {
			continue
		}
		if filter.Category != "" && claim.Category != filter.Category {
			continue
		}
		if filter.EscalatedOnly && claim.EscalationLevel == 0 {
			continue
		}
		out = append(out, claim.Clone())
	}
	return out
}

// Update merges the patch onto the stored claim, re-derives tax when the
// amount changes without an explicit override, rescores fraud, persists and
// publishes claims-changed.
func (s *Store) Update(ctx context.Context, id uuid.UUID, patch UpdatePatch) (*model.Claim, error) {
	s.mu.Lock()
	stored, ok := s.claims[id]
	if !ok {
		s.mu.Unlock()
		return nil, apperr.NotFound("claim", id.String())
	}

	if stored.Terminal() {
		s.mu.Unlock()
		return nil, &apperr.InvalidTransitionError{ClaimID: id.String(), From: stored.Status, Action: "update"}
	}

	claim := stored.Clone()
	if patch.Amount != nil {
		claim.Amount = *patch.Amount
		if patch.TaxAmount == nil {
			claim.TaxAmount = claim.Amount.Mul(s.scorer.Config().TaxRate)
		}
	}
	if patch.TaxAmount != nil {
		claim.TaxAmount = *patch.TaxAmount
	}
	if patch.Category != nil {
		claim.Category = *patch.Category
	}
	if patch.Description != nil {
		claim.Description = *patch.Description
	}
	if patch.Vendor != nil {
		claim.Vendor = *patch.Vendor
	}
	if patch.Department != nil {
		claim.Department = *patch.Department
	}
	if patch.ExpenseDate != nil {
		claim.ExpenseDate = *patch.ExpenseDate
	}
	if err := validatePatched(claim); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	claim.UpdatedAt = s.now()
	s.rescore(claim)

	if err := s.repo.UpdateClaim(ctx, claim); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.claims[id] = claim
	s.version++
	out := claim.Clone()
	s.mu.Unlock()

	s.bus.Publish(eventbus.TopicClaimsChanged, map[string]any{
		"claim_id": id.String(),
		"action":   "updated",
	})
	return out, nil
}

// Remove deletes the claim locally and from the repository, then publishes
// claims-changed.
func (s *Store) Remove(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.claims[id]; !ok {
		s.mu.Unlock()
		return apperr.NotFound("claim", id.String())
	}
	if err := s.repo.DeleteClaim(ctx, id); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.claims, id)
	s.version++
	s.mu.Unlock()

	s.bus.Publish(eventbus.TopicClaimsChanged, map[string]any{
		"claim_id": id.String(),
		"action":   "removed",
	})
	return nil
}

// Transition applies fn to a copy of the claim under the store's write lock,
// persists the result and publishes claims-changed. The lock is held across
// the precondition check and the repository write, so of two racing
// decisions on the same claim the second always observes the first's result
// and can reject itself.
func (s *Store) Transition(ctx context.Context, id uuid.UUID, fn func(claim *model.Claim) error) (*model.Claim, error) {
	s.mu.Lock()
	stored, ok := s.claims[id]
	if !ok {
		s.mu.Unlock()
		return nil, apperr.NotFound("claim", id.String())
	}

	claim := stored.Clone()
	if err := fn(claim); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	claim.UpdatedAt = s.now()

	if err := s.repo.UpdateClaim(ctx, claim); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.claims[id] = claim
	s.version++
	out := claim.Clone()
	s.mu.Unlock()

	s.bus.Publish(eventbus.TopicClaimsChanged, map[string]any{
		"claim_id": id.String(),
		"action":   "transition",
		"status":   out.Status,
	})
	return out, nil
}

// Snapshot returns value copies of every claim plus the snapshot version.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Version: s.version, Claims: make([]model.Claim, 0, len(s.claims))}
	for _, claim := range s.claims {
		snap.Claims = append(snap.Claims, *claim.Clone())
	}
	return snap
}

// Version reports the current snapshot version.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// rescore recomputes the fraud fields against the current peers. Caller
// holds the write lock.
func (s *Store) rescore(claim *model.Claim) {
	peers := make([]model.Claim, 0, len(s.claims))
	for _, peer := range s.claims {
		peers = append(peers, *peer)
	}
	result := s.scorer.Score(*claim, peers)
	claim.RiskScore = result.Score
	claim.FraudFlags = result.Flags
	claim.Flagged = result.Flagged
}

func validateCreate(input CreateClaimInput) error {
	var violations []apperr.FieldViolation
	if input.EmployeeID == uuid.Nil {
		violations = append(violations, apperr.FieldViolation{Field: "employee_id", Reason: "is required"})
	}
	if !input.Amount.GreaterThan(decimal.Zero) {
		violations = append(violations, apperr.FieldViolation{Field: "amount", Reason: "must be greater than 0"})
	}
	if strings.TrimSpace(input.Category) == "" {
		violations = append(violations, apperr.FieldViolation{Field: "category", Reason: "is required"})
	} else if !model.ValidCategory(input.Category) {
		violations = append(violations, apperr.FieldViolation{Field: "category", Reason: "is not a recognized category"})
	}
	if strings.TrimSpace(input.Description) == "" {
		violations = append(violations, apperr.FieldViolation{Field: "description", Reason: "is required"})
	}
	if len(input.Attachments) == 0 {
		violations = append(violations, apperr.FieldViolation{Field: "attachments", Reason: "at least one receipt is required"})
	}
	if input.ExpenseDate.IsZero() {
		violations = append(violations, apperr.FieldViolation{Field: "expense_date", Reason: "is required"})
	}
	if len(violations) > 0 {
		return apperr.Validation(violations...)
	}
	return nil
}

// validatePatched re-checks the create-level field rules on a claim after a
// patch has been merged, so an update cannot smuggle in values a submission
// would have rejected.
func validatePatched(claim *model.Claim) error {
	var violations []apperr.FieldViolation
	if !claim.Amount.GreaterThan(decimal.Zero) {
		violations = append(violations, apperr.FieldViolation{Field: "amount", Reason: "must be greater than 0"})
	}
	if !model.ValidCategory(claim.Category) {
		violations = append(violations, apperr.FieldViolation{Field: "category", Reason: "is not a recognized category"})
	}
	if strings.TrimSpace(claim.Description) == "" {
		violations = append(violations, apperr.FieldViolation{Field: "description", Reason: "is required"})
	}
	if claim.ExpenseDate.IsZero() {
		violations = append(violations, apperr.FieldViolation{Field: "expense_date", Reason: "is required"})
	}
	if len(violations) > 0 {
		return apperr.Validation(violations...)
	}
	return nil
}
