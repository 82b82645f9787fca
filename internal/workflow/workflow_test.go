package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"claimdesk/internal/apperr"
	"claimdesk/internal/eventbus"
	"claimdesk/internal/fraud"
	"claimdesk/internal/model"
	"claimdesk/internal/notify"
	"claimdesk/internal/repository"
	"claimdesk/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memClaimRepo struct {
	mu     sync.Mutex
	claims map[uuid.UUID]model.Claim
}

func (r *memClaimRepo) FetchClaims(context.Context, repository.ClaimFilter) ([]model.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Claim
	for _, c := range r.claims {
		out = append(out, c)
	}
	return out, nil
}

func (r *memClaimRepo) CreateClaim(_ context.Context, claim *model.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims[claim.ID] = *claim
	return nil
}

func (r *memClaimRepo) UpdateClaim(_ context.Context, claim *model.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims[claim.ID] = *claim
	return nil
}

func (r *memClaimRepo) DeleteClaim(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.claims, id)
	return nil
}

type memEventRepo struct {
	mu     sync.Mutex
	events []model.ApprovalEvent
}

func (r *memEventRepo) Append(_ context.Context, event *model.ApprovalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *memEventRepo) ListByClaim(_ context.Context, claimID uuid.UUID) ([]model.ApprovalEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ApprovalEvent
	for _, ev := range r.events {
		if ev.ClaimID == claimID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *memEventRepo) List(context.Context, int, int) ([]model.ApprovalEvent, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ApprovalEvent(nil), r.events...), int64(len(r.events)), nil
}

type fixture struct {
	store  *store.Store
	events *memEventRepo
	wf     *Workflow
	bus    *eventbus.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bus := eventbus.New()
	st := store.New(&memClaimRepo{claims: make(map[uuid.UUID]model.Claim)}, bus, fraud.NewScorer(fraud.DefaultConfig()))
	st.SetClock(func() time.Time { return time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC) })
	events := &memEventRepo{}
	return &fixture{
		store:  st,
		events: events,
		wf:     New(st, events, notify.NewNotifier(notify.LogSink{}, bus)),
		bus:    bus,
	}
}

func (f *fixture) pendingClaim(t *testing.T) *model.Claim {
	t.Helper()
	claim, err := f.store.Create(context.Background(), store.CreateClaimInput{
		EmployeeID:   uuid.New(),
		EmployeeName: "Dana Reyes",
		Department:   "Engineering",
		Amount:       decimal.NewFromFloat(120),
		Category:     model.CategoryTravel,
		Description:  "airport transfer",
		ExpenseDate:  time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		Attachments:  []model.Attachment{{URL: "https://files.example/r.pdf"}},
	})
	require.NoError(t, err)
	return claim
}

func manager() Actor {
	return Actor{ID: uuid.New(), Name: "Priya Nair", Role: model.RoleManager}
}

func TestApproveFromPending(t *testing.T) {
	f := newFixture(t)
	claim := f.pendingClaim(t)
	actor := manager()

	approved, err := f.wf.Approve(context.Background(), claim.ID, actor, "looks fine")
	require.NoError(t, err)

	assert.Equal(t, model.ClaimStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewerID)
	assert.Equal(t, actor.ID, *approved.ReviewerID)
	assert.Equal(t, "looks fine", approved.ReviewerComment)
	assert.NotNil(t, approved.DecidedAt)

	events, err := f.events.ListByClaim(context.Background(), claim.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.ActionApprove, events[0].Action)
	assert.Equal(t, model.RoleManager, events[0].ActorRole)
}

func TestSecondDecisionOnDecidedClaimFails(t *testing.T) {
	f := newFixture(t)
	claim := f.pendingClaim(t)

	_, err := f.wf.Approve(context.Background(), claim.ID, manager(), "")
	require.NoError(t, err)

	before, err := f.store.Get(claim.ID)
	require.NoError(t, err)

	_, err = f.wf.Approve(context.Background(), claim.ID, Actor{ID: uuid.New(), Role: model.RoleHR}, "")
	var it *apperr.InvalidTransitionError
	require.ErrorAs(t, err, &it)

	after, err := f.store.Get(claim.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after, "losing decision must not touch the claim")
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t)
	claim := f.pendingClaim(t)

	_, err := f.wf.Reject(context.Background(), claim.ID, Actor{ID: uuid.New(), Role: model.RoleHR}, "  ")
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)

	got, err := f.store.Get(claim.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusPending, got.Status, "claim stays pending")
}

func TestRejectRecordsReason(t *testing.T) {
	f := newFixture(t)
	claim := f.pendingClaim(t)

	rejected, err := f.wf.Reject(context.Background(), claim.ID, manager(), "no itemized receipt")
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusRejected, rejected.Status)
	assert.Equal(t, "no itemized receipt", rejected.ReviewerComment)
}

func TestUnauthorizedRoleCannotDecide(t *testing.T) {
	f := newFixture(t)
	claim := f.pendingClaim(t)
	employee := Actor{ID: uuid.New(), Role: model.RoleEmployee}

	var pe *apperr.PermissionError
	_, err := f.wf.Approve(context.Background(), claim.ID, employee, "")
	require.ErrorAs(t, err, &pe)
	_, err = f.wf.Reject(context.Background(), claim.ID, employee, "nope")
	require.ErrorAs(t, err, &pe)
	_, err = f.wf.Escalate(context.Background(), claim.ID, employee, "")
	require.ErrorAs(t, err, &pe)

	got, err := f.store.Get(claim.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusPending, got.Status)
}

func TestEscalateKeepsClaimPending(t *testing.T) {
	f := newFixture(t)
	claim := f.pendingClaim(t)

	escalated, err := f.wf.Escalate(context.Background(), claim.ID, manager(), "above my limit")
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusPending, escalated.Status)
	assert.Equal(t, 1, escalated.EscalationLevel)

	// Escalating again stacks another level.
	escalated, err = f.wf.Escalate(context.Background(), claim.ID, Actor{ID: uuid.New(), Role: model.RoleHR}, "needs admin")
	require.NoError(t, err)
	assert.Equal(t, 2, escalated.EscalationLevel)

	events, err := f.events.ListByClaim(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestUnknownClaim(t *testing.T) {
	f := newFixture(t)

	_, err := f.wf.Approve(context.Background(), uuid.New(), manager(), "")
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestConcurrentDecisionsResolveToOneWinner(t *testing.T) {
	f := newFixture(t)
	claim := f.pendingClaim(t)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.wf.Approve(context.Background(), claim.ID, manager(), "")
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := f.wf.Reject(context.Background(), claim.ID, Actor{ID: uuid.New(), Role: model.RoleHR}, "duplicate")
		errs <- err
	}()
	wg.Wait()
	close(errs)

	wins, losses := 0, 0
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		var it *apperr.InvalidTransitionError
		require.ErrorAs(t, err, &it, "loser must see an invalid transition, got %v", err)
		losses++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	got, err := f.store.Get(claim.ID)
	require.NoError(t, err)
	assert.True(t, got.Terminal())
}
