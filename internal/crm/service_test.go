package crm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/estatedesk/estatedesk/internal/shared"
)

type memoryCRMRepo struct {
	nextID    int64
	clients   map[int64]Client
	leads     map[int64]Lead
	followUps map[int64]FollowUp
	deals     map[int64]Deal
	expenses  map[int64]Expense
}

func newMemoryCRMRepo() *memoryCRMRepo {
	return &memoryCRMRepo{
		nextID:    1,
		clients:   map[int64]Client{},
		leads:     map[int64]Lead{},
		followUps: map[int64]FollowUp{},
		deals:     map[int64]Deal{},
		expenses:  map[int64]Expense{},
	}
}

func (m *memoryCRMRepo) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memoryCRMRepo) ListClients(ctx context.Context, filters ListFilters) ([]Client, int, error) {
	var out []Client
	for _, c := range m.clients {
		if filters.OwnerID != nil && c.OwnerID != *filters.OwnerID {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *memoryCRMRepo) GetClient(ctx context.Context, id int64) (Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return Client{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *memoryCRMRepo) CreateClient(ctx context.Context, client Client) (Client, error) {
	client.ID = m.id()
	m.clients[client.ID] = client
	return client, nil
}

func (m *memoryCRMRepo) UpdateClient(ctx context.Context, id int64, client Client) error {
	if _, ok := m.clients[id]; !ok {
		return shared.ErrNotFound
	}
	client.ID = id
	m.clients[id] = client
	return nil
}

func (m *memoryCRMRepo) DeleteClient(ctx context.Context, id int64) error {
	if _, ok := m.clients[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.clients, id)
	return nil
}

func (m *memoryCRMRepo) ListLeads(ctx context.Context, filters ListFilters) ([]Lead, int, error) {
	var out []Lead
	for _, l := range m.leads {
		if filters.OwnerID != nil {
			owned := l.CreatedBy == *filters.OwnerID ||
				(l.AssignedTo != nil && *l.AssignedTo == *filters.OwnerID)
			if !owned {
				continue
			}
		}
		if filters.Status != "" && l.Status != filters.Status {
			continue
		}
		out = append(out, l)
	}
	return out, len(out), nil
}

func (m *memoryCRMRepo) GetLead(ctx context.Context, id int64) (Lead, error) {
	l, ok := m.leads[id]
	if !ok {
		return Lead{}, shared.ErrNotFound
	}
	return l, nil
}

func (m *memoryCRMRepo) CreateLead(ctx context.Context, lead Lead) (Lead, error) {
	lead.ID = m.id()
	m.leads[lead.ID] = lead
	return lead, nil
}

func (m *memoryCRMRepo) UpdateLead(ctx context.Context, id int64, lead Lead) error {
	if _, ok := m.leads[id]; !ok {
		return shared.ErrNotFound
	}
	lead.ID = id
	m.leads[id] = lead
	return nil
}

func (m *memoryCRMRepo) DeleteLead(ctx context.Context, id int64) error {
	if _, ok := m.leads[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

func (m *memoryCRMRepo) ListFollowUps(ctx context.Context, leadID int64) ([]FollowUp, error) {
	var out []FollowUp
	for _, f := range m.followUps {
		if f.LeadID == leadID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memoryCRMRepo) CreateFollowUp(ctx context.Context, followUp FollowUp) (FollowUp, error) {
	followUp.ID = m.id()
	m.followUps[followUp.ID] = followUp
	return followUp, nil
}

func (m *memoryCRMRepo) CompleteFollowUp(ctx context.Context, id int64, doneAt time.Time) error {
	f, ok := m.followUps[id]
	if !ok || f.DoneAt != nil {
		return shared.ErrNotFound
	}
	f.DoneAt = &doneAt
	m.followUps[id] = f
	return nil
}

func (m *memoryCRMRepo) DeleteFollowUp(ctx context.Context, id int64) error {
	if _, ok := m.followUps[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.followUps, id)
	return nil
}

func (m *memoryCRMRepo) ListDeals(ctx context.Context, filters ListFilters) ([]Deal, int, error) {
	var out []Deal
	for _, d := range m.deals {
		if filters.OwnerID != nil && d.CreatedBy != *filters.OwnerID {
			continue
		}
		if filters.Status != "" && d.Status != filters.Status {
			continue
		}
		out = append(out, d)
	}
	return out, len(out), nil
}

func (m *memoryCRMRepo) GetDeal(ctx context.Context, id int64) (Deal, error) {
	d, ok := m.deals[id]
	if !ok {
		return Deal{}, shared.ErrNotFound
	}
	return d, nil
}

func (m *memoryCRMRepo) CreateDeal(ctx context.Context, deal Deal) (Deal, error) {
	deal.ID = m.id()
	m.deals[deal.ID] = deal
	return deal, nil
}

func (m *memoryCRMRepo) UpdateDeal(ctx context.Context, id int64, deal Deal) error {
	current, ok := m.deals[id]
	if !ok {
		return shared.ErrNotFound
	}
	deal.ID = id
	deal.Status = current.Status
	m.deals[id] = deal
	return nil
}

func (m *memoryCRMRepo) SetDealStatus(ctx context.Context, id int64, status string, approvedBy *int64) error {
	d, ok := m.deals[id]
	if !ok {
		return shared.ErrNotFound
	}
	d.Status = status
	if approvedBy != nil {
		d.ApprovedBy = approvedBy
	}
	m.deals[id] = d
	return nil
}

func (m *memoryCRMRepo) ListExpenses(ctx context.Context, filters ListFilters) ([]Expense, int, error) {
	var out []Expense
	for _, e := range m.expenses {
		if filters.OwnerID != nil && e.CreatedBy != *filters.OwnerID {
			continue
		}
		if filters.Status != "" && e.Status != filters.Status {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

func (m *memoryCRMRepo) GetExpense(ctx context.Context, id int64) (Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return Expense{}, shared.ErrNotFound
	}
	return e, nil
}

func (m *memoryCRMRepo) CreateExpense(ctx context.Context, expense Expense) (Expense, error) {
	expense.ID = m.id()
	m.expenses[expense.ID] = expense
	return expense, nil
}

func (m *memoryCRMRepo) UpdateExpense(ctx context.Context, id int64, expense Expense) error {
	current, ok := m.expenses[id]
	if !ok {
		return shared.ErrNotFound
	}
	expense.ID = id
	expense.Status = current.Status
	m.expenses[id] = expense
	return nil
}

func (m *memoryCRMRepo) SetExpenseStatus(ctx context.Context, id int64, status string, approvedBy int64) error {
	e, ok := m.expenses[id]
	if !ok {
		return shared.ErrNotFound
	}
	e.Status = status
	e.ApprovedBy = &approvedBy
	m.expenses[id] = e
	return nil
}

func (m *memoryCRMRepo) DeleteExpense(ctx context.Context, id int64) error {
	if _, ok := m.expenses[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func newDeal(t *testing.T, svc *Service) Deal {
	t.Helper()
	plotID := int64(7)
	deal, err := svc.CreateDeal(context.Background(), Deal{
		ClientID:  1,
		PlotID:    &plotID,
		Amount:    5000000,
		CreatedBy: 3,
	})
	require.NoError(t, err)
	return deal
}

func TestCreateDealStartsOpen(t *testing.T) {
	svc := NewService(newMemoryCRMRepo())
	deal := newDeal(t, svc)
	require.Equal(t, DealOpen, deal.Status)
}

func TestCreateDealValidation(t *testing.T) {
	svc := NewService(newMemoryCRMRepo())
	ctx := context.Background()
	plotID := int64(7)

	_, err := svc.CreateDeal(ctx, Deal{PlotID: &plotID, Amount: 100})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateDeal(ctx, Deal{ClientID: 1, PlotID: &plotID, Amount: 0})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateDeal(ctx, Deal{ClientID: 1, Amount: 100})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDealLifecycle(t *testing.T) {
	repo := newMemoryCRMRepo()
	svc := NewService(repo)
	ctx := context.Background()
	deal := newDeal(t, svc)

	// Closing an open deal skips approval and is rejected.
	require.ErrorIs(t, svc.CloseDeal(ctx, deal.ID), ErrInvalidTransition)

	require.NoError(t, svc.ApproveDeal(ctx, deal.ID, 9))
	got, err := svc.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	require.Equal(t, DealApproved, got.Status)
	require.NotNil(t, got.ApprovedBy)
	require.Equal(t, int64(9), *got.ApprovedBy)

	// Approved deals cannot be edited or re-approved.
	require.ErrorIs(t, svc.UpdateDeal(ctx, deal.ID, got), ErrInvalidTransition)
	require.ErrorIs(t, svc.ApproveDeal(ctx, deal.ID, 9), ErrInvalidTransition)

	require.NoError(t, svc.CloseDeal(ctx, deal.ID))
	got, err = svc.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	require.Equal(t, DealClosed, got.Status)

	// Closed is terminal.
	require.ErrorIs(t, svc.CancelDeal(ctx, deal.ID), ErrInvalidTransition)
}

func TestCancelOpenDeal(t *testing.T) {
	svc := NewService(newMemoryCRMRepo())
	deal := newDeal(t, svc)

	require.NoError(t, svc.CancelDeal(context.Background(), deal.ID))
	got, err := svc.GetDeal(context.Background(), deal.ID)
	require.NoError(t, err)
	require.Equal(t, DealCancelled, got.Status)
}

func TestExpenseReviewFlow(t *testing.T) {
	svc := NewService(newMemoryCRMRepo())
	ctx := context.Background()

	expense, err := svc.CreateExpense(ctx, Expense{Category: "office supplies", Amount: 4500, CreatedBy: 2})
	require.NoError(t, err)
	require.Equal(t, ExpensePending, expense.Status)
	require.False(t, expense.SpentAt.IsZero())

	require.NoError(t, svc.ApproveExpense(ctx, expense.ID, 9))
	got, err := svc.GetExpense(ctx, expense.ID)
	require.NoError(t, err)
	require.Equal(t, ExpenseApproved, got.Status)

	require.ErrorIs(t, svc.RejectExpense(ctx, expense.ID, 9), ErrInvalidTransition)
	require.ErrorIs(t, svc.DeleteExpense(ctx, expense.ID), ErrInvalidTransition)
}

func TestRejectedExpenseCanBeDeleted(t *testing.T) {
	svc := NewService(newMemoryCRMRepo())
	ctx := context.Background()

	expense, err := svc.CreateExpense(ctx, Expense{Category: "fuel", Amount: 1200, CreatedBy: 2})
	require.NoError(t, err)
	require.NoError(t, svc.RejectExpense(ctx, expense.ID, 9))
	require.NoError(t, svc.DeleteExpense(ctx, expense.ID))

	_, err = svc.GetExpense(ctx, expense.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFollowUpNeedsExistingLead(t *testing.T) {
	svc := NewService(newMemoryCRMRepo())
	ctx := context.Background()

	_, err := svc.CreateFollowUp(ctx, FollowUp{LeadID: 99, Note: "call back", DueAt: time.Now()})
	require.ErrorIs(t, err, shared.ErrNotFound)

	lead, err := svc.CreateLead(ctx, Lead{Name: "Walk-in", CreatedBy: 1})
	require.NoError(t, err)
	require.Equal(t, LeadNew, lead.Status)

	followUp, err := svc.CreateFollowUp(ctx, FollowUp{LeadID: lead.ID, Note: "call back", DueAt: time.Now().Add(24 * time.Hour)})
	require.NoError(t, err)

	require.NoError(t, svc.CompleteFollowUp(ctx, followUp.ID))
	followUps, err := svc.ListFollowUps(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, followUps, 1)
	require.NotNil(t, followUps[0].DoneAt)
}

func TestLeadOwnershipScoping(t *testing.T) {
	repo := newMemoryCRMRepo()
	svc := NewService(repo)
	ctx := context.Background()

	dealerA, dealerB := int64(3), int64(4)
	_, err := svc.CreateLead(ctx, Lead{Name: "Lead A", CreatedBy: dealerA})
	require.NoError(t, err)
	_, err = svc.CreateLead(ctx, Lead{Name: "Lead B", CreatedBy: dealerB})
	require.NoError(t, err)
	_, err = svc.CreateLead(ctx, Lead{Name: "Lead C", CreatedBy: dealerB, AssignedTo: &dealerA})
	require.NoError(t, err)

	mine, total, err := svc.ListLeads(ctx, ListFilters{OwnerID: &dealerA})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, mine, 2)

	all, total, err := svc.ListLeads(ctx, ListFilters{})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, all, 3)
}
