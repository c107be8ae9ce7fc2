package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidInput marks validation failures on CRM writes.
	ErrInvalidInput = errors.New("invalid crm input")
	// ErrInvalidTransition marks a disallowed status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)

var leadStatuses = map[string]bool{
	LeadNew:       true,
	LeadContacted: true,
	LeadQualified: true,
	LeadConverted: true,
	LeadLost:      true,
}

// A deal leaves open by approval or cancellation; approved deals close
// or cancel; closed and cancelled deals are terminal.
var dealTransitions = map[string][]string{
	DealOpen:     {DealApproved, DealCancelled},
	DealApproved: {DealClosed, DealCancelled},
}

// Service handles CRM business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Client operations
func (s *Service) ListClients(ctx context.Context, filters ListFilters) ([]Client, int, error) {
	return s.repo.ListClients(ctx, filters)
}

func (s *Service) GetClient(ctx context.Context, id int64) (Client, error) {
	return s.repo.GetClient(ctx, id)
}

func (s *Service) CreateClient(ctx context.Context, client Client) (Client, error) {
	if strings.TrimSpace(client.Name) == "" {
		return Client{}, fmt.Errorf("%w: client name is required", ErrInvalidInput)
	}
	if client.OwnerID <= 0 {
		return Client{}, fmt.Errorf("%w: client needs an owner", ErrInvalidInput)
	}
	return s.repo.CreateClient(ctx, client)
}

func (s *Service) UpdateClient(ctx context.Context, id int64, client Client) error {
	if strings.TrimSpace(client.Name) == "" {
		return fmt.Errorf("%w: client name is required", ErrInvalidInput)
	}
	return s.repo.UpdateClient(ctx, id, client)
}

func (s *Service) DeleteClient(ctx context.Context, id int64) error {
	return s.repo.DeleteClient(ctx, id)
}

// Lead operations
func (s *Service) ListLeads(ctx context.Context, filters ListFilters) ([]Lead, int, error) {
	return s.repo.ListLeads(ctx, filters)
}

func (s *Service) GetLead(ctx context.Context, id int64) (Lead, error) {
	return s.repo.GetLead(ctx, id)
}

func (s *Service) CreateLead(ctx context.Context, lead Lead) (Lead, error) {
	if strings.TrimSpace(lead.Name) == "" {
		return Lead{}, fmt.Errorf("%w: lead name is required", ErrInvalidInput)
	}
	if lead.Status == "" {
		lead.Status = LeadNew
	}
	if !leadStatuses[lead.Status] {
		return Lead{}, fmt.Errorf("%w: unknown lead status %q", ErrInvalidInput, lead.Status)
	}
	return s.repo.CreateLead(ctx, lead)
}

func (s *Service) UpdateLead(ctx context.Context, id int64, lead Lead) error {
	if strings.TrimSpace(lead.Name) == "" {
		return fmt.Errorf("%w: lead name is required", ErrInvalidInput)
	}
	if !leadStatuses[lead.Status] {
		return fmt.Errorf("%w: unknown lead status %q", ErrInvalidInput, lead.Status)
	}
	return s.repo.UpdateLead(ctx, id, lead)
}

func (s *Service) DeleteLead(ctx context.Context, id int64) error {
	return s.repo.DeleteLead(ctx, id)
}

// FollowUp operations
func (s *Service) ListFollowUps(ctx context.Context, leadID int64) ([]FollowUp, error) {
	return s.repo.ListFollowUps(ctx, leadID)
}

func (s *Service) CreateFollowUp(ctx context.Context, followUp FollowUp) (FollowUp, error) {
	if followUp.LeadID <= 0 {
		return FollowUp{}, fmt.Errorf("%w: follow-up needs a lead", ErrInvalidInput)
	}
	if followUp.DueAt.IsZero() {
		return FollowUp{}, fmt.Errorf("%w: follow-up needs a due time", ErrInvalidInput)
	}
	if _, err := s.repo.GetLead(ctx, followUp.LeadID); err != nil {
		return FollowUp{}, err
	}
	return s.repo.CreateFollowUp(ctx, followUp)
}

func (s *Service) CompleteFollowUp(ctx context.Context, id int64) error {
	return s.repo.CompleteFollowUp(ctx, id, s.now())
}

func (s *Service) DeleteFollowUp(ctx context.Context, id int64) error {
	return s.repo.DeleteFollowUp(ctx, id)
}

// Deal operations
func (s *Service) ListDeals(ctx context.Context, filters ListFilters) ([]Deal, int, error) {
	return s.repo.ListDeals(ctx, filters)
}

func (s *Service) GetDeal(ctx context.Context, id int64) (Deal, error) {
	return s.repo.GetDeal(ctx, id)
}

func (s *Service) CreateDeal(ctx context.Context, deal Deal) (Deal, error) {
	if deal.ClientID <= 0 {
		return Deal{}, fmt.Errorf("%w: deal needs a client", ErrInvalidInput)
	}
	if deal.Amount <= 0 {
		return Deal{}, fmt.Errorf("%w: deal amount must be positive", ErrInvalidInput)
	}
	if deal.PlotID == nil && deal.PropertyID == nil {
		return Deal{}, fmt.Errorf("%w: deal needs a plot or a property", ErrInvalidInput)
	}
	deal.Status = DealOpen
	return s.repo.CreateDeal(ctx, deal)
}

func (s *Service) UpdateDeal(ctx context.Context, id int64, deal Deal) error {
	current, err := s.repo.GetDeal(ctx, id)
	if err != nil {
		return err
	}
	if current.Status != DealOpen {
		return fmt.Errorf("%w: only open deals can be edited", ErrInvalidTransition)
	}
	if deal.Amount <= 0 {
		return fmt.Errorf("%w: deal amount must be positive", ErrInvalidInput)
	}
	return s.repo.UpdateDeal(ctx, id, deal)
}

// ApproveDeal moves an open deal to approved.
func (s *Service) ApproveDeal(ctx context.Context, id, approverID int64) error {
	return s.transitionDeal(ctx, id, DealApproved, &approverID)
}

// CloseDeal marks an approved deal as closed.
func (s *Service) CloseDeal(ctx context.Context, id int64) error {
	return s.transitionDeal(ctx, id, DealClosed, nil)
}

// CancelDeal cancels an open or approved deal.
func (s *Service) CancelDeal(ctx context.Context, id int64) error {
	return s.transitionDeal(ctx, id, DealCancelled, nil)
}

func (s *Service) transitionDeal(ctx context.Context, id int64, target string, approvedBy *int64) error {
	deal, err := s.repo.GetDeal(ctx, id)
	if err != nil {
		return err
	}
	for _, next := range dealTransitions[deal.Status] {
		if next == target {
			return s.repo.SetDealStatus(ctx, id, target, approvedBy)
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, deal.Status, target)
}

// Expense operations
func (s *Service) ListExpenses(ctx context.Context, filters ListFilters) ([]Expense, int, error) {
	return s.repo.ListExpenses(ctx, filters)
}

func (s *Service) GetExpense(ctx context.Context, id int64) (Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

func (s *Service) CreateExpense(ctx context.Context, expense Expense) (Expense, error) {
	if strings.TrimSpace(expense.Category) == "" {
		return Expense{}, fmt.Errorf("%w: expense category is required", ErrInvalidInput)
	}
	if expense.Amount <= 0 {
		return Expense{}, fmt.Errorf("%w: expense amount must be positive", ErrInvalidInput)
	}
	if expense.SpentAt.IsZero() {
		expense.SpentAt = s.now()
	}
	expense.Status = ExpensePending
	return s.repo.CreateExpense(ctx, expense)
}

func (s *Service) UpdateExpense(ctx context.Context, id int64, expense Expense) error {
	current, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if current.Status != ExpensePending {
		return fmt.Errorf("%w: only pending expenses can be edited", ErrInvalidTransition)
	}
	if expense.Amount <= 0 {
		return fmt.Errorf("%w: expense amount must be positive", ErrInvalidInput)
	}
	return s.repo.UpdateExpense(ctx, id, expense)
}

// ApproveExpense settles a pending expense as approved.
func (s *Service) ApproveExpense(ctx context.Context, id, approverID int64) error {
	return s.reviewExpense(ctx, id, ExpenseApproved, approverID)
}

// RejectExpense settles a pending expense as rejected.
func (s *Service) RejectExpense(ctx context.Context, id, approverID int64) error {
	return s.reviewExpense(ctx, id, ExpenseRejected, approverID)
}

func (s *Service) reviewExpense(ctx context.Context, id int64, status string, approverID int64) error {
	expense, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if expense.Status != ExpensePending {
		return fmt.Errorf("%w: expense already %s", ErrInvalidTransition, expense.Status)
	}
	return s.repo.SetExpenseStatus(ctx, id, status, approverID)
}

func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	expense, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if expense.Status == ExpenseApproved {
		return fmt.Errorf("%w: approved expenses cannot be deleted", ErrInvalidTransition)
	}
	return s.repo.DeleteExpense(ctx, id)
}
