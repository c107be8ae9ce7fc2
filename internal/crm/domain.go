package crm

import (
	"context"
	"time"
)

// Lead statuses.
const (
	LeadNew       = "new"
	LeadContacted = "contacted"
	LeadQualified = "qualified"
	LeadConverted = "converted"
	LeadLost      = "lost"
)

// Deal statuses.
const (
	DealOpen      = "open"
	DealApproved  = "approved"
	DealClosed    = "closed"
	DealCancelled = "cancelled"
)

// Expense statuses.
const (
	ExpensePending  = "pending"
	ExpenseApproved = "approved"
	ExpenseRejected = "rejected"
)

// Client represents a buyer or investor on the books.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CNIC      string    `json:"cnic"`
	Address   string    `json:"address"`
	CityID    *int64    `json:"city_id,omitempty"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Lead represents a sales lead in the pipeline.
type Lead struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	InterestedIn string    `json:"interested_in"`
	AssignedTo   *int64    `json:"assigned_to,omitempty"`
	CreatedBy    int64     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FollowUp represents a scheduled touch point on a lead.
type FollowUp struct {
	ID        int64      `json:"id"`
	LeadID    int64      `json:"lead_id"`
	Note      string     `json:"note"`
	DueAt     time.Time  `json:"due_at"`
	DoneAt    *time.Time `json:"done_at,omitempty"`
	CreatedBy int64      `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// Deal represents an agreed sale pending or past approval.
type Deal struct {
	ID         int64     `json:"id"`
	ClientID   int64     `json:"client_id"`
	LeadID     *int64    `json:"lead_id,omitempty"`
	PlotID     *int64    `json:"plot_id,omitempty"`
	PropertyID *int64    `json:"property_id,omitempty"`
	Amount     int64     `json:"amount"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes"`
	CreatedBy  int64     `json:"created_by"`
	ApprovedBy *int64    `json:"approved_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Expense represents an office expense entry.
type Expense struct {
	ID         int64     `json:"id"`
	Category   string    `json:"category"`
	Amount     int64     `json:"amount"`
	Note       string    `json:"note"`
	SpentAt    time.Time `json:"spent_at"`
	Status     string    `json:"status"`
	CreatedBy  int64     `json:"created_by"`
	ApprovedBy *int64    `json:"approved_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListFilters represents standard list page filters. OwnerID restricts
// results to records owned by or assigned to that user.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	Status  string
	OwnerID *int64
}

// Repository defines the persistence surface for the CRM.
type Repository interface {
	ListClients(ctx context.Context, filters ListFilters) ([]Client, int, error)
	GetClient(ctx context.Context, id int64) (Client, error)
	CreateClient(ctx context.Context, client Client) (Client, error)
	UpdateClient(ctx context.Context, id int64, client Client) error
	DeleteClient(ctx context.Context, id int64) error

	ListLeads(ctx context.Context, filters ListFilters) ([]Lead, int, error)
	GetLead(ctx context.Context, id int64) (Lead, error)
	CreateLead(ctx context.Context, lead Lead) (Lead, error)
	UpdateLead(ctx context.Context, id int64, lead Lead) error
	DeleteLead(ctx context.Context, id int64) error

	ListFollowUps(ctx context.Context, leadID int64) ([]FollowUp, error)
	CreateFollowUp(ctx context.Context, followUp FollowUp) (FollowUp, error)
	CompleteFollowUp(ctx context.Context, id int64, doneAt time.Time) error
	DeleteFollowUp(ctx context.Context, id int64) error

	ListDeals(ctx context.Context, filters ListFilters) ([]Deal, int, error)
	GetDeal(ctx context.Context, id int64) (Deal, error)
	CreateDeal(ctx context.Context, deal Deal) (Deal, error)
	UpdateDeal(ctx context.Context, id int64, deal Deal) error
	SetDealStatus(ctx context.Context, id int64, status string, approvedBy *int64) error

	ListExpenses(ctx context.Context, filters ListFilters) ([]Expense, int, error)
	GetExpense(ctx context.Context, id int64) (Expense, error)
	CreateExpense(ctx context.Context, expense Expense) (Expense, error)
	UpdateExpense(ctx context.Context, id int64, expense Expense) error
	SetExpenseStatus(ctx context.Context, id int64, status string, approvedBy int64) error
	DeleteExpense(ctx context.Context, id int64) error
}
