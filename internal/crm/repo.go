package crm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estatedesk/estatedesk/internal/shared"
)

// repo implements Repository interface.
type repo struct {
	db *pgxpool.Pool
}

// NewRepository creates a new CRM repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repo{db: db}
}

func pageLimits(filters ListFilters) (limit, offset int) {
	limit = filters.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// Client operations
func (r *repo) ListClients(ctx context.Context, filters ListFilters) ([]Client, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filters.OwnerID != nil {
		args = append(args, *filters.OwnerID)
		where = append(where, "owner_id = $"+strconv.Itoa(len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(name ILIKE $"+n+" OR phone ILIKE $"+n+")")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageLimits(filters)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, name, email, phone, cnic, address, city_id, owner_id, created_at, updated_at
		FROM clients WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CNIC, &c.Address, &c.CityID,
			&c.OwnerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		clients = append(clients, c)
	}
	return clients, total, rows.Err()
}

func (r *repo) GetClient(ctx context.Context, id int64) (Client, error) {
	var c Client
	err := r.db.QueryRow(ctx, `
		SELECT id, name, email, phone, cnic, address, city_id, owner_id, created_at, updated_at
		FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CNIC, &c.Address, &c.CityID,
			&c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, shared.ErrNotFound
	}
	return c, err
}

func (r *repo) CreateClient(ctx context.Context, client Client) (Client, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO clients (name, email, phone, cnic, address, city_id, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING id`,
		client.Name, client.Email, client.Phone, client.CNIC, client.Address,
		client.CityID, client.OwnerID, now).Scan(&client.ID)
	if err != nil {
		return Client{}, err
	}
	client.CreatedAt = now
	client.UpdatedAt = now
	return client, nil
}

func (r *repo) UpdateClient(ctx context.Context, id int64, client Client) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE clients SET name = $1, email = $2, phone = $3, cnic = $4, address = $5,
			city_id = $6, updated_at = $7
		WHERE id = $8`,
		client.Name, client.Email, client.Phone, client.CNIC, client.Address,
		client.CityID, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) DeleteClient(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Lead operations
func (r *repo) ListLeads(ctx context.Context, filters ListFilters) ([]Lead, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filters.OwnerID != nil {
		args = append(args, *filters.OwnerID)
		n := strconv.Itoa(len(args))
		where = append(where, "(assigned_to = $"+n+" OR created_by = $"+n+")")
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(name ILIKE $"+n+" OR phone ILIKE $"+n+")")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageLimits(filters)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, name, phone, email, source, status, interested_in, assigned_to, created_by, created_at, updated_at
		FROM leads WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Phone, &l.Email, &l.Source, &l.Status, &l.InterestedIn,
			&l.AssignedTo, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, 0, err
		}
		leads = append(leads, l)
	}
	return leads, total, rows.Err()
}

func (r *repo) GetLead(ctx context.Context, id int64) (Lead, error) {
	var l Lead
	err := r.db.QueryRow(ctx, `
		SELECT id, name, phone, email, source, status, interested_in, assigned_to, created_by, created_at, updated_at
		FROM leads WHERE id = $1`, id).
		Scan(&l.ID, &l.Name, &l.Phone, &l.Email, &l.Source, &l.Status, &l.InterestedIn,
			&l.AssignedTo, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, shared.ErrNotFound
	}
	return l, err
}

func (r *repo) CreateLead(ctx context.Context, lead Lead) (Lead, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO leads (name, phone, email, source, status, interested_in, assigned_to, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING id`,
		lead.Name, lead.Phone, lead.Email, lead.Source, lead.Status, lead.InterestedIn,
		lead.AssignedTo, lead.CreatedBy, now).Scan(&lead.ID)
	if err != nil {
		return Lead{}, err
	}
	lead.CreatedAt = now
	lead.UpdatedAt = now
	return lead, nil
}

func (r *repo) UpdateLead(ctx context.Context, id int64, lead Lead) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE leads SET name = $1, phone = $2, email = $3, source = $4, status = $5,
			interested_in = $6, assigned_to = $7, updated_at = $8
		WHERE id = $9`,
		lead.Name, lead.Phone, lead.Email, lead.Source, lead.Status,
		lead.InterestedIn, lead.AssignedTo, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) DeleteLead(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FollowUp operations
func (r *repo) ListFollowUps(ctx context.Context, leadID int64) ([]FollowUp, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, lead_id, note, due_at, done_at, created_by, created_at
		FROM followups WHERE lead_id = $1 ORDER BY due_at`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var followUps []FollowUp
	for rows.Next() {
		var f FollowUp
		if err := rows.Scan(&f.ID, &f.LeadID, &f.Note, &f.DueAt, &f.DoneAt, &f.CreatedBy, &f.CreatedAt); err != nil {
			return nil, err
		}
		followUps = append(followUps, f)
	}
	return followUps, rows.Err()
}

func (r *repo) CreateFollowUp(ctx context.Context, followUp FollowUp) (FollowUp, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO followups (lead_id, note, due_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		followUp.LeadID, followUp.Note, followUp.DueAt, followUp.CreatedBy, now).Scan(&followUp.ID)
	if err != nil {
		return FollowUp{}, err
	}
	followUp.CreatedAt = now
	return followUp, nil
}

func (r *repo) CompleteFollowUp(ctx context.Context, id int64, doneAt time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE followups SET done_at = $1 WHERE id = $2 AND done_at IS NULL`, doneAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) DeleteFollowUp(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM followups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Deal operations
func (r *repo) ListDeals(ctx context.Context, filters ListFilters) ([]Deal, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filters.OwnerID != nil {
		args = append(args, *filters.OwnerID)
		where = append(where, "created_by = $"+strconv.Itoa(len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM deals WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageLimits(filters)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, client_id, lead_id, plot_id, property_id, amount, status, notes,
			created_by, approved_by, created_at, updated_at
		FROM deals WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		var d Deal
		if err := rows.Scan(&d.ID, &d.ClientID, &d.LeadID, &d.PlotID, &d.PropertyID, &d.Amount,
			&d.Status, &d.Notes, &d.CreatedBy, &d.ApprovedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		deals = append(deals, d)
	}
	return deals, total, rows.Err()
}

func (r *repo) GetDeal(ctx context.Context, id int64) (Deal, error) {
	var d Deal
	err := r.db.QueryRow(ctx, `
		SELECT id, client_id, lead_id, plot_id, property_id, amount, status, notes,
			created_by, approved_by, created_at, updated_at
		FROM deals WHERE id = $1`, id).
		Scan(&d.ID, &d.ClientID, &d.LeadID, &d.PlotID, &d.PropertyID, &d.Amount,
			&d.Status, &d.Notes, &d.CreatedBy, &d.ApprovedBy, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Deal{}, shared.ErrNotFound
	}
	return d, err
}

func (r *repo) CreateDeal(ctx context.Context, deal Deal) (Deal, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO deals (client_id, lead_id, plot_id, property_id, amount, status, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING id`,
		deal.ClientID, deal.LeadID, deal.PlotID, deal.PropertyID, deal.Amount,
		deal.Status, deal.Notes, deal.CreatedBy, now).Scan(&deal.ID)
	if err != nil {
		return Deal{}, err
	}
	deal.CreatedAt = now
	deal.UpdatedAt = now
	return deal, nil
}

func (r *repo) UpdateDeal(ctx context.Context, id int64, deal Deal) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE deals SET client_id = $1, lead_id = $2, plot_id = $3, property_id = $4,
			amount = $5, notes = $6, updated_at = $7
		WHERE id = $8`,
		deal.ClientID, deal.LeadID, deal.PlotID, deal.PropertyID,
		deal.Amount, deal.Notes, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) SetDealStatus(ctx context.Context, id int64, status string, approvedBy *int64) error {
	var tag pgconn.CommandTag
	var err error
	if approvedBy != nil {
		tag, err = r.db.Exec(ctx, `UPDATE deals SET status = $1, approved_by = $2, updated_at = $3 WHERE id = $4`,
			status, *approvedBy, time.Now(), id)
	} else {
		tag, err = r.db.Exec(ctx, `UPDATE deals SET status = $1, updated_at = $2 WHERE id = $3`,
			status, time.Now(), id)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Expense operations
func (r *repo) ListExpenses(ctx context.Context, filters ListFilters) ([]Expense, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filters.OwnerID != nil {
		args = append(args, *filters.OwnerID)
		where = append(where, "created_by = $"+strconv.Itoa(len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where = append(where, "category ILIKE $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM expenses WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageLimits(filters)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, category, amount, note, spent_at, status, created_by, approved_by, created_at, updated_at
		FROM expenses WHERE %s ORDER BY spent_at DESC, id LIMIT $%d OFFSET $%d`,
		cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Category, &e.Amount, &e.Note, &e.SpentAt, &e.Status,
			&e.CreatedBy, &e.ApprovedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		expenses = append(expenses, e)
	}
	return expenses, total, rows.Err()
}

func (r *repo) GetExpense(ctx context.Context, id int64) (Expense, error) {
	var e Expense
	err := r.db.QueryRow(ctx, `
		SELECT id, category, amount, note, spent_at, status, created_by, approved_by, created_at, updated_at
		FROM expenses WHERE id = $1`, id).
		Scan(&e.ID, &e.Category, &e.Amount, &e.Note, &e.SpentAt, &e.Status,
			&e.CreatedBy, &e.ApprovedBy, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Expense{}, shared.ErrNotFound
	}
	return e, err
}

func (r *repo) CreateExpense(ctx context.Context, expense Expense) (Expense, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO expenses (category, amount, note, spent_at, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
		expense.Category, expense.Amount, expense.Note, expense.SpentAt,
		expense.Status, expense.CreatedBy, now).Scan(&expense.ID)
	if err != nil {
		return Expense{}, err
	}
	expense.CreatedAt = now
	expense.UpdatedAt = now
	return expense, nil
}

func (r *repo) UpdateExpense(ctx context.Context, id int64, expense Expense) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE expenses SET category = $1, amount = $2, note = $3, spent_at = $4, updated_at = $5
		WHERE id = $6`,
		expense.Category, expense.Amount, expense.Note, expense.SpentAt, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) SetExpenseStatus(ctx context.Context, id int64, status string, approvedBy int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE expenses SET status = $1, approved_by = $2, updated_at = $3 WHERE id = $4`,
		status, approvedBy, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) DeleteExpense(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
