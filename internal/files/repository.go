package files

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

	"github.com/estatedesk/estatedesk/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

const fileColumns = `id, file_number, client_id, plot_id, property_id, dealer_id,
	total_price, down_payment, status, created_by, created_at, updated_at, closed_at`

func scanFile(row pgx.Row) (PropertyFile, error) {
	var f PropertyFile
	err := row.Scan(&f.ID, &f.FileNumber, &f.ClientID, &f.PlotID, &f.PropertyID, &f.DealerID,
		&f.TotalPrice, &f.DownPayment, &f.Status, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt, &f.ClosedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PropertyFile{}, ErrNotFound
	}
	return f, err
}

// ListFiles returns a page of property files.
func (r *Repository) ListFiles(ctx context.Context, filters ListFilters) ([]PropertyFile, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filters.ClientID != nil {
		args = append(args, *filters.ClientID)
		where = append(where, "client_id = $"+strconv.Itoa(len(args)))
	}
	if filters.OwnerID != nil {
		args = append(args, *filters.OwnerID)
		n := strconv.Itoa(len(args))
		where = append(where, "(created_by = $"+n+" OR dealer_id = $"+n+")")
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where = append(where, "file_number ILIKE $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM property_files WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count files: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM property_files WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		fileColumns, cond, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []PropertyFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, total, rows.Err()
}

// GetFile returns a single file by id.
func (r *Repository) GetFile(ctx context.Context, id int64) (PropertyFile, error) {
	return scanFile(r.pool.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM property_files WHERE id = $1`, id))
}

// GetFileByNumber returns a single file by its number.
func (r *Repository) GetFileByNumber(ctx context.Context, fileNumber string) (PropertyFile, error) {
	return scanFile(r.pool.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM property_files WHERE file_number = $1`, fileNumber))
}

// CreateFile opens a new property file.
func (r *Repository) CreateFile(ctx context.Context, file PropertyFile) (PropertyFile, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO property_files (file_number, client_id, plot_id, property_id, dealer_id,
			total_price, down_payment, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10) RETURNING id`,
		file.FileNumber, file.ClientID, file.PlotID, file.PropertyID, file.DealerID,
		file.TotalPrice, file.DownPayment, file.Status, file.CreatedBy, now).Scan(&file.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return PropertyFile{}, fmt.Errorf("%w: %s", ErrDuplicateNumber, file.FileNumber)
		}
		return PropertyFile{}, fmt.Errorf("create file: %w", err)
	}
	file.CreatedAt = now
	file.UpdatedAt = now
	return file, nil
}

// UpdateFile changes mutable file fields.
func (r *Repository) UpdateFile(ctx context.Context, id int64, file PropertyFile) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE property_files SET plot_id = $1, property_id = $2, dealer_id = $3,
			total_price = $4, down_payment = $5, updated_at = $6
		WHERE id = $7`,
		file.PlotID, file.PropertyID, file.DealerID,
		file.TotalPrice, file.DownPayment, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFileStatus moves the file to a terminal status.
func (r *Repository) SetFileStatus(ctx context.Context, id int64, status string, closedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE property_files SET status = $1, closed_at = $2, updated_at = $3 WHERE id = $4`,
		status, closedAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("set file status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InstallmentCount reports how many installments the file already has.
func (r *Repository) InstallmentCount(ctx context.Context, fileID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM installments WHERE file_id = $1`, fileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count installments: %w", err)
	}
	return count, nil
}

// InsertPlan writes the generated schedule in one transaction. The
// count guard runs again inside the transaction so two concurrent
// generations cannot both commit.
func (r *Repository) InsertPlan(ctx context.Context, fileID int64, lines []PlanLine) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM property_files WHERE id = $1 FOR UPDATE`, fileID).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM installments WHERE file_id = $1`, fileID).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return ErrPlanExists
		}
		now := time.Now()
		for _, line := range lines {
			if _, err := tx.Exec(ctx, `
				INSERT INTO installments (file_id, number, due_date, amount_due, amount_paid, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, 0, 'pending', $5, $5)`,
				fileID, line.Number, line.DueDate, line.AmountDue, now); err != nil {
				return fmt.Errorf("insert installment %d: %w", line.Number, err)
			}
		}
		return nil
	})
}
