package files

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxPlanInstallments = 240

// RepositoryPort defines data access methods for property files.
type RepositoryPort interface {
	ListFiles(ctx context.Context, filters ListFilters) ([]PropertyFile, int, error)
	GetFile(ctx context.Context, id int64) (PropertyFile, error)
	GetFileByNumber(ctx context.Context, fileNumber string) (PropertyFile, error)
	CreateFile(ctx context.Context, file PropertyFile) (PropertyFile, error)
	UpdateFile(ctx context.Context, id int64, file PropertyFile) error
	SetFileStatus(ctx context.Context, id int64, status string, closedAt *time.Time) error
	InstallmentCount(ctx context.Context, fileID int64) (int, error)
	InsertPlan(ctx context.Context, fileID int64, lines []PlanLine) error
}

// Service handles property file business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ListFiles returns a page of files with the total count.
func (s *Service) ListFiles(ctx context.Context, filters ListFilters) ([]PropertyFile, int, error) {
	return s.repo.ListFiles(ctx, filters)
}

// GetFile returns a single file by id.
func (s *Service) GetFile(ctx context.Context, id int64) (PropertyFile, error) {
	return s.repo.GetFile(ctx, id)
}

// GetFileByNumber returns a single file by its number.
func (s *Service) GetFileByNumber(ctx context.Context, fileNumber string) (PropertyFile, error) {
	return s.repo.GetFileByNumber(ctx, strings.ToUpper(strings.TrimSpace(fileNumber)))
}

// CreateFile opens a property file. A blank file number gets generated.
func (s *Service) CreateFile(ctx context.Context, file PropertyFile) (PropertyFile, error) {
	file.FileNumber = strings.ToUpper(strings.TrimSpace(file.FileNumber))
	if file.FileNumber == "" {
		file.FileNumber = generateFileNumber()
	}
	if file.ClientID <= 0 {
		return PropertyFile{}, fmt.Errorf("%w: file needs a client", ErrInvalidInput)
	}
	if file.PlotID == nil && file.PropertyID == nil {
		return PropertyFile{}, fmt.Errorf("%w: file needs a plot or a property", ErrInvalidInput)
	}
	if file.TotalPrice <= 0 {
		return PropertyFile{}, fmt.Errorf("%w: total price must be positive", ErrInvalidInput)
	}
	if file.DownPayment < 0 || file.DownPayment > file.TotalPrice {
		return PropertyFile{}, fmt.Errorf("%w: down payment must be between zero and the total price", ErrInvalidInput)
	}
	file.Status = FileActive
	return s.repo.CreateFile(ctx, file)
}

// UpdateFile changes the mutable fields of an active file.
func (s *Service) UpdateFile(ctx context.Context, id int64, file PropertyFile) error {
	current, err := s.repo.GetFile(ctx, id)
	if err != nil {
		return err
	}
	if current.Status != FileActive {
		return fmt.Errorf("%w: only active files can be edited", ErrInvalidInput)
	}
	if file.TotalPrice <= 0 {
		return fmt.Errorf("%w: total price must be positive", ErrInvalidInput)
	}
	return s.repo.UpdateFile(ctx, id, file)
}

// CompleteFile marks an active file as completed.
func (s *Service) CompleteFile(ctx context.Context, id int64) error {
	return s.closeFile(ctx, id, FileCompleted)
}

// CancelFile marks an active file as cancelled.
func (s *Service) CancelFile(ctx context.Context, id int64) error {
	return s.closeFile(ctx, id, FileCancelled)
}

func (s *Service) closeFile(ctx context.Context, id int64, status string) error {
	current, err := s.repo.GetFile(ctx, id)
	if err != nil {
		return err
	}
	if current.Status != FileActive {
		return fmt.Errorf("%w: file already %s", ErrInvalidInput, current.Status)
	}
	closedAt := s.now()
	return s.repo.SetFileStatus(ctx, id, status, &closedAt)
}

// CreatePlan generates the installment schedule for a file: equal
// monthly installments over the financed amount, with any rounding
// remainder carried on the last installment. A file gets exactly one
// plan; regeneration is refused once installments exist.
func (s *Service) CreatePlan(ctx context.Context, fileID int64, input PlanInput) ([]PlanLine, error) {
	if input.Installments < 1 || input.Installments > maxPlanInstallments {
		return nil, fmt.Errorf("%w: installment count must be between 1 and %d", ErrInvalidPlan, maxPlanInstallments)
	}
	if input.FirstDueDate.IsZero() {
		return nil, fmt.Errorf("%w: first due date is required", ErrInvalidPlan)
	}

	file, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.Status != FileActive {
		return nil, fmt.Errorf("%w: file is %s", ErrInvalidPlan, file.Status)
	}

	existing, err := s.repo.InstallmentCount(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrPlanExists
	}

	lines := BuildPlan(file.TotalPrice-file.DownPayment, input.Installments, input.FirstDueDate)
	if err := s.repo.InsertPlan(ctx, fileID, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// BuildPlan splits the financed amount into n monthly installments.
// Amounts are computed in paisa to keep the schedule summing exactly
// to the financed amount.
func BuildPlan(financed float64, n int, firstDue time.Time) []PlanLine {
	totalPaisa := int64(math.Round(financed * 100))
	base := totalPaisa / int64(n)
	remainder := totalPaisa - base*int64(n)

	lines := make([]PlanLine, n)
	for i := 0; i < n; i++ {
		amount := base
		if i == n-1 {
			amount += remainder
		}
		lines[i] = PlanLine{
			Number:    i + 1,
			DueDate:   firstDue.AddDate(0, i, 0),
			AmountDue: float64(amount) / 100,
		}
	}
	return lines
}

func generateFileNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "PF-" + strings.ToUpper(raw[:10])
}
