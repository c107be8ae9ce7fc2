package files

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/estatedesk/estatedesk/internal/ledger"
	"github.com/estatedesk/estatedesk/internal/platform/httpx"
	"github.com/estatedesk/estatedesk/internal/rbac"
	"github.com/estatedesk/estatedesk/internal/shared"
)

// InstallmentLister exposes the ledger's per-file installment listing.
type InstallmentLister interface {
	ListInstallments(ctx context.Context, fileID int64) ([]ledger.Installment, error)
}

// Handler manages property file endpoints.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	installments InstallmentLister
	rbac         rbac.Middleware
	authz        *rbac.Service
	audit        *shared.AuditLogger
	validator    *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, installments InstallmentLister, rbacMW rbac.Middleware, authz *rbac.Service, audit *shared.AuditLogger) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		installments: installments,
		rbac:         rbacMW,
		authz:        authz,
		audit:        audit,
		validator:    validator.New(),
	}
}

// MountRoutes registers property file routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermFilesView, shared.PermFilesViewAll))
		r.Get("/", h.listFiles)
		r.Get("/{id}", h.getFile)
		r.Get("/{id}/installments", h.listInstallments)
		r.Get("/by-number/{number}", h.getFileByNumber)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermFilesCreate))
		r.Post("/", h.createFile)
		r.Post("/{id}/plan", h.createPlan)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermFilesEdit))
		r.Put("/{id}", h.updateFile)
		r.Put("/{id}/complete", h.completeFile)
		r.Put("/{id}/cancel", h.cancelFile)
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateNumber):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrPlanExists):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidPlan), errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("files request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "unexpected error")
	}
}

func (h *Handler) currentUserID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0
	}
	id, _ := sess.UserID()
	return id
}

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{Search: q.Get("search"), Status: q.Get("status")}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))
	if raw := q.Get("client_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			filters.ClientID = &id
		}
	}

	userID := h.currentUserID(r)
	if all, err := h.authz.Can(r.Context(), userID, shared.PermFilesViewAll); err != nil || !all {
		filters.OwnerID = &userID
	}

	files, total, err := h.service.ListFiles(r.Context(), filters)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"files": files, "total": total})
}

func (h *Handler) getFile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid file id")
		return
	}
	file, err := h.service.GetFile(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, file)
}

func (h *Handler) listInstallments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid file id")
		return
	}
	// The file lookup doubles as the existence check.
	if _, err := h.service.GetFile(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	installments, err := h.installments.ListInstallments(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, installments)
}

func (h *Handler) getFileByNumber(w http.ResponseWriter, r *http.Request) {
	file, err := h.service.GetFileByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, file)
}

type createFileRequest struct {
	FileNumber  string  `json:"file_number"`
	ClientID    int64   `json:"client_id" validate:"required,gt=0"`
	PlotID      *int64  `json:"plot_id"`
	PropertyID  *int64  `json:"property_id"`
	DealerID    *int64  `json:"dealer_id"`
	TotalPrice  float64 `json:"total_price" validate:"required,gt=0"`
	DownPayment float64 `json:"down_payment" validate:"gte=0"`
}

func (h *Handler) createFile(w http.ResponseWriter, r *http.Request) {
	var req createFileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	file, err := h.service.CreateFile(r.Context(), PropertyFile{
		FileNumber:  req.FileNumber,
		ClientID:    req.ClientID,
		PlotID:      req.PlotID,
		PropertyID:  req.PropertyID,
		DealerID:    req.DealerID,
		TotalPrice:  req.TotalPrice,
		DownPayment: req.DownPayment,
		CreatedBy:   h.currentUserID(r),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.recordAudit(r, "file.created", file.FileNumber, map[string]any{"total_price": file.TotalPrice})
	httpx.JSON(w, http.StatusCreated, file)
}

func (h *Handler) updateFile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid file id")
		return
	}
	var file PropertyFile
	if err := httpx.DecodeJSON(r, &file); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateFile(r.Context(), id, file); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createPlanRequest struct {
	Installments int    `json:"installments" validate:"required,gt=0"`
	FirstDueDate string `json:"first_due_date" validate:"required,datetime=2006-01-02"`
}

func (h *Handler) createPlan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid file id")
		return
	}
	var req createPlanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	firstDue, err := time.Parse("2006-01-02", req.FirstDueDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid first due date")
		return
	}

	lines, err := h.service.CreatePlan(r.Context(), id, PlanInput{
		Installments: req.Installments,
		FirstDueDate: firstDue,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.recordAudit(r, "file.plan_created", strconv.FormatInt(id, 10),
		map[string]any{"installments": len(lines)})
	httpx.JSON(w, http.StatusCreated, map[string]any{"installments": lines})
}

func (h *Handler) completeFile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid file id")
		return
	}
	if err := h.service.CompleteFile(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "file.completed", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cancelFile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid file id")
		return
	}
	if err := h.service.CancelFile(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "file.cancelled", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordAudit(r *http.Request, action, entityID string, meta map[string]any) {
	log := shared.AuditLog{ActorID: h.currentUserID(r), Action: action, Entity: "property_file", EntityID: entityID, Meta: meta}
	if err := h.audit.Record(r.Context(), log); err != nil {
		h.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
