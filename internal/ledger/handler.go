package ledger

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/estatedesk/estatedesk/internal/observability"
	"github.com/estatedesk/estatedesk/internal/platform/httpx"
	"github.com/estatedesk/estatedesk/internal/rbac"
	"github.com/estatedesk/estatedesk/internal/shared"
)

// ReceiptNotifier queues receipt delivery after a payment commits.
// A nil notifier disables delivery without affecting the payment itself.
type ReceiptNotifier interface {
	NotifyReceipt(ctx context.Context, payment *Payment) error
}

// Handler exposes payment and installment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	audit     *shared.AuditLogger
	metrics   *observability.Metrics
	notifier  ReceiptNotifier
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware, audit *shared.AuditLogger, metrics *observability.Metrics, notifier ReceiptNotifier) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		rbac:      rbacMW,
		audit:     audit,
		metrics:   metrics,
		notifier:  notifier,
		validator: validator.New(),
	}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermPaymentsCreate))
		r.Post("/payments", h.recordPayment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermPaymentsView, shared.PermPaymentsViewAll))
		r.Get("/installments/{id}", h.getInstallment)
		r.Get("/installments/{id}/payments", h.listPayments)
	})
}

type recordPaymentRequest struct {
	InstallmentID int64   `json:"installment_id" validate:"required,gt=0"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Method        string  `json:"method" validate:"required,oneof=cash bank_transfer cheque online"`
	PaidAt        string  `json:"paid_at" validate:"omitempty,datetime=2006-01-02"`
}

type paymentResponse struct {
	ID            int64   `json:"id"`
	InstallmentID int64   `json:"installment_id"`
	ReceiptNumber string  `json:"receipt_number"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	PaidAt        string  `json:"paid_at"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	userID, ok := sess.UserID()
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}

	var req recordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	var paidAt time.Time
	if req.PaidAt != "" {
		paidAt, _ = time.Parse("2006-01-02", req.PaidAt)
	}

	payment, err := h.service.RecordPayment(r.Context(), RecordPaymentInput{
		InstallmentID: req.InstallmentID,
		Amount:        req.Amount,
		Method:        PaymentMethod(req.Method),
		PaidAt:        paidAt,
		RecordedBy:    userID,
	})
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}

	h.metrics.CountPayment("recorded")
	if h.audit != nil {
		if err := h.audit.Record(r.Context(), shared.AuditLog{
			ActorID:  userID,
			Action:   "payment.recorded",
			Entity:   "payment",
			EntityID: payment.ReceiptNumber,
			Meta:     map[string]any{"installment_id": payment.InstallmentID, "amount": payment.Amount},
		}); err != nil {
			h.logger.Warn("audit payment", slog.Any("error", err))
		}
	}
	if h.notifier != nil {
		if err := h.notifier.NotifyReceipt(r.Context(), payment); err != nil {
			h.logger.Warn("queue receipt delivery", slog.String("receipt", payment.ReceiptNumber), slog.Any("error", err))
		}
	}

	httpx.JSON(w, http.StatusCreated, paymentResponse{
		ID:            payment.ID,
		InstallmentID: payment.InstallmentID,
		ReceiptNumber: payment.ReceiptNumber,
		Amount:        payment.Amount,
		Method:        string(payment.Method),
		PaidAt:        payment.PaidAt.Format("2006-01-02"),
	})
}

func (h *Handler) getInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	inst, err := h.service.GetInstallment(r.Context(), id)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inst)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	payments, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payments)
}

func (h *Handler) respondLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrOverpayment):
		h.metrics.CountPayment("overpayment_rejected")
		httpx.Problem(w, http.StatusConflict, "Overpayment", err.Error())
	case errors.Is(err, ErrAlreadySettled):
		h.metrics.CountPayment("settled_rejected")
		httpx.Problem(w, http.StatusConflict, "Already Settled", err.Error())
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidMethod):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("ledger operation", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
