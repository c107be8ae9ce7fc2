package reports

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/estatedesk/estatedesk/internal/platform/httpx"
	"github.com/estatedesk/estatedesk/internal/rbac"
	"github.com/estatedesk/estatedesk/internal/shared"
)

// Handler manages reporting endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

// MountRoutes registers reporting routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermReportsView))
		r.Get("/collections", h.collections)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermPaymentsView))
		r.Get("/my", h.myCollections)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermReportsFinancial))
		r.Get("/recovery", h.recovery)
	})
}

func (h *Handler) collections(w http.ResponseWriter, r *http.Request) {
	summary, err := h.collect(r, 0)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) myCollections(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	userID, ok := int64(0), false
	if sess != nil {
		userID, ok = sess.UserID()
	}
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
		return
	}
	summary, err := h.collect(r, userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) collect(r *http.Request, recordedBy int64) (CollectionSummary, error) {
	q := r.URL.Query()
	switch q.Get("period") {
	case "", "today":
		return h.service.CollectionsToday(r.Context(), recordedBy)
	case "week":
		return h.service.CollectionsThisWeek(r.Context(), recordedBy)
	case "month":
		return h.service.CollectionsThisMonth(r.Context(), recordedBy)
	case "custom":
		from, err := time.Parse("2006-01-02", q.Get("from"))
		if err != nil {
			return CollectionSummary{}, errBadPeriod
		}
		to, err := time.Parse("2006-01-02", q.Get("to"))
		if err != nil || !from.Before(to) {
			return CollectionSummary{}, errBadPeriod
		}
		return h.service.CollectionsBetween(r.Context(), from, to, recordedBy)
	default:
		return CollectionSummary{}, errBadPeriod
	}
}

func (h *Handler) recovery(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Recovery(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

var errBadPeriod = errors.New("reports: unknown period")

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBadPeriod):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("reports request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "unexpected error")
	}
}
