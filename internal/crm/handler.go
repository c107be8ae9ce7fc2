package crm

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/estatedesk/estatedesk/internal/platform/httpx"
	"github.com/estatedesk/estatedesk/internal/rbac"
	"github.com/estatedesk/estatedesk/internal/shared"
)

// Handler manages CRM endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
	authz   *rbac.Service
	audit   *shared.AuditLogger
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware, authz *rbac.Service, audit *shared.AuditLogger) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW, authz: authz, audit: audit}
}

// MountRoutes registers CRM routes.
func (h *Handler) MountRoutes(r chi.Router) {
	// Clients
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermClientsView, shared.PermClientsViewAll))
		r.Get("/clients", h.listClients)
		r.Get("/clients/{id}", h.getClient)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermClientsCreate))
		r.Post("/clients", h.createClient)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermClientsEdit))
		r.Put("/clients/{id}", h.updateClient)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermClientsDelete))
		r.Delete("/clients/{id}", h.deleteClient)
	})

	// Leads and follow-ups
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermLeadsView, shared.PermLeadsViewAll))
		r.Get("/leads", h.listLeads)
		r.Get("/leads/{id}", h.getLead)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermLeadsCreate))
		r.Post("/leads", h.createLead)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermLeadsEdit))
		r.Put("/leads/{id}", h.updateLead)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermLeadsDelete))
		r.Delete("/leads/{id}", h.deleteLead)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermFollowupsView))
		r.Get("/leads/{id}/followups", h.listFollowUps)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermFollowupsCreate))
		r.Post("/leads/{id}/followups", h.createFollowUp)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermFollowupsEdit))
		r.Put("/followups/{id}/done", h.completeFollowUp)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermFollowupsDelete))
		r.Delete("/followups/{id}", h.deleteFollowUp)
	})

	// Deals
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermDealsView, shared.PermDealsViewAll))
		r.Get("/deals", h.listDeals)
		r.Get("/deals/{id}", h.getDeal)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermDealsCreate))
		r.Post("/deals", h.createDeal)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermDealsEdit))
		r.Put("/deals/{id}", h.updateDeal)
		r.Put("/deals/{id}/close", h.closeDeal)
		r.Put("/deals/{id}/cancel", h.cancelDeal)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermDealsApprove))
		r.Put("/deals/{id}/approve", h.approveDeal)
	})

	// Expenses
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermExpensesView, shared.PermExpensesViewAll))
		r.Get("/expenses", h.listExpenses)
		r.Get("/expenses/{id}", h.getExpense)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermExpensesCreate))
		r.Post("/expenses", h.createExpense)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermExpensesEdit))
		r.Put("/expenses/{id}", h.updateExpense)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermExpensesApprove))
		r.Put("/expenses/{id}/approve", h.approveExpense)
		r.Put("/expenses/{id}/reject", h.rejectExpense)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermExpensesDelete))
		r.Delete("/expenses/{id}", h.deleteExpense)
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("crm request failed", slog.Any("error", err))
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

// scopedFilters restricts the listing to the caller's own records
// unless they hold the view_all permission.
func (h *Handler) scopedFilters(r *http.Request, viewAllPerm string) ListFilters {
	q := r.URL.Query()
	filters := ListFilters{Search: q.Get("search"), Status: q.Get("status")}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))

	userID := h.currentUserID(r)
	all, err := h.authz.Can(r.Context(), userID, viewAllPerm)
	if err != nil || !all {
		filters.OwnerID = &userID
	}
	return filters
}

func (h *Handler) recordAudit(r *http.Request, action, entity, entityID string, meta map[string]any) {
	log := shared.AuditLog{ActorID: h.currentUserID(r), Action: action, Entity: entity, EntityID: entityID, Meta: meta}
	if err := h.audit.Record(r.Context(), log); err != nil {
		h.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// Client handlers
func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, total, err := h.service.ListClients(r.Context(), h.scopedFilters(r, shared.PermClientsViewAll))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"clients": clients, "total": total})
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client id")
		return
	}
	client, err := h.service.GetClient(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if all, err := h.authz.Can(r.Context(), h.currentUserID(r), shared.PermClientsViewAll); err == nil && !all {
		if client.OwnerID != h.currentUserID(r) {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "client belongs to another dealer")
			return
		}
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var client Client
	if err := httpx.DecodeJSON(r, &client); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if client.OwnerID == 0 {
		client.OwnerID = h.currentUserID(r)
	}
	created, err := h.service.CreateClient(r.Context(), client)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "client.created", "client", strconv.FormatInt(created.ID, 10), nil)
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client id")
		return
	}
	var client Client
	if err := httpx.DecodeJSON(r, &client); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateClient(r.Context(), id, client); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client id")
		return
	}
	if err := h.service.DeleteClient(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "client.deleted", "client", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

// Lead handlers
func (h *Handler) listLeads(w http.ResponseWriter, r *http.Request) {
	leads, total, err := h.service.ListLeads(r.Context(), h.scopedFilters(r, shared.PermLeadsViewAll))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"leads": leads, "total": total})
}

func (h *Handler) getLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid lead id")
		return
	}
	lead, err := h.service.GetLead(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) createLead(w http.ResponseWriter, r *http.Request) {
	var lead Lead
	if err := httpx.DecodeJSON(r, &lead); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	lead.CreatedBy = h.currentUserID(r)
	created, err := h.service.CreateLead(r.Context(), lead)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "lead.created", "lead", strconv.FormatInt(created.ID, 10), nil)
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updateLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid lead id")
		return
	}
	var lead Lead
	if err := httpx.DecodeJSON(r, &lead); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateLead(r.Context(), id, lead); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid lead id")
		return
	}
	if err := h.service.DeleteLead(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "lead.deleted", "lead", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

// FollowUp handlers
func (h *Handler) listFollowUps(w http.ResponseWriter, r *http.Request) {
	leadID, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid lead id")
		return
	}
	followUps, err := h.service.ListFollowUps(r.Context(), leadID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"followups": followUps})
}

type createFollowUpRequest struct {
	Note  string    `json:"note"`
	DueAt time.Time `json:"due_at"`
}

func (h *Handler) createFollowUp(w http.ResponseWriter, r *http.Request) {
	leadID, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid lead id")
		return
	}
	var req createFollowUpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateFollowUp(r.Context(), FollowUp{
		LeadID:    leadID,
		Note:      req.Note,
		DueAt:     req.DueAt,
		CreatedBy: h.currentUserID(r),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) completeFollowUp(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid follow-up id")
		return
	}
	if err := h.service.CompleteFollowUp(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteFollowUp(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid follow-up id")
		return
	}
	if err := h.service.DeleteFollowUp(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deal handlers
func (h *Handler) listDeals(w http.ResponseWriter, r *http.Request) {
	deals, total, err := h.service.ListDeals(r.Context(), h.scopedFilters(r, shared.PermDealsViewAll))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deals": deals, "total": total})
}

func (h *Handler) getDeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid deal id")
		return
	}
	deal, err := h.service.GetDeal(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, deal)
}

func (h *Handler) createDeal(w http.ResponseWriter, r *http.Request) {
	var deal Deal
	if err := httpx.DecodeJSON(r, &deal); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	deal.CreatedBy = h.currentUserID(r)
	created, err := h.service.CreateDeal(r.Context(), deal)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "deal.created", "deal", strconv.FormatInt(created.ID, 10),
		map[string]any{"amount": created.Amount})
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updateDeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid deal id")
		return
	}
	var deal Deal
	if err := httpx.DecodeJSON(r, &deal); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateDeal(r.Context(), id, deal); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) approveDeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid deal id")
		return
	}
	if err := h.service.ApproveDeal(r.Context(), id, h.currentUserID(r)); err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "deal.approved", "deal", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) closeDeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid deal id")
		return
	}
	if err := h.service.CloseDeal(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "deal.closed", "deal", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cancelDeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid deal id")
		return
	}
	if err := h.service.CancelDeal(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "deal.cancelled", "deal", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

// Expense handlers
func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, total, err := h.service.ListExpenses(r.Context(), h.scopedFilters(r, shared.PermExpensesViewAll))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"expenses": expenses, "total": total})
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expense id")
		return
	}
	expense, err := h.service.GetExpense(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var expense Expense
	if err := httpx.DecodeJSON(r, &expense); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	expense.CreatedBy = h.currentUserID(r)
	created, err := h.service.CreateExpense(r.Context(), expense)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "expense.created", "expense", strconv.FormatInt(created.ID, 10),
		map[string]any{"amount": created.Amount, "category": created.Category})
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expense id")
		return
	}
	var expense Expense
	if err := httpx.DecodeJSON(r, &expense); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateExpense(r.Context(), id, expense); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) approveExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expense id")
		return
	}
	if err := h.service.ApproveExpense(r.Context(), id, h.currentUserID(r)); err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "expense.approved", "expense", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rejectExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expense id")
		return
	}
	if err := h.service.RejectExpense(r.Context(), id, h.currentUserID(r)); err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "expense.rejected", "expense", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expense id")
		return
	}
	if err := h.service.DeleteExpense(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
