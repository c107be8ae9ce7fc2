package masterdata

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/estatedesk/estatedesk/internal/platform/httpx"
	"github.com/estatedesk/estatedesk/internal/rbac"
	"github.com/estatedesk/estatedesk/internal/shared"
)

// Handler manages master data endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

// MountRoutes registers master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	// Cities ride on the societies permission; they exist to group societies.
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermSocietiesView))
		r.Get("/cities", h.listCities)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermSocietiesCreate))
		r.Post("/cities", h.createCity)
	})

	// Societies
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermSocietiesView))
		r.Get("/societies", h.listSocieties)
		r.Get("/societies/{id}", h.getSociety)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermSocietiesCreate))
		r.Post("/societies", h.createSociety)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermSocietiesEdit))
		r.Put("/societies/{id}", h.updateSociety)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermSocietiesDelete))
		r.Delete("/societies/{id}", h.deleteSociety)
	})

	// Blocks
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermBlocksView))
		r.Get("/blocks", h.listBlocks)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermBlocksCreate))
		r.Post("/blocks", h.createBlock)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermBlocksEdit))
		r.Put("/blocks/{id}", h.updateBlock)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermBlocksDelete))
		r.Delete("/blocks/{id}", h.deleteBlock)
	})

	// Streets
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermStreetsView))
		r.Get("/streets", h.listStreets)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermStreetsCreate))
		r.Post("/streets", h.createStreet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermStreetsEdit))
		r.Put("/streets/{id}", h.updateStreet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermStreetsDelete))
		r.Delete("/streets/{id}", h.deleteStreet)
	})

	// Plots
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermPlotsView))
		r.Get("/plots", h.listPlots)
		r.Get("/plots/{id}", h.getPlot)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermPlotsCreate))
		r.Post("/plots", h.createPlot)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermPlotsEdit))
		r.Put("/plots/{id}", h.updatePlot)
		r.Put("/plots/{id}/status", h.markPlotStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermPlotsAssign))
		r.Put("/plots/{id}/dealer", h.assignPlot)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermPlotsDelete))
		r.Delete("/plots/{id}", h.deletePlot)
	})

	// Properties
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermPropertiesView))
		r.Get("/properties", h.listProperties)
		r.Get("/properties/{id}", h.getProperty)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermPropertiesCreate))
		r.Post("/properties", h.createProperty)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermPropertiesEdit))
		r.Put("/properties/{id}", h.updateProperty)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermPropertiesDelete))
		r.Delete("/properties/{id}", h.deleteProperty)
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("masterdata request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "unexpected error")
	}
}

func queryFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	filters := ListFilters{Search: q.Get("search"), Status: q.Get("status")}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))
	filters.CityID = optionalID(q.Get("city_id"))
	filters.SocietyID = optionalID(q.Get("society_id"))
	filters.BlockID = optionalID(q.Get("block_id"))
	filters.StreetID = optionalID(q.Get("street_id"))
	filters.DealerID = optionalID(q.Get("dealer_id"))
	return filters
}

func optionalID(raw string) *int64 {
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// City handlers
func (h *Handler) listCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.service.ListCities(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"cities": cities})
}

func (h *Handler) createCity(w http.ResponseWriter, r *http.Request) {
	var city City
	if err := httpx.DecodeJSON(r, &city); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateCity(r.Context(), city)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// Society handlers
func (h *Handler) listSocieties(w http.ResponseWriter, r *http.Request) {
	societies, total, err := h.service.ListSocieties(r.Context(), queryFilters(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"societies": societies, "total": total})
}

func (h *Handler) getSociety(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid society id")
		return
	}
	society, err := h.service.GetSociety(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, society)
}

func (h *Handler) createSociety(w http.ResponseWriter, r *http.Request) {
	var society Society
	if err := httpx.DecodeJSON(r, &society); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateSociety(r.Context(), society)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updateSociety(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid society id")
		return
	}
	var society Society
	if err := httpx.DecodeJSON(r, &society); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateSociety(r.Context(), id, society); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteSociety(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid society id")
		return
	}
	if err := h.service.DeleteSociety(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Block handlers
func (h *Handler) listBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.service.ListBlocks(r.Context(), optionalID(r.URL.Query().Get("society_id")))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"blocks": blocks})
}

func (h *Handler) createBlock(w http.ResponseWriter, r *http.Request) {
	var block Block
	if err := httpx.DecodeJSON(r, &block); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateBlock(r.Context(), block)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updateBlock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid block id")
		return
	}
	var block Block
	if err := httpx.DecodeJSON(r, &block); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateBlock(r.Context(), id, block); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteBlock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid block id")
		return
	}
	if err := h.service.DeleteBlock(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Street handlers
func (h *Handler) listStreets(w http.ResponseWriter, r *http.Request) {
	streets, err := h.service.ListStreets(r.Context(), optionalID(r.URL.Query().Get("block_id")))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"streets": streets})
}

func (h *Handler) createStreet(w http.ResponseWriter, r *http.Request) {
	var street Street
	if err := httpx.DecodeJSON(r, &street); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateStreet(r.Context(), street)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updateStreet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid street id")
		return
	}
	var street Street
	if err := httpx.DecodeJSON(r, &street); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateStreet(r.Context(), id, street); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteStreet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid street id")
		return
	}
	if err := h.service.DeleteStreet(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Plot handlers
func (h *Handler) listPlots(w http.ResponseWriter, r *http.Request) {
	plots, total, err := h.service.ListPlots(r.Context(), queryFilters(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"plots": plots, "total": total})
}

func (h *Handler) getPlot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid plot id")
		return
	}
	plot, err := h.service.GetPlot(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, plot)
}

func (h *Handler) createPlot(w http.ResponseWriter, r *http.Request) {
	var plot Plot
	if err := httpx.DecodeJSON(r, &plot); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreatePlot(r.Context(), plot)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updatePlot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid plot id")
		return
	}
	var plot Plot
	if err := httpx.DecodeJSON(r, &plot); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdatePlot(r.Context(), id, plot); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignPlotRequest struct {
	DealerID *int64 `json:"dealer_id"`
}

func (h *Handler) assignPlot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid plot id")
		return
	}
	var req assignPlotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.AssignPlot(r.Context(), id, req.DealerID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type plotStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) markPlotStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid plot id")
		return
	}
	var req plotStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.MarkPlotStatus(r.Context(), id, req.Status); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deletePlot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid plot id")
		return
	}
	if err := h.service.DeletePlot(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Property handlers
func (h *Handler) listProperties(w http.ResponseWriter, r *http.Request) {
	properties, total, err := h.service.ListProperties(r.Context(), queryFilters(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"properties": properties, "total": total})
}

func (h *Handler) getProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid property id")
		return
	}
	property, err := h.service.GetProperty(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, property)
}

func (h *Handler) createProperty(w http.ResponseWriter, r *http.Request) {
	var property Property
	if err := httpx.DecodeJSON(r, &property); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateProperty(r.Context(), property)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updateProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid property id")
		return
	}
	var property Property
	if err := httpx.DecodeJSON(r, &property); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateProperty(r.Context(), id, property); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid property id")
		return
	}
	if err := h.service.DeleteProperty(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
