package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lucasncamargo/gorestaurant/internal/repository"
	"github.com/lucasncamargo/gorestaurant/internal/service"
	"github.com/lucasncamargo/gorestaurant/pkg/httputil"
	"github.com/lucasncamargo/gorestaurant/pkg/pagination"
)

// FoodHandler handles HTTP requests for the menu.
type FoodHandler struct {
	service *service.FoodService
	logger  *slog.Logger
}

func NewFoodHandler(svc *service.FoodService, logger *slog.Logger) *FoodHandler {
	return &FoodHandler{service: svc, logger: logger}
}

// ListFoods handles GET /foods?name_like=&category=&page=&per_page=
func (h *FoodHandler) ListFoods(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.FoodFilter{
		NameLike: strings.TrimSpace(r.URL.Query().Get("name_like")),
		Page:     params.Page,
		PerPage:  params.PerPage,
	}

	if v := r.URL.Query().Get("category"); v != "" {
		category, err := strconv.ParseInt(v, 10, 64)
		if err != nil || category < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "category must be a positive integer"},
			})
			return
		}
		filter.Category = &category
	}

	foods, total, err := h.service.ListFoods(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(foods, total, params))
}

// GetFood handles GET /foods/{id}
func (h *FoodHandler) GetFood(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	food, err := h.service.GetFood(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, food)
}
