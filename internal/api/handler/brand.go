package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solvik/mediavault/internal/api/request"
	"github.com/solvik/mediavault/internal/api/response"
	"github.com/solvik/mediavault/internal/core"
	"github.com/solvik/mediavault/internal/model"
)

type Brand struct {
	svc      *core.BrandService
	services *core.Services
}

func NewBrand(services *core.Services) *Brand {
	return &Brand{svc: services.Brand, services: services}
}

// ListByTenant godoc
//
//	@Summary		List brands for a tenant
//	@Tags			Brands
//	@Security		ApiKeyAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Brand}
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/brands [get]
func (h *Brand) ListByTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !checkTenant(w, r, h.services.Tenant, tenantID) {
		return
	}

	pg := request.ParsePagination(r)

	brands, hasMore, err := h.svc.ListByTenant(r.Context(), tenantID, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(brands) > 0 {
		nextCursor = brands[len(brands)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, brands, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Create a brand
//	@Tags			Brands
//	@Security		ApiKeyAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			body body request.CreateBrand true "Brand details"
//	@Success		201 {object} model.Brand
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/brands [post]
func (h *Brand) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !checkTenant(w, r, h.services.Tenant, tenantID) {
		return
	}

	var req request.CreateBrand
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	brand := &model.Brand{
		TenantID:    tenantID,
		Name:        req.Name,
		Slug:        req.Slug,
		AccentColor: req.AccentColor,
	}

	if err := h.svc.Create(r.Context(), brand); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, brand)
}

// Get godoc
//
//	@Summary		Get a brand
//	@Tags			Brands
//	@Security		ApiKeyAuth
//	@Param			id path string true "Brand ID"
//	@Success		200 {object} model.Brand
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/brands/{id} [get]
func (h *Brand) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	brand, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, brand)
}

// Update godoc
//
//	@Summary		Update a brand
//	@Tags			Brands
//	@Security		ApiKeyAuth
//	@Param			id path string true "Brand ID"
//	@Param			body body request.UpdateBrand true "Brand updates"
//	@Success		200 {object} model.Brand
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/brands/{id} [put]
func (h *Brand) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateBrand
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	brand, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if req.Name != nil {
		brand.Name = *req.Name
	}
	if req.AccentColor != nil {
		brand.AccentColor = *req.AccentColor
	}

	if err := h.svc.Update(r.Context(), brand); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, brand)
}

// Delete godoc
//
//	@Summary		Delete a brand
//	@Description	Deletes a brand. Assets keep their rows; their brand link is cleared.
//	@Tags			Brands
//	@Security		ApiKeyAuth
//	@Param			id path string true "Brand ID"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/brands/{id} [delete]
func (h *Brand) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
