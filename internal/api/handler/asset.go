package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/solvik/mediavault/internal/api/request"
	"github.com/solvik/mediavault/internal/api/response"
	"github.com/solvik/mediavault/internal/core"
	"github.com/solvik/mediavault/internal/model"
	"github.com/solvik/mediavault/internal/platform"
	"github.com/solvik/mediavault/internal/reliability"
	"github.com/solvik/mediavault/internal/storage"
)

// maxUploadBytes caps a single upload. Parts beyond the memory threshold
// spill to temp files, so the cap is about abuse, not memory.
const maxUploadBytes = 1 << 30

// presignTTL is how long rendition download links stay valid.
const presignTTL = 15 * time.Minute

type Asset struct {
	svc    *core.AssetService
	engine *reliability.Engine
	store  storage.ObjectStore
}

func NewAsset(services *core.Services, store storage.ObjectStore) *Asset {
	return &Asset{svc: services.Asset, engine: services.Engine, store: store}
}

// Register godoc
//
//	@Summary		Upload and register an asset
//	@Description	Accepts a multipart upload, stores the object, registers the asset row and starts the processing pipeline. Returns 202 with the asset in uploaded state.
//	@Tags			Assets
//	@Security		ApiKeyAuth
//	@Accept			mpfd
//	@Param			file formData file true "Asset file"
//	@Param			tenant_id formData string true "Owning tenant ID"
//	@Param			brand_id formData string false "Owning brand ID"
//	@Param			title formData string false "Display title (defaults to the filename)"
//	@Param			checksum formData string false "Client-side SHA-256 for integrity verification"
//	@Success		202 {object} model.Asset
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/assets [post]
func (h *Asset) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	req := request.RegisterAsset{
		TenantID: r.FormValue("tenant_id"),
		BrandID:  r.FormValue("brand_id"),
		Title:    r.FormValue("title"),
	}
	if err := request.Validate(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Hash the upload, then rewind for the storage put.
	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	checksum := hex.EncodeToString(hasher.Sum(nil))
	if want := r.FormValue("checksum"); want != "" && !strings.EqualFold(want, checksum) {
		response.WriteError(w, http.StatusBadRequest, "checksum mismatch")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	title := req.Title
	if title == "" {
		title = titleFromFilename(header.Filename)
	}

	// The asset ID is minted here so the object key can embed it before
	// the row exists.
	asset := &model.Asset{
		ID:               platform.NewID("ast"),
		TenantID:         req.TenantID,
		Title:            title,
		OriginalFilename: header.Filename,
		MimeType:         mimeType,
		SizeBytes:        header.Size,
		Checksum:         checksum,
	}
	if req.BrandID != "" {
		asset.BrandID = &req.BrandID
	}
	asset.StorageKey = storage.OriginalKey(asset.TenantID, asset.ID, header.Filename)

	if err := h.store.Put(r.Context(), asset.StorageKey, mimeType, file); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.svc.RegisterUpload(r.Context(), asset); err != nil {
		// The object is orphaned if the row never landed; best-effort cleanup.
		_ = h.store.Delete(r.Context(), asset.StorageKey)
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusAccepted, asset)
}

// List godoc
//
//	@Summary		List assets
//	@Tags			Assets
//	@Security		ApiKeyAuth
//	@Param			tenant_id query string false "Filter by tenant"
//	@Param			brand_id query string false "Filter by brand"
//	@Param			status query string false "Filter by status"
//	@Param			analysis_status query string false "Filter by analysis status"
//	@Param			search query string false "Search in title and filename"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Asset}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/assets [get]
func (h *Asset) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	q := r.URL.Query()
	filters := core.AssetFilters{
		TenantID:       q.Get("tenant_id"),
		BrandID:        q.Get("brand_id"),
		Status:         q.Get("status"),
		AnalysisStatus: q.Get("analysis_status"),
		Search:         q.Get("search"),
	}

	assets, hasMore, err := h.svc.List(r.Context(), filters, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(assets) > 0 {
		nextCursor = assets[len(assets)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, assets, nextCursor, hasMore)
}

// Get godoc
//
//	@Summary		Get an asset
//	@Tags			Assets
//	@Security		ApiKeyAuth
//	@Param			id path string true "Asset ID"
//	@Success		200 {object} model.Asset
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/assets/{id} [get]
func (h *Asset) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	asset, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, asset)
}

// Delete godoc
//
//	@Summary		Delete an asset
//	@Description	Removes the asset row, resolves its open incidents and deletes every stored object under its prefix.
//	@Tags			Assets
//	@Security		ApiKeyAuth
//	@Param			id path string true "Asset ID"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/assets/{id} [delete]
func (h *Asset) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	asset, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The row is gone; open incidents against it are moot and storage
	// cleanup failures only leave orphans behind.
	if _, err := h.engine.ResolveBySource(r.Context(), model.SourceAsset, asset.ID); err != nil {
		log.Error().Err(err).Str("asset_id", asset.ID).Msg("failed to resolve incidents for deleted asset")
	}
	if _, err := h.store.DeletePrefix(r.Context(), storage.AssetPrefix(asset.TenantID, asset.ID)); err != nil {
		log.Error().Err(err).Str("asset_id", asset.ID).Msg("failed to delete asset objects")
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reprocess godoc
//
//	@Summary		Re-run the processing pipeline for an asset
//	@Tags			Assets
//	@Security		ApiKeyAuth
//	@Param			id path string true "Asset ID"
//	@Success		202
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/assets/{id}/reprocess [post]
func (h *Asset) Reprocess(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.svc.GetByID(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := h.svc.DispatchAssetProcessing(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// renditionWithURL pairs a rendition row with a presigned download link.
type renditionWithURL struct {
	model.Rendition
	DownloadURL string `json:"download_url,omitempty"`
}

// Renditions godoc
//
//	@Summary		List an asset's renditions
//	@Description	Returns the generated renditions with time-limited download URLs.
//	@Tags			Assets
//	@Security		ApiKeyAuth
//	@Param			id path string true "Asset ID"
//	@Success		200 {array} renditionWithURL
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/assets/{id}/renditions [get]
func (h *Asset) Renditions(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.svc.GetByID(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	renditions, err := h.svc.ListRenditions(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]renditionWithURL, 0, len(renditions))
	for _, rd := range renditions {
		item := renditionWithURL{Rendition: rd}
		url, err := h.store.PresignGet(r.Context(), rd.StorageKey, presignTTL)
		if err != nil {
			log.Error().Err(err).Str("key", rd.StorageKey).Msg("failed to presign rendition")
		} else {
			item.DownloadURL = url
		}
		out = append(out, item)
	}

	response.WriteJSON(w, http.StatusOK, out)
}
