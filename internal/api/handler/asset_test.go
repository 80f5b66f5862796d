package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Constructed directly because NewAsset dereferences the services struct.
func newAssetHandler() *Asset {
	return &Asset{}
}

// newUploadRequest builds a multipart upload request. fileContent of nil
// omits the file part entirely.
func newUploadRequest(t *testing.T, fileContent []byte, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileContent != nil {
		part, err := mw.CreateFormFile("file", "photo.jpg")
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/assets", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

// --- Register ---

func TestAssetRegister_NotMultipart(t *testing.T) {
	h := newAssetHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/assets", map[string]any{
		"tenant_id": validID,
	})

	h.Register(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "invalid multipart form")
}

func TestAssetRegister_MissingFilePart(t *testing.T) {
	h := newAssetHandler()
	rec := httptest.NewRecorder()
	r := newUploadRequest(t, nil, map[string]string{
		"tenant_id": validID,
	})

	h.Register(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing file part")
}

func TestAssetRegister_MissingTenantID(t *testing.T) {
	h := newAssetHandler()
	rec := httptest.NewRecorder()
	r := newUploadRequest(t, []byte("fake image bytes"), nil)

	h.Register(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestAssetRegister_ChecksumMismatch(t *testing.T) {
	h := newAssetHandler()
	rec := httptest.NewRecorder()
	r := newUploadRequest(t, []byte("fake image bytes"), map[string]string{
		"tenant_id": validID,
		"checksum":  "deadbeef",
	})

	h.Register(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "checksum mismatch")
}

func TestAssetRegister_MatchingChecksumPassesValidation(t *testing.T) {
	// sha256 of "fake image bytes". With the checksum verified the handler
	// proceeds to storage, which is nil here.
	const sum = "43044b9f977ef333aa328b242d0e9ff0f9fed13e1c77abdd5ff12dd8edac5dd5"

	h := newAssetHandler()
	rec := httptest.NewRecorder()
	r := newUploadRequest(t, []byte("fake image bytes"), map[string]string{
		"tenant_id": validID,
		"checksum":  sum,
	})

	func() {
		defer func() { recover() }()
		h.Register(rec, r)
	}()

	assert.NotEqual(t, http.StatusBadRequest, rec.Code)
}

// --- Get ---

func TestAssetGet_EmptyID(t *testing.T) {
	h := newAssetHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/assets/", nil)
	r = withChiURLParam(r, "id", "")

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing required ID")
}

// --- Delete ---

func TestAssetDelete_EmptyID(t *testing.T) {
	h := newAssetHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodDelete, "/assets/", nil)
	r = withChiURLParam(r, "id", "")

	h.Delete(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing required ID")
}

// --- Reprocess ---

func TestAssetReprocess_EmptyID(t *testing.T) {
	h := newAssetHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/assets//reprocess", nil)
	r = withChiURLParam(r, "id", "")

	h.Reprocess(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Renditions ---

func TestAssetRenditions_EmptyID(t *testing.T) {
	h := newAssetHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/assets//renditions", nil)
	r = withChiURLParam(r, "id", "")

	h.Renditions(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
