package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/integrable/stardust/internal/ratelimiter"
	"github.com/integrable/stardust/pkg/identity"
	"github.com/integrable/stardust/pkg/storage"
	blobmemory "github.com/integrable/stardust/pkg/store/blob/memory"
	metamemory "github.com/integrable/stardust/pkg/store/meta/memory"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, subject string, writer, admin bool) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": subject}
	if writer {
		claims["writer"] = true
	}
	if admin {
		claims["admin"] = true
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	orch := storage.New(metamemory.NewMemoryMetaStore(), blobmemory.NewMemoryBlobStore())
	verifier := identity.NewTokenVerifier(testSecret)
	return newRouter(orch, verifier, "1.2.3", 64<<20)
}

// multipartBody builds a multipart request body with a file part and the
// given form fields.
func multipartBody(t *testing.T, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", "upload.bin")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)

	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func doRequest(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func uploadFile(t *testing.T, mux *http.ServeMux, token string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, content, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/storage/file", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	return doRequest(mux, req)
}

func decodeRecord(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestVersionEndpointIsPublic(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, httptest.NewRequest(http.MethodGet, "/api/v1/info/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"version":"1.2.3"}`, rec.Body.String())
}

func TestStorageRoutesRequireToken(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(mux, httptest.NewRequest(http.MethodGet, "/api/v1/storage/file/some-id", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/storage/file/some-id", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = doRequest(mux, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenQueryParameterFallback(t *testing.T) {
	mux := newTestMux(t)
	token := mintToken(t, "alice", true, false)

	target := "/api/v1/storage/file/missing?token=" + url.QueryEscape(token)
	rec := doRequest(mux, httptest.NewRequest(http.MethodGet, target, nil))
	// Authenticated, so the handler runs and reports the missing file.
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRequiresWriterCapability(t *testing.T) {
	mux := newTestMux(t)
	readerToken := mintToken(t, "bob", false, false)

	rec := uploadFile(t, mux, readerToken, []byte("data"), map[string]string{"filename": "f"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUploadAndDownload(t *testing.T) {
	mux := newTestMux(t)
	token := mintToken(t, "alice", true, false)
	content := []byte("hello over http")

	rec := uploadFile(t, mux, token, content, map[string]string{
		"filename":    "hello.txt",
		"description": "greeting",
		"mediatype":   "text/plain",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	record := decodeRecord(t, rec)
	id, _ := record["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "alice", record["owner"])
	assert.Equal(t, "text/plain", record["media_type"])
	assert.Equal(t, float64(len(content)), record["size"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/storage/file/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = doRequest(mux, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.Bytes())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "hello.txt")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/storage/file/"+id+"/description", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = doRequest(mux, req)
	require.Equal(t, http.StatusOK, rec.Code)
	description := decodeRecord(t, rec)
	assert.Equal(t, "greeting", description["description"])
}

func TestUploadValidation(t *testing.T) {
	mux := newTestMux(t)
	token := mintToken(t, "alice", true, false)

	t.Run("missing filename", func(t *testing.T) {
		rec := uploadFile(t, mux, token, []byte("x"), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad media type", func(t *testing.T) {
		rec := uploadFile(t, mux, token, []byte("x"), map[string]string{
			"filename":  "f",
			"mediatype": "definitely not a media type",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad permission json", func(t *testing.T) {
		rec := uploadFile(t, mux, token, []byte("x"), map[string]string{
			"filename":   "f",
			"permission": `{"not":"a list"}`,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing group", func(t *testing.T) {
		rec := uploadFile(t, mux, token, []byte("x"), map[string]string{
			"filename": "f",
			"group":    "nope",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRestrictedFileAccess(t *testing.T) {
	mux := newTestMux(t)
	aliceToken := mintToken(t, "alice", true, false)
	bobToken := mintToken(t, "bob", true, false)
	adminToken := mintToken(t, "root", false, true)

	rec := uploadFile(t, mux, aliceToken, []byte("secret"), map[string]string{
		"filename":   "secret.txt",
		"permission": `["alice"]`,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := decodeRecord(t, rec)["id"].(string)

	get := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/storage/file/"+id, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return doRequest(mux, req).Code
	}

	assert.Equal(t, http.StatusOK, get(aliceToken))
	assert.Equal(t, http.StatusForbidden, get(bobToken))
	assert.Equal(t, http.StatusOK, get(adminToken))
}

func TestUpdateDescription(t *testing.T) {
	mux := newTestMux(t)
	token := mintToken(t, "alice", true, false)

	rec := uploadFile(t, mux, token, []byte("body"), map[string]string{"filename": "old.txt"})
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeRecord(t, rec)["id"].(string)

	form := url.Values{"filename": {"new.txt"}, "description": {"renamed"}}
	req := httptest.NewRequest(http.MethodPut, "/api/v1/storage/file/"+id+"/description",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	rec = doRequest(mux, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	record := decodeRecord(t, rec)
	assert.Equal(t, "new.txt", record["filename"])
	assert.Equal(t, "renamed", record["description"])
}

func TestUpdateContentOverHTTP(t *testing.T) {
	mux := newTestMux(t)
	token := mintToken(t, "alice", true, false)

	rec := uploadFile(t, mux, token, []byte("old content"), map[string]string{"filename": "f"})
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeRecord(t, rec)["id"].(string)

	newContent := []byte("new content, longer than before")
	body, contentType := multipartBody(t, newContent, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/storage/file/"+id, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = doRequest(mux, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	record := decodeRecord(t, rec)
	assert.Equal(t, float64(len(newContent)), record["size"])

	req = httptest.NewRequest(http.MethodGet, "/api/v1/storage/file/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = doRequest(mux, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, newContent, rec.Body.Bytes())
}

func TestDeleteFileOverHTTP(t *testing.T) {
	mux := newTestMux(t)
	token := mintToken(t, "alice", true, false)

	rec := uploadFile(t, mux, token, []byte("doomed"), map[string]string{"filename": "f"})
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeRecord(t, rec)["id"].(string)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/storage/file/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = doRequest(mux, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/storage/file/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = doRequest(mux, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGroupLifecycleOverHTTP(t *testing.T) {
	mux := newTestMux(t)
	token := mintToken(t, "alice", true, false)

	// Create a group with a quota.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/storage/group/team-a?quota=1000&description=team", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := doRequest(mux, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	group := decodeRecord(t, rec)
	assert.Equal(t, "team-a", group["id"])
	assert.Equal(t, float64(1000), group["quota"])
	assert.Equal(t, "alice", group["owner"])

	// Duplicate ids conflict.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/storage/group/team-a", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = doRequest(mux, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Quota enforcement surfaces as 403.
	rec = uploadFile(t, mux, token, bytes.Repeat([]byte("x"), 600), map[string]string{
		"filename": "a", "group": "team-a",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	fileID := decodeRecord(t, rec)["id"].(string)

	rec = uploadFile(t, mux, token, bytes.Repeat([]byte("x"), 500), map[string]string{
		"filename": "b", "group": "team-a",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Group info lists members and accumulated size.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/storage/group/team-a", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = doRequest(mux, req)
	require.Equal(t, http.StatusOK, rec.Code)

	info := decodeRecord(t, rec)
	assert.Equal(t, float64(600), info["accumulated_size"])
	files, _ := info["files"].([]any)
	require.Len(t, files, 1)
	assert.Equal(t, fileID, files[0])

	// Cascade delete removes the group and its members.
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/storage/group/team-a", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = doRequest(mux, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/storage/file/"+fileID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = doRequest(mux, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidQuotaRejected(t *testing.T) {
	mux := newTestMux(t)
	token := mintToken(t, "alice", true, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/storage/group/g?quota=minus-five", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := doRequest(mux, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadTooLargeBody(t *testing.T) {
	orch := storage.New(metamemory.NewMemoryMetaStore(), blobmemory.NewMemoryBlobStore())
	verifier := identity.NewTokenVerifier(testSecret)
	mux := newRouter(orch, verifier, "test", 128)
	token := mintToken(t, "alice", true, false)

	rec := uploadFile(t, mux, token, bytes.Repeat([]byte("x"), 4096), map[string]string{"filename": "big"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitShedsExcessRequests(t *testing.T) {
	mux := newTestMux(t)
	limited := rateLimit(ratelimiter.New(1000, 2), mux)

	allowed, rejected := 0, 0
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/info/version", nil))
		switch rec.Code {
		case http.StatusOK:
			allowed++
		case http.StatusTooManyRequests:
			rejected++
		default:
			t.Fatalf("unexpected status %d", rec.Code)
		}
	}

	// Burst of 2 plus whatever refills during the loop.
	assert.GreaterOrEqual(t, allowed, 2)
	assert.Greater(t, rejected, 0)
}
