package embeds

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EmbeddedAssets/internal/core/embeds"
	"EmbeddedAssets/internal/core/extract"
	"EmbeddedAssets/internal/core/render"
	"EmbeddedAssets/internal/core/safety"
)

const (
	videoID  = "11111111-1111-1111-1111-111111111111"
	linkID   = "22222222-2222-2222-2222-222222222222"
	videoURL = "https://www.youtube.com/watch?v=abc123"
)

// mockService implements embeds.Service for testing
type mockService struct {
	stored     map[string]*embeds.StoredEmbed
	previewErr error
	saveErr    error
	saved      []*embeds.EmbeddedAsset
}

func newMockService() *mockService {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &mockService{stored: map[string]*embeds.StoredEmbed{
		videoID: {
			ID: videoID,
			Asset: &embeds.EmbeddedAsset{
				Title:        "Clip",
				URL:          videoURL,
				Type:         embeds.TypeVideo,
				ProviderName: "YouTube",
				Code:         `<iframe src="https://www.youtube.com/embed/abc123?feature=oembed" width="640"></iframe>`,
				Image:        "https://i.ytimg.com/vi/abc123/hq.jpg",
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		linkID: {
			ID:        linkID,
			Asset:     &embeds.EmbeddedAsset{Title: "Article", URL: "https://news.test/a", Code: "<div>hi</div>"},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}}
}

func (m *mockService) Preview(_ context.Context, url string) (*embeds.EmbeddedAsset, error) {
	if m.previewErr != nil {
		return nil, m.previewErr
	}
	return &embeds.EmbeddedAsset{Title: "Preview", URL: url}, nil
}

func (m *mockService) Save(_ context.Context, a *embeds.EmbeddedAsset) (*embeds.StoredEmbed, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saved = append(m.saved, a)
	return &embeds.StoredEmbed{ID: "33333333-3333-3333-3333-333333333333", Asset: a}, nil
}

func (m *mockService) Get(_ context.Context, id string) (*embeds.StoredEmbed, error) {
	if s, ok := m.stored[id]; ok {
		return s, nil
	}
	return nil, embeds.ErrNotFound
}

func (m *mockService) GetByURL(_ context.Context, url string) (*embeds.StoredEmbed, error) {
	for _, s := range m.stored {
		if s.Asset.URL == url {
			return s, nil
		}
	}
	return nil, embeds.ErrNotFound
}

func (m *mockService) Refresh(ctx context.Context, id string) (*embeds.StoredEmbed, error) {
	return m.Get(ctx, id)
}

type stubImages struct{}

func (stubImages) ResolveImage(_ context.Context, url string, size int) (*embeds.ImageSize, error) {
	return &embeds.ImageSize{URL: "https://cdn.test/v_" + url[len(url)-6:], Width: size, Height: size / 2}, nil
}

func newRouter(svc embeds.Service) http.Handler {
	ev := safety.NewEvaluator(safety.DefaultWhitelist)
	h := NewHandler(svc, embeds.Delegates{Safety: ev, Renderer: render.NewRenderer(ev), Images: stubImages{}})

	r := chi.NewRouter()
	r.Post("/embeds/preview", h.HandlePreview)
	r.Post("/embeds", h.HandleCreate)
	r.Get("/embeds", h.HandleLookup)
	r.Get("/embeds/{id}", h.HandleGet)
	r.Post("/embeds/{id}/refresh", h.HandleRefresh)
	r.Get("/embeds/{id}/iframe-src", h.HandleIframeSrc)
	r.Get("/embeds/{id}/iframe-code", h.HandleIframeCode)
	r.Get("/embeds/{id}/video-url", h.HandleVideoURL)
	r.Get("/embeds/{id}/video-code", h.HandleVideoCode)
	r.Get("/embeds/{id}/video-id", h.HandleVideoID)
	r.Get("/embeds/{id}/html", h.HandleHTML)
	r.Get("/embeds/{id}/image", h.HandleImage)
	r.Get("/embeds/{id}/provider-icon", h.HandleProviderIcon)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHandlePreview(t *testing.T) {
	h := newRouter(newMockService())

	rec := do(t, h, http.MethodPost, "/embeds/preview", `{"url":"https://x.test/p"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"title": "Preview", "url": "https://x.test/p"}, decode(t, rec))
}

func TestHandlePreview_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		previewErr error
		wantStatus int
		wantError  string
	}{
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest, wantError: "InvalidRequest"},
		{name: "bad json", body: "{", wantStatus: http.StatusBadRequest, wantError: "InvalidRequest"},
		{
			name:       "validation",
			body:       `{"url":"x"}`,
			previewErr: &embeds.ValidationError{Fields: []embeds.FieldError{{Field: "title", Message: "cannot be blank"}}},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "InvalidEmbed",
		},
		{
			name:       "extraction",
			body:       `{"url":"https://x.test"}`,
			previewErr: errors.Join(embeds.ErrExtractionFailed, extract.ErrFetchFailed),
			wantStatus: http.StatusBadGateway,
			wantError:  "ExtractionFailed",
		},
		{
			name:       "unsupported url",
			body:       `{"url":"ftp://x.test"}`,
			previewErr: errors.Join(embeds.ErrExtractionFailed, extract.ErrUnsupportedURL),
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "UnsupportedURL",
		},
		{
			name:       "circuit open",
			body:       `{"url":"https://x.test"}`,
			previewErr: errors.Join(embeds.ErrExtractionFailed, extract.ErrCircuitOpen),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "ProviderUnavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newMockService()
			svc.previewErr = tt.previewErr

			rec := do(t, newRouter(svc), http.MethodPost, "/embeds/preview", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decode(t, rec)["error"])
		})
	}

	t.Run("validation lists fields", func(t *testing.T) {
		svc := newMockService()
		svc.previewErr = &embeds.ValidationError{Fields: []embeds.FieldError{{Field: "width", Message: "must be >= 0"}}}

		body := decode(t, do(t, newRouter(svc), http.MethodPost, "/embeds/preview", `{"url":"x"}`))
		fields := body["fields"].([]interface{})
		require.Len(t, fields, 1)
		assert.Equal(t, "width", fields[0].(map[string]interface{})["field"])
	})
}

func TestHandleCreate(t *testing.T) {
	svc := newMockService()

	rec := do(t, newRouter(svc), http.MethodPost, "/embeds", `{"url":"https://x.test/new"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "33333333-3333-3333-3333-333333333333", body["id"])
	assert.Equal(t, "https://x.test/new", body["asset"].(map[string]interface{})["url"])
	require.Len(t, svc.saved, 1)

	t.Run("collision", func(t *testing.T) {
		svc := newMockService()
		svc.saveErr = embeds.ErrFilenameCollision
		rec := do(t, newRouter(svc), http.MethodPost, "/embeds", `{"url":"https://x.test/new"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandleGetAndLookup(t *testing.T) {
	h := newRouter(newMockService())

	rec := do(t, h, http.MethodGet, "/embeds/"+videoID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, videoID, body["id"])
	assert.IsType(t, "", body["asset"].(map[string]interface{})["code"], "code stays a flat string")

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/embeds/missing", "").Code)

	rec = do(t, h, http.MethodGet, "/embeds?url=https://news.test/a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, linkID, decode(t, rec)["id"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/embeds", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/embeds/"+videoID+"/refresh", "").Code)
}

func TestAccessorEndpoints(t *testing.T) {
	h := newRouter(newMockService())

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantKey    string
		wantValue  interface{}
	}{
		{
			name:       "iframe src override",
			target:     "/embeds/" + videoID + "/iframe-src?param=autoplay%3D1&param=feature%3Dshare",
			wantStatus: http.StatusOK,
			wantKey:    "src",
			wantValue:  "https://www.youtube.com/embed/abc123?feature=share&autoplay=1",
		},
		{
			name:       "iframe code",
			target:     "/embeds/" + videoID + "/iframe-code?param=rel%3D0",
			wantStatus: http.StatusOK,
			wantKey:    "code",
			wantValue:  `<iframe src="https://www.youtube.com/embed/abc123?feature=oembed&amp;rel=0" width="640"></iframe>`,
		},
		{
			name:       "video url append",
			target:     "/embeds/" + videoID + "/video-url?param=autoplay%3D1",
			wantStatus: http.StatusOK,
			wantKey:    "url",
			wantValue:  "https://www.youtube.com/embed/abc123?feature=oembed&autoplay=1",
		},
		{
			name:       "video url on link is null",
			target:     "/embeds/" + linkID + "/video-url",
			wantStatus: http.StatusOK,
			wantKey:    "url",
			wantValue:  nil,
		},
		{
			name:       "video id",
			target:     "/embeds/" + videoID + "/video-id",
			wantStatus: http.StatusOK,
			wantKey:    "videoId",
			wantValue:  "abc123",
		},
		{
			name:       "video id on link is null",
			target:     "/embeds/" + linkID + "/video-id",
			wantStatus: http.StatusOK,
			wantKey:    "videoId",
			wantValue:  nil,
		},
		{
			name:       "iframe src on div",
			target:     "/embeds/" + linkID + "/iframe-src",
			wantStatus: http.StatusConflict,
			wantKey:    "error",
			wantValue:  "NotAnIframe",
		},
		{
			name:       "video code on link",
			target:     "/embeds/" + linkID + "/video-code",
			wantStatus: http.StatusConflict,
			wantKey:    "error",
			wantValue:  "NotAVideo",
		},
		{
			name:       "image",
			target:     "/embeds/" + videoID + "/image?size=100",
			wantStatus: http.StatusOK,
			wantKey:    "width",
			wantValue:  float64(100),
		},
		{
			name:       "image bad size",
			target:     "/embeds/" + videoID + "/image?size=abc",
			wantStatus: http.StatusBadRequest,
			wantKey:    "error",
			wantValue:  "InvalidRequest",
		},
		{
			name:       "no provider icon",
			target:     "/embeds/" + videoID + "/provider-icon?size=32",
			wantStatus: http.StatusNotFound,
			wantKey:    "error",
			wantValue:  "NotFound",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantValue, decode(t, rec)[tt.wantKey])
		})
	}
}

func TestHandleHTML(t *testing.T) {
	h := newRouter(newMockService())

	rec := do(t, h, http.MethodGet, "/embeds/"+videoID+"/html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "true", rec.Header().Get("X-Embed-Safe"))
	assert.Contains(t, rec.Body.String(), `<iframe src="https://www.youtube.com/embed/abc123?feature=oembed"`)

	rec = do(t, h, http.MethodGet, "/embeds/"+linkID+"/html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "false", rec.Header().Get("X-Embed-Safe"))
	assert.NotContains(t, rec.Body.String(), "<div>hi</div>")
}
