package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/stockgate/internal/access"
	"github.com/vbonduro/stockgate/internal/domain"
	"github.com/vbonduro/stockgate/internal/flatfile"
	"github.com/vbonduro/stockgate/internal/inventory"
	"github.com/vbonduro/stockgate/internal/photostore"
	"github.com/vbonduro/stockgate/internal/photostore/local"
	"github.com/vbonduro/stockgate/internal/vision"
	"github.com/vbonduro/stockgate/internal/web"
	"github.com/vbonduro/stockgate/internal/web/templates"
)

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
// http.DetectContentType identifies JPEG from the leading 0xFF 0xD8 bytes.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

// recordingVision captures the image bytes passed to it and returns a
// pre-configured result.
type recordingVision struct {
	mu        sync.Mutex
	lastBytes []byte
	result    *vision.AnalysisResult
}

func (r *recordingVision) Analyze(_ context.Context, rd io.Reader, _ string) (*vision.AnalysisResult, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.lastBytes = data
	r.mu.Unlock()
	return r.result, nil
}

type nopDenials struct{}

func (nopDenials) Record(context.Context, access.Denial) {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newInventoryServer(t *testing.T, v vision.VisionAnalyzer) (*httptest.Server, *inventory.Service) {
	t.Helper()
	dir := t.TempDir()
	photos, err := local.New(filepath.Join(dir, "photos"))
	require.NoError(t, err)

	// photos are archived only when restock is possible
	var ps photostore.PhotoStore
	if v != nil {
		ps = photos
	}
	svc := inventory.NewService(flatfile.New[domain.Item](filepath.Join(dir, "inventory.txt"), flatfile.ItemCodec{}), v, ps, testLogger())
	require.NoError(t, svc.Load(context.Background()))

	ts := httptest.NewServer(web.NewServer(templates.FS, testLogger(), web.WithInventory(svc, photos)))
	t.Cleanup(ts.Close)
	return ts, svc
}

func newGateServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "residents.txt"),
		[]byte("username,identifier\nalice,A-1\n"), 0644))

	registry := access.NewRegistry(domain.DefaultCategories, access.FileBackend(dir), testLogger())
	require.NoError(t, registry.Load(context.Background()))
	gate := access.NewGate(registry, nopDenials{}, testLogger(), access.WithCloseDelay(time.Hour))
	t.Cleanup(gate.Close)

	ts := httptest.NewServer(web.NewServer(templates.FS, testLogger(), web.WithGate(gate, registry)))
	t.Cleanup(ts.Close)
	return ts
}

// noRedirect returns a client that reports redirects instead of following them.
func noRedirect() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestInventoryPage(t *testing.T) {
	ts, svc := newInventoryServer(t, nil)
	ctx := context.Background()
	_, err := svc.Add(ctx, "Pen", 10, decimal.RequireFromString("0.50"))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "Binder", 2, decimal.RequireFromString("3.25"))
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/inventory")
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Contains(t, body, "<td>Pen</td>")
	assert.Contains(t, body, "<td>Binder</td>")
	assert.Contains(t, body, "Total Stocks: 12")
	assert.Contains(t, body, "Total Price: 11.50")
	assert.NotContains(t, body, `action="/inventory/photos"`)
	assert.NotContains(t, body, `href="/gate"`)
}

func TestRootRedirect(t *testing.T) {
	ts, _ := newInventoryServer(t, nil)
	resp, err := noRedirect().Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/inventory", resp.Header.Get("Location"))

	gs := newGateServer(t)
	resp, err = noRedirect().Get(gs.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/gate", resp.Header.Get("Location"))

	// inventory routes are not served by the gate server
	resp, err = http.Get(gs.URL + "/inventory")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInventorySearch(t *testing.T) {
	ts, svc := newInventoryServer(t, nil)
	_, err := svc.Add(context.Background(), "Stapler", 3, decimal.RequireFromString("4"))
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/inventory/search?q=stapler")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<td>Stapler</td>")
	assert.Contains(t, body, `value="stapler"`)

	resp, err = http.Get(ts.URL + "/inventory/search?q=" + url.QueryEscape("glue stick"))
	require.NoError(t, err)
	body = readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Item not found.")
	assert.NotContains(t, body, "<td>Stapler</td>")

	resp, err = noRedirect().Get(ts.URL + "/inventory/search?q=")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func uploadPhoto(t *testing.T, ts *httptest.Server, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "shelf.jpg")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/inventory/photos", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func TestUploadPhotoRestocks(t *testing.T) {
	rv := &recordingVision{result: &vision.AnalysisResult{Items: []vision.DetectedItem{
		{Name: "Pen", Quantity: "40"},
		{Name: "Glue", Quantity: "5 sticks"},
	}}}
	ts, svc := newInventoryServer(t, rv)
	_, err := svc.Add(context.Background(), "Pen", 10, decimal.RequireFromString("0.50"))
	require.NoError(t, err)

	resp := uploadPhoto(t, ts, minimalJPEG)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	assert.Contains(t, body, "Restock complete: 1 updated, 1 added.")
	assert.Contains(t, body, "Updated: Name: Pen, Quantity: 40, Price: 0.50")
	assert.Contains(t, body, "Added: Name: Glue, Quantity: 5, Price: 0.00")
	assert.Equal(t, minimalJPEG, rv.lastBytes)

	pen, err := svc.Search("Pen")
	require.NoError(t, err)
	assert.Equal(t, 40, pen.Quantity)

	// the archived photo is linked and served back
	start := strings.Index(body, `href="/inventory/photos/`)
	require.NotEqual(t, -1, start)
	rest := body[start+len(`href="`):]
	link := rest[:strings.Index(rest, `"`)]

	resp, err = http.Get(ts.URL + link)
	require.NoError(t, err)
	photo := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, string(minimalJPEG), photo)
}

func TestUploadPhotoRejectsNonImage(t *testing.T) {
	ts, _ := newInventoryServer(t, &recordingVision{result: &vision.AnalysisResult{}})

	resp := uploadPhoto(t, ts, []byte("%PDF-1.4 not a photo"))
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadPhotoWithoutVision(t *testing.T) {
	ts, _ := newInventoryServer(t, nil)

	resp := uploadPhoto(t, ts, minimalJPEG)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestGetPhotoNotFound(t *testing.T) {
	ts, _ := newInventoryServer(t, nil)

	resp, err := http.Get(ts.URL + "/inventory/photos/missing.jpg")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGateForm(t *testing.T) {
	ts := newGateServer(t)

	resp, err := http.Get(ts.URL + "/gate")
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<option value="milkman"`)
	assert.Contains(t, body, `<option value="alice">alice</option>`)
	assert.Contains(t, body, "Gate is closed.")
}

func TestGateEnter(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantBody   []string
	}{
		{
			name:       "resident granted",
			form:       url.Values{"category": {"residents"}, "username": {"alice"}, "identifier": {"A-1"}},
			wantStatus: http.StatusOK,
			wantBody:   []string{access.MsgGateOpen, access.MsgHappy, "Gate is open."},
		},
		{
			name:       "resident denied",
			form:       url.Values{"category": {"residents"}, "username": {"alice"}, "identifier": {"nope"}},
			wantStatus: http.StatusOK,
			wantBody:   []string{access.MsgGateClosed},
		},
		{
			name:       "visitor",
			form:       url.Values{"category": {"visitor"}, "username": {"carol"}, "resident": {"alice"}},
			wantStatus: http.StatusOK,
			wantBody:   []string{access.MsgRules + " You are visiting alice"},
		},
		{
			name:       "unknown category",
			form:       url.Values{"category": {"plumber"}, "username": {"joe"}},
			wantStatus: http.StatusBadRequest,
			wantBody:   []string{"Unknown user type."},
		},
		{
			name:       "identifier required",
			form:       url.Values{"category": {"milkman"}, "username": {"sam"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   []string{"An identifier is required to register."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newGateServer(t)

			resp, err := http.PostForm(ts.URL+"/gate/enter", tt.form)
			require.NoError(t, err)
			body := readBody(t, resp)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want)
			}
		})
	}
}

func TestGateStatus(t *testing.T) {
	ts := newGateServer(t)

	status := func() bool {
		resp, err := http.Get(ts.URL + "/gate/status")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		var got struct {
			Open bool `json:"open"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		return got.Open
	}

	assert.False(t, status())

	resp, err := http.PostForm(ts.URL+"/gate/enter", url.Values{
		"category": {"residents"}, "username": {"alice"}, "identifier": {"A-1"},
	})
	require.NoError(t, err)
	resp.Body.Close()

	assert.True(t, status())
}
