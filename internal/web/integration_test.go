package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmhart/boxinv/internal/cloud"
	"github.com/jmhart/boxinv/internal/db"
	"github.com/jmhart/boxinv/internal/domain"
	"github.com/jmhart/boxinv/internal/imagestore/local"
	"github.com/jmhart/boxinv/internal/interchange"
	"github.com/jmhart/boxinv/internal/service"
	"github.com/jmhart/boxinv/internal/store"
	"github.com/jmhart/boxinv/internal/web"
)

// memoryRecordService is an in-process cloud.RecordService for exercising
// the share endpoint end to end.
type memoryRecordService struct {
	zones   map[string][]cloud.Record
	batches int
}

func newMemoryRecordService() *memoryRecordService {
	return &memoryRecordService{zones: make(map[string][]cloud.Record)}
}

func (m *memoryRecordService) EnumerateZones(ctx context.Context) ([]cloud.Zone, error) {
	var zones []cloud.Zone
	for name := range m.zones {
		zones = append(zones, cloud.Zone{Name: name})
	}
	return zones, nil
}

func (m *memoryRecordService) CreateZone(ctx context.Context, zone string) error {
	m.zones[zone] = nil
	return nil
}

func (m *memoryRecordService) DeleteZone(ctx context.Context, zone string) error {
	delete(m.zones, zone)
	return nil
}

func (m *memoryRecordService) EnumerateRecords(ctx context.Context, zone, cursor string) ([]cloud.Record, string, error) {
	return m.zones[zone], "", nil
}

func (m *memoryRecordService) BatchModify(ctx context.Context, zone string, save []cloud.Record, del []string, opts cloud.BatchOptions) error {
	if _, ok := m.zones[zone]; !ok {
		return fmt.Errorf("zone %q does not exist", zone)
	}
	if len(save)+len(del) > cloud.BatchLimit {
		return fmt.Errorf("batch exceeds limit")
	}
	m.batches++
	m.zones[zone] = append(m.zones[zone], save...)
	return nil
}

func (m *memoryRecordService) ShareURL(zone, shareName string) string {
	return "https://share.example/" + zone + "/" + shareName
}

type env struct {
	server  *web.Server
	records *memoryRecordService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	database, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	images, err := local.NewLocalImageStore(t.TempDir())
	require.NoError(t, err)

	items := store.NewItemStore(database)
	boxes := store.NewBoxStore(database)
	refs := store.NewRefStore(database)

	exporter := interchange.NewExporter(items, boxes, refs, images, "test", logger)
	importer := interchange.NewImporter(database, images, logger)

	records := newMemoryRecordService()
	shares := cloud.NewShareManager(records, "inventory", logger)

	svc := service.NewInventoryService(items, boxes, refs, images, exporter, importer, shares, t.TempDir(), logger)
	return &env{server: web.NewServer(svc, logger), records: records}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestItemLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/items", map[string]string{
		"name":     "Cordless Drill",
		"category": "Tools",
		"box":      "3",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	item := decode[domain.Item](t, rec)
	require.NotNil(t, item.BoxID)
	require.NotNil(t, item.CategoryID)

	rec = e.do(t, http.MethodGet, "/items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]domain.Item](t, rec)
	require.Len(t, items, 1)

	rec = e.do(t, http.MethodPost, fmt.Sprintf("/items/%d/box", item.ID), map[string]string{"box": "7"})
	require.Equal(t, http.StatusOK, rec.Code)
	moved := decode[domain.Item](t, rec)
	require.NotNil(t, moved.BoxID)
	assert.NotEqual(t, *item.BoxID, *moved.BoxID)

	rec = e.do(t, http.MethodDelete, fmt.Sprintf("/items/%d", item.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, fmt.Sprintf("/items/%d", item.ID), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateItemValidation(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/items", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/items", map[string]string{"name": strings.Repeat("x", 300)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRefsOverHTTP(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/items", map[string]string{"name": "Drill", "category": "Tools"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodGet, "/refs/category", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	refs := decode[[]domain.Ref](t, rec)
	require.Len(t, refs, 1)
	assert.Equal(t, "Tools", refs[0].Name)

	rec = e.do(t, http.MethodGet, "/refs/flavor", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func uploadArchive(t *testing.T, e *env, archivePath string) *httptest.ResponseRecorder {
	t.Helper()

	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("archive", filepath.Base(archivePath))
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func TestExportImportRoundTripOverHTTP(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/items", map[string]string{
		"name":     "Cordless Drill",
		"barcode":  "0012345678905",
		"category": "Tools",
		"box":      "3",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodPost, "/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exported := decode[map[string]string](t, rec)
	archive := exported["archive"]
	require.NotEmpty(t, archive)

	// Stage the archive: it carries metadata so a confirmation token comes
	// back instead of an immediate apply.
	rec = uploadArchive(t, e, archive)
	require.Equal(t, http.StatusOK, rec.Code)
	staged := decode[map[string]any](t, rec)
	require.Equal(t, false, staged["applied"])
	token, _ := staged["token"].(string)
	require.NotEmpty(t, token)

	rec = e.do(t, http.MethodPost, "/import/"+token+"/apply", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]domain.Item](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "Cordless Drill", items[0].Name)
}

func TestCancelImportOverHTTP(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/items", map[string]string{"name": "Drill"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodPost, "/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	archive := decode[map[string]string](t, rec)["archive"]

	rec = uploadArchive(t, e, archive)
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := decode[map[string]any](t, rec)["token"].(string)
	require.NotEmpty(t, token)

	rec = e.do(t, http.MethodDelete, "/import/"+token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Cancelled token is gone.
	rec = e.do(t, http.MethodPost, "/import/"+token+"/apply", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateShareOverHTTP(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/items", map[string]string{"name": "Drill", "category": "Tools", "box": "3"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodPost, "/share", map[string]string{"title": "Garage Inventory"})
	require.Equal(t, http.StatusOK, rec.Code)
	handle := decode[cloud.ShareHandle](t, rec)
	assert.Contains(t, handle.URL, "https://share.example/inventory/")

	// The zone holds the share record plus one record per entity: the item,
	// its category, its box and the sentinel box.
	records := e.records.zones["inventory"]
	byType := map[string]int{}
	for _, r := range records {
		byType[r.Type]++
	}
	assert.Equal(t, 1, byType[cloud.TypeShare])
	assert.Equal(t, 1, byType[cloud.TypeItem])
	assert.Equal(t, 1, byType[cloud.TypeCategory])
	assert.Equal(t, 2, byType[cloud.TypeBox])
}
