// Wayfinder - Contextual Tour Recommendation Service
// Copyright 2026 Wayfinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfinder-app/wayfinder

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/wayfinder-app/wayfinder/internal/auth"
	"github.com/wayfinder-app/wayfinder/internal/config"
	"github.com/wayfinder-app/wayfinder/internal/database"
	"github.com/wayfinder-app/wayfinder/internal/models"
	"github.com/wayfinder-app/wayfinder/internal/recommend"
)

// fakeCatalog implements TourCatalog in memory.
type fakeCatalog struct {
	tours   map[int64]models.Tour
	nextID  int64
	pingErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{tours: make(map[int64]models.Tour), nextID: 1}
}

func (f *fakeCatalog) CreateTour(_ context.Context, t *models.Tour) (*models.Tour, error) {
	created := *t
	created.ID = f.nextID
	f.nextID++
	f.tours[created.ID] = created
	return &created, nil
}

func (f *fakeCatalog) GetTour(_ context.Context, id int64) (*models.Tour, error) {
	t, ok := f.tours[id]
	if !ok {
		return nil, database.ErrTourNotFound
	}
	return &t, nil
}

func (f *fakeCatalog) UpdateTour(_ context.Context, t *models.Tour) (*models.Tour, error) {
	if _, ok := f.tours[t.ID]; !ok {
		return nil, database.ErrTourNotFound
	}
	f.tours[t.ID] = *t
	return t, nil
}

func (f *fakeCatalog) DeleteTour(_ context.Context, id int64) error {
	if _, ok := f.tours[id]; !ok {
		return database.ErrTourNotFound
	}
	delete(f.tours, id)
	return nil
}

func (f *fakeCatalog) ListTours(_ context.Context, filter database.TourFilter) ([]models.Tour, int, error) {
	var all []models.Tour
	for _, t := range f.tours {
		all = append(all, t)
	}
	return all, len(all), nil
}

func (f *fakeCatalog) SearchTours(_ context.Context, query string, limit int) ([]models.Tour, error) {
	var out []models.Tour
	for _, t := range f.tours {
		if strings.Contains(strings.ToLower(t.Name), strings.ToLower(query)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeCatalog) SimilarTours(ctx context.Context, id int64, limit int) ([]models.Tour, error) {
	if _, err := f.GetTour(ctx, id); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeCatalog) NearbyTours(_ context.Context, lat, lon, radiusKm float64, limit int) ([]database.NearbyTour, error) {
	return nil, nil
}

func (f *fakeCatalog) Categories(_ context.Context) ([]database.CategoryCount, error) {
	return []database.CategoryCount{{Category: "park", Count: len(f.tours)}}, nil
}

func (f *fakeCatalog) Stats(_ context.Context) (*database.CatalogStats, error) {
	return &database.CatalogStats{TotalTours: len(f.tours)}, nil
}

func (f *fakeCatalog) RandomTour(ctx context.Context) (*models.Tour, error) {
	for id := range f.tours {
		return f.GetTour(ctx, id)
	}
	return nil, database.ErrEmptyCatalog
}

func (f *fakeCatalog) Ping(context.Context) error { return f.pingErr }

// fakeEngine records the last request and replays a canned response.
type fakeEngine struct {
	lastReq *recommend.Request
	resp    *recommend.Response
	err     error
}

func (f *fakeEngine) Recommend(_ context.Context, req *recommend.Request) (*recommend.Response, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &recommend.Response{
		Context: recommend.Context{TimeOfDay: models.Morning, Season: models.Summer},
		Tier:    1,
		Tours:   []recommend.RecommendedTour{},
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8460},
		Security: config.SecurityConfig{
			AuthMode:        "none",
			RateLimitReqs:   1000,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		API: config.APIConfig{DefaultPageSize: 20, MaxPageSize: 100},
		Recommend: config.RecommendConfig{
			TierOneRadiusKm: 20,
			TierTwoRadiusKm: 100,
			DefaultLimit:    10,
			MaxLimit:        50,
		},
	}
}

type testServer struct {
	handler http.Handler
	catalog *fakeCatalog
	engine  *fakeEngine
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	catalog := newFakeCatalog()
	engine := &fakeEngine{}

	var jwtManager *auth.JWTManager
	var verifier *auth.Verifier
	if cfg.Security.AuthMode == "jwt" {
		var err error
		if jwtManager, err = auth.NewJWTManager(&cfg.Security); err != nil {
			t.Fatalf("NewJWTManager() failed: %v", err)
		}
		if verifier, err = auth.NewVerifier(&cfg.Security); err != nil {
			t.Fatalf("NewVerifier() failed: %v", err)
		}
	}

	h := NewHandlers(catalog, engine, cfg, jwtManager, verifier)
	authn := NewAuthenticator(cfg.Security.AuthMode, jwtManager)
	return &testServer{
		handler: NewRouter(h, authn, cfg),
		catalog: catalog,
		engine:  engine,
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string, header http.Header) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reqBody)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var envelope APIResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("invalid response envelope %q: %v", rec.Body.String(), err)
		}
	}
	return rec, envelope
}

func TestSmartRecommendationsGet(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, envelope := ts.do(t, http.MethodGet,
		"/api/v1/recommendations/smart?lat=48.2&lon=16.37&tour_type=indoor&price_range=0-50+USD&liked_tours=1,2&disliked_tours=3&limit=5&local_datetime=2026-03-01T09:30:00Z",
		"", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !envelope.Success {
		t.Errorf("envelope = %+v", envelope)
	}

	req := ts.engine.lastReq
	if req == nil {
		t.Fatal("engine never called")
	}
	if req.Lat == nil || *req.Lat != 48.2 || req.Lon == nil || *req.Lon != 16.37 {
		t.Errorf("coordinates = %v, %v", req.Lat, req.Lon)
	}
	if req.Preferences.TourType != models.TourTypeIndoor || req.Preferences.PriceRange != models.PriceLow {
		t.Errorf("preferences = %+v", req.Preferences)
	}
	if len(req.Feedback.Liked) != 2 || len(req.Feedback.Disliked) != 1 {
		t.Errorf("feedback = %+v", req.Feedback)
	}
	if req.Limit == nil || *req.Limit != 5 {
		t.Errorf("limit = %v, want 5", req.Limit)
	}
	want := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	if !req.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", req.Timestamp, want)
	}
}

func TestSmartRecommendationsGetValidation(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"lat without lon", "/api/v1/recommendations/smart?lat=48.2"},
		{"bad latitude", "/api/v1/recommendations/smart?lat=95&lon=16"},
		{"bad tour type", "/api/v1/recommendations/smart?tour_type=underwater"},
		{"bad price band", "/api/v1/recommendations/smart?price_range=free"},
		{"bad liked id", "/api/v1/recommendations/smart?liked_tours=abc"},
		{"bad limit", "/api/v1/recommendations/smart?limit=nope"},
		{"limit too high", "/api/v1/recommendations/smart?limit=500"},
		{"bad local_datetime", "/api/v1/recommendations/smart?local_datetime=yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, testConfig())
			rec, envelope := ts.do(t, http.MethodGet, tt.path, "", nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			if envelope.Success || envelope.Error == nil {
				t.Errorf("envelope = %+v", envelope)
			}
			if ts.engine.lastReq != nil {
				t.Error("engine must not run on invalid input")
			}
		})
	}
}

func TestSmartRecommendationsPost(t *testing.T) {
	ts := newTestServer(t, testConfig())

	body := `{
		"lat": 48.2, "lon": 16.37,
		"preferences": {"tour_type": "indoor", "category": "museum", "price_range": "0-50 USD"},
		"feedback": {"liked_tours": [1, 2], "disliked_tours": [3]},
		"limit": 3
	}`
	rec, _ := ts.do(t, http.MethodPost, "/api/v1/recommendations/smart", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req := ts.engine.lastReq
	if req.Preferences.TourType != models.TourTypeIndoor ||
		req.Preferences.Category != "museum" ||
		req.Preferences.PriceRange != models.PriceLow {
		t.Errorf("preferences = %+v", req.Preferences)
	}
	if len(req.Feedback.Liked) != 2 || len(req.Feedback.Disliked) != 1 {
		t.Errorf("feedback = %+v", req.Feedback)
	}
	if req.Limit == nil || *req.Limit != 3 {
		t.Errorf("limit = %v, want 3", req.Limit)
	}
}

func TestSmartRecommendationsPostValidation(t *testing.T) {
	ts := newTestServer(t, testConfig())

	body := `{"preferences": {"tour_type": "underwater"}}`
	rec, envelope := ts.do(t, http.MethodPost, "/api/v1/recommendations/smart", body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeValidationFailed {
		t.Errorf("error = %+v", envelope.Error)
	}
	if ts.engine.lastReq != nil {
		t.Error("engine must not run on invalid input")
	}
}

func TestSmartRecommendationsExplicitZeroLimit(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/recommendations/smart?limit=0", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ts.engine.lastReq.Limit == nil || *ts.engine.lastReq.Limit != 0 {
		t.Errorf("limit = %v, want explicit 0", ts.engine.lastReq.Limit)
	}

	// Absent limit must stay distinguishable from an explicit zero.
	ts = newTestServer(t, testConfig())
	rec, _ = ts.do(t, http.MethodGet, "/api/v1/recommendations/smart", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ts.engine.lastReq.Limit != nil {
		t.Errorf("limit = %v, want nil when absent", ts.engine.lastReq.Limit)
	}
}

func TestSmartRecommendationsWithoutCoordinates(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/recommendations/smart", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ts.engine.lastReq.Lat != nil || ts.engine.lastReq.Lon != nil {
		t.Error("coordinates should be absent")
	}
}

func validTourBody() string {
	return `{
		"name": "Garden Walk",
		"lat": 48.2, "lon": 16.37,
		"tour_type": "outdoor",
		"category_name": "park",
		"pricing_range_usd": "0-50 USD",
		"rating": 4.5,
		"time_of_day_trip_type": ["morning"]
	}`
}

func TestTourCRUD(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, envelope := ts.do(t, http.MethodPost, "/api/v1/tours", validTourBody(), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data, _ := json.Marshal(envelope.Data)
	var created models.Tour
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode created tour: %v", err)
	}
	if created.ID == 0 || created.Name != "Garden Walk" {
		t.Errorf("created = %+v", created)
	}

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/tours/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec, _ = ts.do(t, http.MethodPut, "/api/v1/tours/1", validTourBody(), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec, _ = ts.do(t, http.MethodDelete, "/api/v1/tours/1", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/tours/1", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestCreateTourValidation(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, envelope := ts.do(t, http.MethodPost, "/api/v1/tours",
		`{"name":"","tour_type":"flying","category_name":"x","pricing_range_usd":"0-50 USD"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeValidationFailed {
		t.Errorf("error = %+v", envelope.Error)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/health/live", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d", rec.Code)
	}

	ts.catalog.pingErr = context.DeadlineExceeded
	rec, _ = ts.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status with dead db = %d, want 503", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/health/live", "", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}

	header := http.Header{}
	header.Set("X-Request-ID", "fixed-id")
	rec, _ = ts.do(t, http.MethodGet, "/api/v1/health/live", "", header)
	if got := rec.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("inbound request id not honored: %q", got)
	}
}

func jwtConfig() *config.Config {
	cfg := testConfig()
	cfg.Security.AuthMode = "jwt"
	cfg.Security.JWTSecret = strings.Repeat("s", 32)
	cfg.Security.SessionTimeout = time.Hour
	cfg.Security.AdminUsername = "admin"
	cfg.Security.AdminPassword = "hunter2hunter2"
	return cfg
}

func TestWritesRequireAuthInJWTMode(t *testing.T) {
	ts := newTestServer(t, jwtConfig())

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/tours", validTourBody(), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated write status = %d, want 401", rec.Code)
	}

	// Reads stay open.
	rec, _ = ts.do(t, http.MethodGet, "/api/v1/tours/", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("read status = %d, want 200", rec.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	ts := newTestServer(t, jwtConfig())

	rec, envelope := ts.do(t, http.MethodPost, "/api/v1/auth/login",
		`{"username":"admin","password":"hunter2hunter2"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data, _ := json.Marshal(envelope.Data)
	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &loginResp); err != nil || loginResp.Token == "" {
		t.Fatalf("login response = %s", rec.Body.String())
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+loginResp.Token)
	rec, _ = ts.do(t, http.MethodPost, "/api/v1/tours", validTourBody(), header)
	if rec.Code != http.StatusCreated {
		t.Errorf("authenticated write status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t, jwtConfig())

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/auth/login",
		`{"username":"admin","password":"wrong"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())

	// A served request first, so the request counter has a sample.
	ts.do(t, http.MethodGet, "/api/v1/health/live", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Error("metrics output missing api_requests_total")
	}
}
