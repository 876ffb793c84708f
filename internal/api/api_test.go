package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/grievd/internal/auth"
	"github.com/hazyhaar/grievd/internal/classify"
	"github.com/hazyhaar/grievd/internal/db"
	"github.com/hazyhaar/grievd/internal/pipeline"
)

type testEnv struct {
	srv        *httptest.Server
	db         *db.DB
	adminToken string
	userToken  string
	userID     string
}

// newTestEnv wires the full API against a temp database. The classifier
// points at a closed port, so submissions exercise the keyword fallback
// unless a test swaps it out.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	a := auth.New("test-secret", 60)
	classifier := classify.NewClient("http://127.0.0.1:1", 3, 200*time.Millisecond)

	handler := New(database, a)
	handler.SetClassifier(classifier)
	handler.SetPipeline(pipeline.New(database, classifier, 0))
	handler.SetUploadsDir(t.TempDir())

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	hash, err := a.HashPassword("admin-pass")
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}
	if _, err := database.SeedAdmin("Admin", "admin@example.org", hash); err != nil {
		t.Fatalf("seeding admin: %v", err)
	}
	admin, _, err := database.GetUserByEmail("admin@example.org")
	if err != nil {
		t.Fatalf("admin lookup: %v", err)
	}
	adminToken, err := a.GenerateToken(admin.ID, admin.Email, admin.Role)
	if err != nil {
		t.Fatalf("admin token: %v", err)
	}

	user, err := database.CreateUser(db.CreateUserInput{
		Name:         "Kiran",
		Email:        "kiran@example.org",
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	userToken, err := a.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("user token: %v", err)
	}

	return &testEnv{srv: srv, db: database, adminToken: adminToken, userToken: userToken, userID: user.ID}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (e *testEnv) submitComplaint(t *testing.T, description string) map[string]interface{} {
	t.Helper()
	resp, body := e.request(t, "POST", "/api/complaints", e.userToken, map[string]interface{}{
		"district":    "north",
		"description": description,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	return body["complaint"].(map[string]interface{})
}

func TestSignupLoginMe(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.request(t, "POST", "/api/auth/signup", "", map[string]string{
		"name": "Devi", "email": "devi@example.org", "password": "secret1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	resp, _ = e.request(t, "POST", "/api/auth/signup", "", map[string]string{
		"name": "Devi", "email": "devi@example.org", "password": "secret1",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 on duplicate signup, got %d", resp.StatusCode)
	}

	resp, body := e.request(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "devi@example.org", "password": "secret1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("expected a token")
	}
	if body["role"] != "user" {
		t.Errorf("expected role user, got %v", body["role"])
	}

	resp, body = e.request(t, "GET", "/api/auth/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["email"] != "devi@example.org" {
		t.Errorf("expected profile email, got %v", body["email"])
	}

	resp, _ = e.request(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "devi@example.org", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
}

func TestCreateComplaintFallbackClassification(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.request(t, "POST", "/api/complaints", e.userToken, map[string]interface{}{
		"district":    "north",
		"description": "no water supply since two days",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	if body["mlClassificationSuccess"] != false {
		t.Errorf("expected mlClassificationSuccess false, got %v", body["mlClassificationSuccess"])
	}
	complaint := body["complaint"].(map[string]interface{})
	if complaint["category"] != "utilities" || complaint["priority"] != "high" {
		t.Errorf("expected utilities/high fallback, got %v/%v", complaint["category"], complaint["priority"])
	}
	if complaint["modelConfidence"] != 0.5 {
		t.Errorf("expected confidence 0.5, got %v", complaint["modelConfidence"])
	}
	if complaint["anomalyScore"] != 0.1 {
		t.Errorf("expected anomaly score 0.1, got %v", complaint["anomalyScore"])
	}

	// submission also raises an admin notification
	resp, _ = e.request(t, "GET", "/api/notifications", e.adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCreateComplaintValidation(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.request(t, "POST", "/api/complaints", e.userToken, map[string]interface{}{
		"description": "missing district",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}

	resp, _ = e.request(t, "POST", "/api/complaints", "", map[string]interface{}{
		"district": "north", "description": "anonymous",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestAdminGuards(t *testing.T) {
	e := newTestEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/api/complaints/all"},
		{"GET", "/api/complaints/grouped/category"},
		{"GET", "/api/users"},
		{"GET", "/api/notifications"},
		{"POST", "/api/complaints/reclassify"},
	}
	for _, p := range paths {
		resp, _ := e.request(t, p.method, p.path, e.userToken, nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s %s: expected 403 for non-admin, got %d", p.method, p.path, resp.StatusCode)
		}
		resp, _ = e.request(t, p.method, p.path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without token, got %d", p.method, p.path, resp.StatusCode)
		}
	}
}

func TestStatusUpdate(t *testing.T) {
	e := newTestEnv(t)
	complaint := e.submitComplaint(t, "pothole on the ring road")
	id := complaint["id"].(string)

	resp, body := e.request(t, "PUT", "/api/complaints/"+id+"/status", e.adminToken,
		map[string]string{"status": "in progress"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
	}
	updated := body["complaint"].(map[string]interface{})
	if updated["status"] != "in progress" {
		t.Errorf("expected in progress, got %v", updated["status"])
	}

	resp, _ = e.request(t, "PUT", "/api/complaints/"+id+"/status", e.adminToken,
		map[string]string{"status": "bogus"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid status, got %d", resp.StatusCode)
	}

	resp, _ = e.request(t, "PUT", "/api/complaints/missing/status", e.adminToken,
		map[string]string{"status": "resolved"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown id, got %d", resp.StatusCode)
	}
}

func TestCorrectionAndGrouping(t *testing.T) {
	e := newTestEnv(t)
	complaint := e.submitComplaint(t, "pothole on the ring road")
	id := complaint["id"].(string)

	resp, body := e.request(t, "PUT", "/api/complaints/"+id+"/correction", e.adminToken,
		map[string]string{"category": "drainage"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
	}

	resp, _ = e.request(t, "PUT", "/api/complaints/"+id+"/correction", e.adminToken,
		map[string]string{"category": "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for blank category, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest("GET", e.srv.URL+"/api/complaints/grouped/category", nil)
	req.Header.Set("Authorization", "Bearer "+e.adminToken)
	groupResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("grouped request: %v", err)
	}
	defer groupResp.Body.Close()
	var groups []map[string]interface{}
	if err := json.NewDecoder(groupResp.Body).Decode(&groups); err != nil {
		t.Fatalf("decoding groups: %v", err)
	}
	if len(groups) != 1 || groups[0]["category"] != "drainage" {
		t.Errorf("expected single drainage group, got %v", groups)
	}
}

func TestFindSimilarEndpoint(t *testing.T) {
	e := newTestEnv(t)
	first := e.submitComplaint(t, "huge pothole blocking main street traffic")
	e.submitComplaint(t, "pothole main street causing traffic jams daily")
	e.submitComplaint(t, "overflowing garbage bins behind the market")

	id := first["id"].(string)
	resp, body := e.request(t, "GET", "/api/complaints/duplicates/"+id, e.adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
	}

	duplicates := body["duplicates"].([]interface{})
	if len(duplicates) != 2 {
		t.Fatalf("expected 2 duplicates, got %d", len(duplicates))
	}
	if body["totalFound"] != float64(2) {
		t.Errorf("expected totalFound 2, got %v", body["totalFound"])
	}
	match := duplicates[0].(map[string]interface{})
	score, ok := match["similarity"].(float64)
	if !ok || score != float64(int(score)) || score < 0 || score > 100 {
		t.Errorf("expected integer percent similarity, got %v", match["similarity"])
	}
	if match["matchType"] == nil {
		t.Error("expected matchType on each duplicate")
	}
	// both submissions share the submitter's email and district
	if match["matchType"] != "exact" {
		t.Errorf("expected exact match for same submitter and district, got %v", match["matchType"])
	}
}

func TestReclassifyEndpoint(t *testing.T) {
	e := newTestEnv(t)

	// leave it unlabelled: the fallback-only classifier never persists
	e.submitComplaint(t, "something vague happened here")

	ml := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"category":"roads","priority":"medium","confidence":0.8,"isFakeScore":0.05}`)
	}))
	defer ml.Close()

	// swap in a live classifier for the pipeline
	handler := New(e.db, auth.New("test-secret", 60))
	classifier := classify.NewClient(ml.URL, 3, time.Second)
	handler.SetClassifier(classifier)
	handler.SetPipeline(pipeline.New(e.db, classifier, 0))
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	req, _ := http.NewRequest("POST", srv.URL+"/api/complaints/reclassify", bytes.NewBufferString(`{"onlyUnassigned":true}`))
	req.Header.Set("Authorization", "Bearer "+e.adminToken)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("reclassify request: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["total"] != float64(1) || body["updated"] != float64(1) {
		t.Errorf("expected total 1 updated 1, got %v/%v", body["total"], body["updated"])
	}
}

func TestNotificationsReadFlow(t *testing.T) {
	e := newTestEnv(t)
	e.submitComplaint(t, "trash piling up near the park")

	req, _ := http.NewRequest("GET", e.srv.URL+"/api/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+e.adminToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	defer resp.Body.Close()
	var notifications []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&notifications); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifications))
	}
	id := notifications[0]["id"].(string)

	r2, _ := e.request(t, "PUT", "/api/notifications/"+id+"/read", e.adminToken, nil)
	if r2.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", r2.StatusCode)
	}

	r3, _ := e.request(t, "PUT", "/api/notifications/read-all", e.adminToken, nil)
	if r3.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", r3.StatusCode)
	}

	r4, _ := e.request(t, "PUT", "/api/notifications/missing/read", e.adminToken, nil)
	if r4.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", r4.StatusCode)
	}
}

func TestMyComplaints(t *testing.T) {
	e := newTestEnv(t)
	e.submitComplaint(t, "streetlight out for a month")

	req, _ := http.NewRequest("GET", e.srv.URL+"/api/complaints", nil)
	req.Header.Set("Authorization", "Bearer "+e.userToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	defer resp.Body.Close()
	var complaints []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&complaints); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(complaints) != 1 {
		t.Errorf("expected 1 complaint, got %d", len(complaints))
	}
}

func TestChatUnconfigured(t *testing.T) {
	e := newTestEnv(t)
	resp, _ := e.request(t, "POST", "/api/chat", "", map[string]string{"message": "hello"})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without an LLM client, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	resp, body := e.request(t, "GET", "/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}
