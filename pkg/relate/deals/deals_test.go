package deals

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/relatecrm/relate/pkg/relate/models"
	"github.com/relatecrm/relate/pkg/relate/reqctx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db)

	api := r.Group("/api/v1")
	api.Use(reqctx.Middleware())
	handler.RegisterRoutes(api.Group("/deals"))

	return r
}

func createTestWorkspace(t *testing.T, db *gorm.DB, name string) models.Workspace {
	workspace := models.Workspace{Name: name, Status: models.WorkspaceStatusActive}
	if err := db.Create(&workspace).Error; err != nil {
		t.Fatalf("Failed to create test workspace: %v", err)
	}
	return workspace
}

func createTestDeal(t *testing.T, db *gorm.DB, workspaceID, title string) models.Deal {
	deal := models.Deal{
		WorkspaceID: workspaceID,
		Title:       title,
		Currency:    "AUD",
		Status:      models.DealStatusOpen,
		Stage:       "New",
	}
	if err := db.Create(&deal).Error; err != nil {
		t.Fatalf("Failed to create test deal: %v", err)
	}
	return deal
}

func doRequest(router *gin.Engine, method, path, workspaceID, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(reqctx.HeaderWorkspaceID, workspaceID)
	req.Header.Set(reqctx.HeaderUserID, userID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCreateDealDefaults(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspace := createTestWorkspace(t, db, "Acme")

	resp := doRequest(router, "POST", "/api/v1/deals", workspace.ID, uuid.NewString(),
		map[string]interface{}{"title": "Enterprise rollout"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var deal models.Deal
	json.Unmarshal(resp.Body.Bytes(), &deal)

	if deal.Currency != "AUD" {
		t.Errorf("Expected default currency AUD, got %s", deal.Currency)
	}
	if deal.Stage != "New" {
		t.Errorf("Expected default stage 'New', got %s", deal.Stage)
	}
	if deal.Status != models.DealStatusOpen {
		t.Errorf("Expected default status OPEN, got %s", deal.Status)
	}
}

func TestCreateDealWithTags(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspace := createTestWorkspace(t, db, "Acme")

	body := map[string]interface{}{
		"title":        "Renewal",
		"amount_cents": 1250000,
		"currency":     "USD",
		"tags":         []string{"renewal", "q3"},
	}

	resp := doRequest(router, "POST", "/api/v1/deals", workspace.ID, uuid.NewString(), body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var deal models.Deal
	json.Unmarshal(resp.Body.Bytes(), &deal)

	if deal.AmountCents == nil || *deal.AmountCents != 1250000 {
		t.Error("Expected amount_cents 1250000")
	}
	if deal.Currency != "USD" {
		t.Errorf("Expected currency USD, got %s", deal.Currency)
	}

	var tags []string
	if err := json.Unmarshal(deal.Tags, &tags); err != nil || len(tags) != 2 {
		t.Errorf("Expected 2 tags, got %v", tags)
	}
}

func TestCreateDealBadCloseDate(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspace := createTestWorkspace(t, db, "Acme")

	body := map[string]interface{}{
		"title":               "Renewal",
		"expected_close_date": "31/12/2026",
	}

	resp := doRequest(router, "POST", "/api/v1/deals", workspace.ID, uuid.NewString(), body)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for non-ISO close date, got %d", resp.Code)
	}
}

func TestCreateDealCompanyContainment(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspaceA := createTestWorkspace(t, db, "A")
	workspaceB := createTestWorkspace(t, db, "B")
	foreign := models.Company{
		WorkspaceID: workspaceB.ID,
		Name:        "Foreign Corp",
		Email:       "x@x.example",
		Phone:       "1",
		Website:     "https://x.example",
		Industry:    models.IndustryFinance,
		Address:     "1",
		City:        "1",
		State:       "1",
		Postcode:    "1",
		Country:     "1",
		LeadSource:  "web",
		Status:      "prospect",
	}
	db.Create(&foreign)

	body := map[string]interface{}{
		"title":      "Bad link",
		"company_id": foreign.ID,
	}

	resp := doRequest(router, "POST", "/api/v1/deals", workspaceA.ID, uuid.NewString(), body)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for cross-workspace company, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUpdateDealSparsePatch(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspace := createTestWorkspace(t, db, "Acme")
	deal := createTestDeal(t, db, workspace.ID, "Enterprise rollout")
	amount := int64(500000)
	db.Model(&deal).Update("amount_cents", amount)

	// title-only patch leaves the amount and defaults alone
	resp := doRequest(router, "PATCH", "/api/v1/deals/"+deal.ID, workspace.ID, uuid.NewString(),
		map[string]interface{}{"title": "Enterprise rollout FY27"})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var updated models.Deal
	db.First(&updated, "id = ?", deal.ID)
	if updated.Title != "Enterprise rollout FY27" {
		t.Errorf("Expected new title, got %s", updated.Title)
	}
	if updated.AmountCents == nil || *updated.AmountCents != amount {
		t.Error("Expected amount_cents unchanged by patch that omitted it")
	}
	if updated.Stage != "New" {
		t.Errorf("Expected stage unchanged, got %s", updated.Stage)
	}

	// explicit null clears the amount
	resp = doRequest(router, "PATCH", "/api/v1/deals/"+deal.ID, workspace.ID, uuid.NewString(),
		map[string]interface{}{"amount_cents": nil})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}

	db.First(&updated, "id = ?", deal.ID)
	if updated.AmountCents != nil {
		t.Error("Expected explicit null to clear amount_cents")
	}
}

func TestUpdateDealRejectsInvalidValues(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspace := createTestWorkspace(t, db, "Acme")
	deal := createTestDeal(t, db, workspace.ID, "Enterprise rollout")

	// patches must pass the same rules as creates
	resp := doRequest(router, "PATCH", "/api/v1/deals/"+deal.ID, workspace.ID, uuid.NewString(),
		map[string]interface{}{"status": "BANANA", "currency": "usd!"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 for out-of-enum patch, got %d: %s", resp.Code, resp.Body.String())
	}

	var updated models.Deal
	db.First(&updated, "id = ?", deal.ID)
	if updated.Status != models.DealStatusOpen {
		t.Errorf("Expected status untouched, got %s", updated.Status)
	}
	if updated.Currency != "AUD" {
		t.Errorf("Expected currency untouched, got %s", updated.Currency)
	}

	resp = doRequest(router, "PATCH", "/api/v1/deals/"+deal.ID, workspace.ID, uuid.NewString(),
		map[string]interface{}{"expected_close_date": "31/12/2026"})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for non-ISO close date patch, got %d", resp.Code)
	}

	resp = doRequest(router, "PATCH", "/api/v1/deals/"+deal.ID, workspace.ID, uuid.NewString(),
		map[string]interface{}{"probability": 150})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for probability 150, got %d", resp.Code)
	}
}

func TestUpdateDealRejectsNullTitle(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspace := createTestWorkspace(t, db, "Acme")
	deal := createTestDeal(t, db, workspace.ID, "Enterprise rollout")

	resp := doRequest(router, "PATCH", "/api/v1/deals/"+deal.ID, workspace.ID, uuid.NewString(),
		map[string]interface{}{"title": nil})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 nulling a required column, got %d", resp.Code)
	}

	var updated models.Deal
	db.First(&updated, "id = ?", deal.ID)
	if updated.Title != "Enterprise rollout" {
		t.Errorf("Expected title untouched, got %s", updated.Title)
	}
}

func TestDeleteAndRestoreDeal(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspace := createTestWorkspace(t, db, "Acme")
	deal := createTestDeal(t, db, workspace.ID, "Enterprise rollout")
	userID := uuid.NewString()

	resp := doRequest(router, "DELETE", "/api/v1/deals/"+deal.ID, workspace.ID, userID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on delete, got %d", resp.Code)
	}

	resp = doRequest(router, "GET", "/api/v1/deals/"+deal.ID, workspace.ID, userID, nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", resp.Code)
	}

	resp = doRequest(router, "PATCH", "/api/v1/deals/"+deal.ID+"/restore", workspace.ID, userID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on restore, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doRequest(router, "GET", "/api/v1/deals/"+deal.ID, workspace.ID, userID, nil)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200 after restore, got %d", resp.Code)
	}
}
