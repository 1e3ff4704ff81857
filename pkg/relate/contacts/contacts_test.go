package contacts

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
	handler.RegisterRoutes(api.Group("/contacts"))

	return r
}

func createTestWorkspace(t *testing.T, db *gorm.DB, name string) models.Workspace {
	workspace := models.Workspace{Name: name, Status: models.WorkspaceStatusActive}
	if err := db.Create(&workspace).Error; err != nil {
		t.Fatalf("Failed to create test workspace: %v", err)
	}
	return workspace
}

func createTestCompany(t *testing.T, db *gorm.DB, workspaceID, name string) models.Company {
	company := models.Company{
		WorkspaceID: workspaceID,
		Name:        name,
		Email:       "info@acme.example",
		Phone:       "+61 2 9000 0000",
		Website:     "https://acme.example",
		Industry:    models.IndustryTechnology,
		Address:     "1 George St",
		City:        "Sydney",
		State:       "NSW",
		Postcode:    "2000",
		Country:     "Australia",
		LeadSource:  "referral",
		Status:      "prospect",
	}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("Failed to create test company: %v", err)
	}
	return company
}

func createTestContact(t *testing.T, db *gorm.DB, workspaceID string, companyID *string) models.Contact {
	contact := models.Contact{
		WorkspaceID: workspaceID,
		CompanyID:   companyID,
		FirstName:   "Jordan",
		LastName:    "Lee",
	}
	if err := db.Create(&contact).Error; err != nil {
		t.Fatalf("Failed to create test contact: %v", err)
	}
	return contact
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

func TestCreateContactWithCompany(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspace := createTestWorkspace(t, db, "Acme")
	company := createTestCompany(t, db, workspace.ID, "Acme Corp")

	body := map[string]interface{}{
		"first_name": "Sam",
		"last_name":  "Chen",
		"email":      "sam@acme.example",
		"company_id": company.ID,
	}

	resp := doRequest(router, "POST", "/api/v1/contacts", workspace.ID, uuid.NewString(), body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var contact models.Contact
	json.Unmarshal(resp.Body.Bytes(), &contact)
	if contact.CompanyID == nil || *contact.CompanyID != company.ID {
		t.Errorf("Expected contact linked to company %s", company.ID)
	}
}

func TestCreateContactCompanyFromOtherWorkspace(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspaceA := createTestWorkspace(t, db, "A")
	workspaceB := createTestWorkspace(t, db, "B")
	foreignCompany := createTestCompany(t, db, workspaceB.ID, "Foreign Corp")

	body := map[string]interface{}{
		"first_name": "Sam",
		"last_name":  "Chen",
		"company_id": foreignCompany.ID,
	}

	// a company in another workspace must look exactly like a missing one
	resp := doRequest(router, "POST", "/api/v1/contacts", workspaceA.ID, uuid.NewString(), body)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for cross-workspace company, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateContactDeletedCompany(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspace := createTestWorkspace(t, db, "Acme")
	company := createTestCompany(t, db, workspace.ID, "Acme Corp")
	db.Delete(&company)

	body := map[string]interface{}{
		"first_name": "Sam",
		"last_name":  "Chen",
		"company_id": company.ID,
	}

	resp := doRequest(router, "POST", "/api/v1/contacts", workspace.ID, uuid.NewString(), body)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for soft-deleted company, got %d", resp.Code)
	}
}

func TestUpdateContactNullDetachesCompany(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspace := createTestWorkspace(t, db, "Acme")
	company := createTestCompany(t, db, workspace.ID, "Acme Corp")
	contact := createTestContact(t, db, workspace.ID, &company.ID)

	resp := doRequest(router, "PUT", "/api/v1/contacts/"+contact.ID, workspace.ID, uuid.NewString(),
		map[string]interface{}{"company_id": nil})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var updated models.Contact
	db.First(&updated, "id = ?", contact.ID)
	if updated.CompanyID != nil {
		t.Error("Expected null company_id to detach the contact")
	}
}

func TestUpdateContactSparsePatch(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspace := createTestWorkspace(t, db, "Acme")
	contact := createTestContact(t, db, workspace.ID, nil)
	email := "jordan@acme.example"
	db.Model(&contact).Update("email", email)

	resp := doRequest(router, "PUT", "/api/v1/contacts/"+contact.ID, workspace.ID, uuid.NewString(),
		map[string]interface{}{"job_title": "CTO"})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var updated models.Contact
	db.First(&updated, "id = ?", contact.ID)
	if updated.JobTitle == nil || *updated.JobTitle != "CTO" {
		t.Error("Expected job_title applied")
	}
	if updated.Email == nil || *updated.Email != email {
		t.Error("Expected email unchanged by patch that omitted it")
	}
}

func TestUpdateContactRejectsInvalidValues(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspace := createTestWorkspace(t, db, "Acme")
	contact := createTestContact(t, db, workspace.ID, nil)

	resp := doRequest(router, "PUT", "/api/v1/contacts/"+contact.ID, workspace.ID, uuid.NewString(),
		map[string]interface{}{"email": "not-an-email"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 for malformed email, got %d: %s", resp.Code, resp.Body.String())
	}

	// first_name is required, so an explicit null is an error
	resp = doRequest(router, "PUT", "/api/v1/contacts/"+contact.ID, workspace.ID, uuid.NewString(),
		map[string]interface{}{"first_name": nil})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 nulling a required column, got %d", resp.Code)
	}

	var updated models.Contact
	db.First(&updated, "id = ?", contact.ID)
	if updated.FirstName != "Jordan" {
		t.Errorf("Expected first_name untouched, got %s", updated.FirstName)
	}
}

func TestDeleteAndRestoreContact(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	workspace := createTestWorkspace(t, db, "Acme")
	contact := createTestContact(t, db, workspace.ID, nil)
	userID := uuid.NewString()

	resp := doRequest(router, "DELETE", "/api/v1/contacts/"+contact.ID, workspace.ID, userID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on delete, got %d", resp.Code)
	}

	var deleted models.Contact
	db.Unscoped().First(&deleted, "id = ?", contact.ID)
	if !deleted.DeletedAt.Valid || deleted.DeletedBy == nil {
		t.Error("Expected deleted_at and deleted_by set together")
	}

	resp = doRequest(router, "PATCH", "/api/v1/contacts/"+contact.ID+"/restore", workspace.ID, userID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on restore, got %d: %s", resp.Code, resp.Body.String())
	}

	var restored models.Contact
	if err := db.First(&restored, "id = ?", contact.ID).Error; err != nil {
		t.Fatalf("Expected contact visible again after restore: %v", err)
	}
}
