package apperror

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/relatecrm/relate/pkg/relate/optional"
)

func setupTestRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/test", handler)
	return r
}

func TestReplyAppError(t *testing.T) {
	router := setupTestRouter(func(c *gin.Context) {
		Reply(c, NotFound("Company not found"))
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", resp.Code)
	}

	var reply map[string]string
	json.Unmarshal(resp.Body.Bytes(), &reply)
	if reply["message"] != "Company not found" {
		t.Errorf("Unexpected message: %s", reply["message"])
	}
}

func TestReplyWrappedAppError(t *testing.T) {
	router := setupTestRouter(func(c *gin.Context) {
		wrapped := errors.Join(BadRequest("bad input"), errors.New("context"))
		Reply(c, wrapped)
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for wrapped AppError, got %d", resp.Code)
	}
}

func TestReplyInternalError(t *testing.T) {
	router := setupTestRouter(func(c *gin.Context) {
		Reply(c, errors.New("sqlite: disk I/O error"))
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", resp.Code)
	}

	// the underlying error text must not reach the client
	var reply map[string]string
	json.Unmarshal(resp.Body.Bytes(), &reply)
	if reply["message"] != "Internal server error" {
		t.Errorf("Unexpected message: %s", reply["message"])
	}
}

func TestCheckPatch(t *testing.T) {
	// present value failing its rule
	issues := CheckPatch(nil, "status", optional.Of("BANANA"), false, "oneof=OPEN WON LOST")
	if len(issues) != 1 || issues[0].Field != "status" {
		t.Errorf("Expected one issue on status, got %v", issues)
	}

	// present value passing its rule
	issues = CheckPatch(nil, "status", optional.Of("WON"), false, "oneof=OPEN WON LOST")
	if len(issues) != 0 {
		t.Errorf("Expected no issues, got %v", issues)
	}

	// explicit null on a non-nullable column
	issues = CheckPatch(nil, "name", optional.Null[string](), false, "min=1")
	if len(issues) != 1 || issues[0].Message != "required" {
		t.Errorf("Expected required issue for null, got %v", issues)
	}

	// explicit null on a nullable column is fine
	issues = CheckPatch(nil, "company_id", optional.Null[string](), true, "uuid")
	if len(issues) != 0 {
		t.Errorf("Expected no issues for nullable null, got %v", issues)
	}

	// omitted field is never checked
	issues = CheckPatch(nil, "name", optional.Field[string]{}, false, "min=1")
	if len(issues) != 0 {
		t.Errorf("Expected no issues for omitted field, got %v", issues)
	}
}

func TestReplyValidation(t *testing.T) {
	type payload struct {
		Email string `json:"email" binding:"required,email"`
	}

	router := setupTestRouter(func(c *gin.Context) {
		var p payload
		if err := c.ShouldBindJSON(&p); err != nil {
			ReplyValidation(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Body = http.NoBody
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", resp.Code)
	}

	var reply struct {
		Message string  `json:"message"`
		Issues  []Issue `json:"issues"`
	}
	json.Unmarshal(resp.Body.Bytes(), &reply)
	if reply.Message != "Validation error" {
		t.Errorf("Unexpected message: %s", reply.Message)
	}
	if len(reply.Issues) == 0 {
		t.Error("Expected at least one issue")
	}
}
