package apperror

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/relatecrm/relate/pkg/relate/optional"
)

// AppError is the single error type raised by domain operations. The
// status code is HTTP-shaped so the boundary can reply without a
// translation table.
type AppError struct {
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return e.Message
}

// New creates an AppError with an explicit status code
func New(message string, statusCode int) *AppError {
	return &AppError{Message: message, StatusCode: statusCode}
}

// NotFound flags a missing, wrong-workspace, or soft-deleted entity
func NotFound(message string) *AppError {
	return New(message, http.StatusNotFound)
}

// BadRequest flags a domain-rule violation
func BadRequest(message string) *AppError {
	return New(message, http.StatusBadRequest)
}

// Reply writes an error response. AppErrors map to their own status and
// message; anything else is logged server-side and replied as a generic
// 500 so internals never leak to the client.
func Reply(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode, gin.H{"message": appErr.Message})
		return
	}
	log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}

// Issue is one structured problem from input validation
type Issue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ReplyValidation writes a 400 for a request-binding failure, with a
// structured issue list when the underlying error carries field detail.
func ReplyValidation(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	issues := []Issue{}
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			issues = append(issues, Issue{Field: fe.Field(), Message: fe.Tag()})
		}
	} else {
		issues = append(issues, Issue{Message: err.Error()})
	}
	ReplyIssues(c, issues)
}

// ReplyIssues writes the standard validation reply for issues collected
// by handler-level checks.
func ReplyIssues(c *gin.Context, issues []Issue) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "Validation error", "issues": issues})
}

// fieldValidator runs the same rule tags the binding layer uses, for
// values that arrive inside optional.Field and so bypass struct binding.
var fieldValidator = validator.New()

// CheckField validates one extracted value against a validator rule and
// appends an issue when it fails.
func CheckField(issues []Issue, field string, value interface{}, rule string) []Issue {
	err := fieldValidator.Var(value, rule)
	if err == nil {
		return issues
	}
	msg := rule
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msg = verrs[0].Tag()
	}
	return append(issues, Issue{Field: field, Message: msg})
}

// CheckPatch validates one tri-state patch field. An explicit null is
// rejected unless the column is nullable; a present value must satisfy
// the rule. An empty rule checks the null policy only.
func CheckPatch[T any](issues []Issue, field string, f optional.Field[T], nullable bool, rule string) []Issue {
	if f.IsNull() {
		if !nullable {
			issues = append(issues, Issue{Field: field, Message: "required"})
		}
		return issues
	}
	v, ok := f.Value()
	if !ok || rule == "" {
		return issues
	}
	return CheckField(issues, field, v, rule)
}
