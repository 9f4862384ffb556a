package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"task-manager/api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

// jsonFieldName reports validation failures under the request's JSON keys.
func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

var statusByKind = []struct {
	kind   error
	status int
}{
	{services.ErrNotFound, http.StatusNotFound},
	{services.ErrAuthenticationFailed, http.StatusUnauthorized},
	{services.ErrInvalidStatus, http.StatusBadRequest},
	{services.ErrTaskLocked, http.StatusBadRequest},
	{services.ErrPastDueDate, http.StatusBadRequest},
	{services.ErrValidation, http.StatusBadRequest},
}

// respondError renders err. Unknown errors become a 500 whose detail is kept
// on the context for the request logger rather than sent to the client.
func respondError(c *gin.Context, err error) {
	for _, m := range statusByKind {
		if !errors.Is(err, m.kind) {
			continue
		}
		body := ErrorResponse{Error: m.kind.Error(), Message: err.Error()}
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			body.Message = verr.Message
			body.Fields = verr.Fields
		}
		if m.kind == services.ErrNotFound {
			body.Message = "Not found."
		}
		c.AbortWithStatusJSON(m.status, body)
		return
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An unexpected error occurred.",
	})
}

// bindJSON decodes the body into obj. An empty body decodes as {} so the
// validator still reports missing required fields.
func bindJSON(c *gin.Context, obj any) error {
	var err error
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		err = binding.Validator.ValidateStruct(obj)
	} else if err = c.ShouldBindJSON(obj); errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err == nil {
		return nil
	}
	return bindingError(err)
}

func bindingError(err error) error {
	var (
		verrs     validator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &verrs):
		fields := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
		}
		return &services.ValidationError{Kind: services.ErrValidation, Message: "Invalid input.", Fields: fields}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		msg := fmt.Sprintf("Expected %s but got %s.", typeErr.Type.String(), typeErr.Value)
		return &services.ValidationError{
			Kind:    services.ErrValidation,
			Message: msg,
			Fields:  map[string][]string{typeErr.Field: {msg}},
		}
	case errors.As(err, &syntaxErr):
		return &services.ValidationError{Kind: services.ErrValidation, Message: "JSON parse error - " + syntaxErr.Error()}
	default:
		return &services.ValidationError{Kind: services.ErrValidation, Message: err.Error()}
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	default:
		return fe.Error()
	}
}
