package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/yukikurage/task-user-api/internal/dto"
	apierrors "github.com/yukikurage/task-user-api/internal/errors"
)

// Envelope messages
const (
	msgOK      = "OK"
	msgCreated = "Created"
	msgUpdated = "Updated"
	msgDeleted = "Deleted"

	msgInvalidBody = "Invalid JSON body"
)

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, dto.Envelope{Message: message, Data: data})
}

// respondError writes the envelope for err and logs server faults.
func respondError(c *gin.Context, err error) {
	status := apierrors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	_ = c.Error(err)
	respond(c, status, err.Error(), nil)
}

// queryParams returns the first value of every query key.
func queryParams(c *gin.Context) map[string]string {
	values := c.Request.URL.Query()
	params := make(map[string]string, len(values))
	for key, vs := range values {
		if len(vs) > 0 {
			params[key] = vs[0]
		}
	}
	return params
}

// bindBody decodes a JSON or form body into obj. An empty body leaves obj
// untouched.
func bindBody(c *gin.Context, obj any) error {
	if c.Request.Body == nil {
		return nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return apierrors.ValidationFailed(msgInvalidBody)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		err = c.ShouldBindWith(obj, binding.Form)
	default:
		err = binding.JSON.BindBody(body, obj)
	}
	if err == nil {
		return nil
	}

	var fieldErr *dto.FieldError
	if errors.As(err, &fieldErr) {
		return apierrors.ValidationFailed(fieldErr.Error())
	}
	return apierrors.ValidationFailed(msgInvalidBody)
}
