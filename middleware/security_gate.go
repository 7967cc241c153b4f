package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"jrg-backend/services"
)

// SessionCookieName carries the anonymous session the CSRF token is bound to.
const SessionCookieName = "jrg_session"

const maxFormBodySize = 1 << 20 // 1 MiB

const formFieldsKey = "formFields"

// SecurityGate runs the abuse checks on a public form endpoint before the
// handler sees the request. The JSON body is consumed for inspection and
// restored so the handler can still bind it.
func SecurityGate(security *services.SecurityService, formID string, opts services.GateOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields, err := readFormFields(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "Invalid request body",
			})
			c.Abort()
			return
		}

		sessionID, _ := c.Cookie(SessionCookieName)
		submission := services.Submission{
			FormID:    formID,
			SessionID: sessionID,
			IP:        c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
			Fields:    fields,
		}

		if violation := security.Inspect(c.Request.Context(), submission, opts); violation != nil {
			c.JSON(violation.Status, gin.H{
				"status":  "error",
				"message": violation.Message,
			})
			c.Abort()
			return
		}

		c.Set(formFieldsKey, submission)
		c.Next()
	}
}

// GetSubmission returns the inspected form submission stored by SecurityGate.
func GetSubmission(c *gin.Context) (services.Submission, bool) {
	value, exists := c.Get(formFieldsKey)
	if !exists {
		return services.Submission{}, false
	}
	submission, ok := value.(services.Submission)
	return submission, ok
}

// readFormFields parses the JSON body into a flat string map and puts the
// raw bytes back on the request for downstream binding.
func readFormFields(c *gin.Context) (map[string]string, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxFormBodySize))
	if err != nil {
		return nil, err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	fields := make(map[string]string)
	if len(body) == 0 {
		return fields, nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	for key, value := range raw {
		switch v := value.(type) {
		case string:
			fields[key] = v
		case float64:
			fields[key] = formatNumber(v)
		case bool:
			fields[key] = fmt.Sprintf("%t", v)
		}
	}
	return fields, nil
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
