package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ParamUUID parses a UUID path parameter. On failure it writes a 400 response
// with message and returns false.
func ParamUUID(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		Error(c, http.StatusBadRequest, message, nil)
		return uuid.Nil, false
	}
	return id, true
}

// QueryUUID parses an optional UUID query parameter. A missing parameter
// yields nil and true.
func QueryUUID(c *gin.Context, name, message string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		Error(c, http.StatusBadRequest, message, nil)
		return nil, false
	}
	return &id, true
}
