package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"peervote/pkg/middleware"
)

// requestToken prefers the Authorization header over a token in the body.
func requestToken(c *gin.Context, bodyToken string) string {
	if token := middleware.BearerToken(c); token != "" {
		return token
	}
	return strings.TrimSpace(bodyToken)
}

func parseUUIDs(values ...string) ([]uuid.UUID, bool) {
	ids := make([]uuid.UUID, len(values))
	for i, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}
