package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-checkin/pkg/errors"
)

// Clock is read once per request so a whole decision sees one instant.
type Clock interface {
	Now() time.Time
}

// ParamID parses a path parameter as a UUID.
func ParamID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.NewBadRequest("invalid "+name, err)
	}
	return id, nil
}

// Bind decodes a JSON body, mapping decode failures to BadRequest.
func Bind(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return errors.NewBadRequest("invalid request body", err)
	}
	return nil
}
