package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lpreports/fundxtract/internal/common"
	"github.com/lpreports/fundxtract/internal/repository"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps the pipeline failure taxonomy onto HTTP statuses.
// State-machine rejections surface as 409 so a caller retrying a
// cancel on a finished job can tell it apart from a server fault.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrInvalidTransition):
		status = http.StatusConflict
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	return offset, limit
}
