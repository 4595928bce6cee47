package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/wordwise/internal/quiz"
	"github.com/example/wordwise/internal/service"
)

// Response is the envelope of every API reply
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Success: false, Error: msg})
}

func badRequest(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, err.Error())
}

// errorStatus maps domain errors onto HTTP status codes
func errorStatus(err error) int {
	var writeErr *quiz.StatsWriteError
	switch {
	case errors.As(err, &writeErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, quiz.ErrNoCheckpoint):
		return http.StatusNotFound
	case errors.Is(err, quiz.ErrEmptyPool):
		return http.StatusUnprocessableEntity
	case errors.Is(err, quiz.ErrInvalidCount),
		errors.Is(err, quiz.ErrBlankAnswer):
		return http.StatusBadRequest
	case errors.Is(err, quiz.ErrSessionNotActive),
		errors.Is(err, quiz.ErrSessionFinished),
		errors.Is(err, quiz.ErrSessionIncomplete),
		errors.Is(err, quiz.ErrSessionNotCompleted),
		errors.Is(err, quiz.ErrNoQuestion):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	fail(c, status, err.Error())
}
