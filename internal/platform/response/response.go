package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sewakita/service-rental/internal/domain"
)

type envelope struct {
	Data interface{} `json:"data,omitempty"`
	Meta interface{} `json:"meta,omitempty"`
}

type pageMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Success writes a 200 response with the payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Data: data})
}

// Created writes a 201 response with the payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Data: data})
}

// Paginated writes a 200 response with paging metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, envelope{Data: items, Meta: pageMeta{Total: total, Page: page, Limit: limit}})
}

// BadRequest writes a 400 response with a validation message.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": errorBody{Kind: string(domain.KindValidation), Message: msg}})
}

// Error maps a domain error kind to an HTTP status.
func Error(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := http.StatusInternalServerError

	switch kind {
	case domain.KindValidation, domain.KindChecklistRequired:
		status = http.StatusBadRequest
	case domain.KindNotAuthorized:
		status = http.StatusForbidden
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindResourceConflict, domain.KindAlreadyResolved, domain.KindIllegalTransition:
		status = http.StatusConflict
	case domain.KindBlacklisted, domain.KindSelfDealing:
		status = http.StatusUnprocessableEntity
	case domain.KindStorage:
		status = http.StatusServiceUnavailable
	}

	msg := err.Error()
	if kind == "" {
		kind = "internal"
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"error": errorBody{Kind: string(kind), Message: msg}})
}
