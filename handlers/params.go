package handlers

import (
	"strconv"

	"manuscript-workflow/helper"
	"manuscript-workflow/middleware"
	"manuscript-workflow/models"

	"github.com/gin-gonic/gin"
)

// currentActor answers 401 itself when the request carries no actor.
func currentActor(c *gin.Context, h *helper.HTTPHelper) (models.Actor, bool) {
	actor, ok := middleware.Actor(c)
	if !ok {
		h.SendUnauthorizedError(c, "User not found in context", h.EmptyJsonMap())
		return models.Actor{}, false
	}
	return actor, true
}

// uintParam parses a positive integer path parameter, answering 400 itself
// when it is malformed.
func uintParam(c *gin.Context, h *helper.HTTPHelper, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		h.SendBadRequest(c, "Invalid "+name, h.EmptyJsonMap())
		return 0, false
	}
	return uint(id), true
}

func intParam(c *gin.Context, h *helper.HTTPHelper, name string) (int, bool) {
	id, ok := uintParam(c, h, name)
	return int(id), ok
}
