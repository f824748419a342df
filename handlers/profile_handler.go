package handlers

import (
	"strconv"

	"manuscript-workflow/helper"
	"manuscript-workflow/services"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	userService         services.UserService
	notificationService services.NotificationService
	Helper              *helper.HTTPHelper
}

func NewProfileHandler(userService services.UserService, notificationService services.NotificationService, h *helper.HTTPHelper) *ProfileHandler {
	return &ProfileHandler{userService: userService, notificationService: notificationService, Helper: h}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), actor)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Profile loaded", user)
}

func (h *ProfileHandler) GetNotifications(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	notifications, err := h.notificationService.List(c.Request.Context(), actor, limit)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", notifications)
}
