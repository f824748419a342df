package handlers

import (
	"manuscript-workflow/helper"
	"manuscript-workflow/models"
	"manuscript-workflow/services"

	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	submissionService services.SubmissionService
	Helper            *helper.HTTPHelper
}

func NewSubmissionHandler(submissionService services.SubmissionService, h *helper.HTTPHelper) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService, Helper: h}
}

func (h *SubmissionHandler) Start(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}

	session, err := h.submissionService.Start(c.Request.Context(), actor)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendCreated(c, "Submission started", session)
}

func (h *SubmissionHandler) GetSession(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}

	session, err := h.submissionService.GetSession(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", session)
}

func (h *SubmissionHandler) SaveStep(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}
	step, ok := intParam(c, h.Helper, "step")
	if !ok {
		return
	}

	var data models.SubmissionData
	if err := c.ShouldBindJSON(&data); err != nil {
		h.Helper.SendBadRequest(c, "invalid request body: "+err.Error(), h.Helper.EmptyJsonMap())
		return
	}

	session, err := h.submissionService.SaveStep(c.Request.Context(), actor, c.Param("id"), models.SubmissionStep(step), data)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Step saved", session)
}

func (h *SubmissionHandler) Navigate(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}

	var req models.NavigateRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	session, err := h.submissionService.Navigate(c.Request.Context(), actor, c.Param("id"), req.Target)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Step changed", session)
}

func (h *SubmissionHandler) RecordPreview(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}

	var req models.PreviewRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	preview, err := h.submissionService.RecordPreview(c.Request.Context(), actor, c.Param("id"), req.Reference)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendCreated(c, "Preview generated", preview)
}

func (h *SubmissionHandler) ViewPreview(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}

	preview, err := h.submissionService.ViewPreview(c.Request.Context(), actor, c.Param("id"), c.Param("preview_id"))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Preview viewed", preview)
}

func (h *SubmissionHandler) Submit(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}

	manuscript, err := h.submissionService.Submit(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendCreated(c, "Manuscript submitted", manuscript)
}
