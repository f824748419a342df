package handlers

import (
	"manuscript-workflow/helper"
	"manuscript-workflow/models"
	"manuscript-workflow/services"

	"github.com/gin-gonic/gin"
)

type IssueHandler struct {
	issueService services.IssueService
	Helper       *helper.HTTPHelper
}

func NewIssueHandler(issueService services.IssueService, h *helper.HTTPHelper) *IssueHandler {
	return &IssueHandler{issueService: issueService, Helper: h}
}

func (h *IssueHandler) EnsureIssue(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}

	var req models.EnsureIssueRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	issue, created, err := h.issueService.EnsureIssue(c.Request.Context(), actor, req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	if created {
		h.Helper.SendCreated(c, "Issue created", issue)
		return
	}
	h.Helper.SendSuccess(c, "Issue already exists", issue)
}

func (h *IssueHandler) GetIssues(c *gin.Context) {
	issues, err := h.issueService.GetIssues(c.Request.Context())
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", issues)
}

func (h *IssueHandler) NextArticleNumber(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}
	volume, ok := intParam(c, h.Helper, "volume")
	if !ok {
		return
	}
	number, ok := intParam(c, h.Helper, "number")
	if !ok {
		return
	}

	next, err := h.issueService.NextArticleNumber(c.Request.Context(), actor, volume, number)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", next)
}

func (h *IssueHandler) PublishInto(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}
	volume, ok := intParam(c, h.Helper, "volume")
	if !ok {
		return
	}
	number, ok := intParam(c, h.Helper, "number")
	if !ok {
		return
	}

	var req models.PublishRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	manuscript, err := h.issueService.PublishInto(c.Request.Context(), actor, volume, number, req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Manuscript published", manuscript)
}
