package handlers

import (
	"manuscript-workflow/helper"
	"manuscript-workflow/models"
	"manuscript-workflow/services"

	"github.com/gin-gonic/gin"
)

type ReviewerHandler struct {
	reviewerService services.ReviewerService
	Helper          *helper.HTTPHelper
}

func NewReviewerHandler(reviewerService services.ReviewerService, h *helper.HTTPHelper) *ReviewerHandler {
	return &ReviewerHandler{reviewerService: reviewerService, Helper: h}
}

// assignmentParams reads the actor and the :id / :reviewer_id pair.
func (h *ReviewerHandler) assignmentParams(c *gin.Context) (models.Actor, uint, uint, bool) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return actor, 0, 0, false
	}
	manuscriptID, ok := uintParam(c, h.Helper, "id")
	if !ok {
		return actor, 0, 0, false
	}
	reviewerID, ok := uintParam(c, h.Helper, "reviewer_id")
	if !ok {
		return actor, 0, 0, false
	}
	return actor, manuscriptID, reviewerID, true
}

func (h *ReviewerHandler) Assign(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}
	manuscriptID, ok := uintParam(c, h.Helper, "id")
	if !ok {
		return
	}

	var req models.AssignReviewerRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	assignment, err := h.reviewerService.Assign(c.Request.Context(), actor, manuscriptID, req.ReviewerID)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendCreated(c, "Reviewer invited", assignment)
}

func (h *ReviewerHandler) Remove(c *gin.Context) {
	actor, manuscriptID, reviewerID, ok := h.assignmentParams(c)
	if !ok {
		return
	}

	if err := h.reviewerService.Remove(c.Request.Context(), actor, manuscriptID, reviewerID); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Reviewer removed", h.Helper.EmptyJsonMap())
}

func (h *ReviewerHandler) Respond(c *gin.Context) {
	actor, manuscriptID, reviewerID, ok := h.assignmentParams(c)
	if !ok {
		return
	}

	var req models.RespondRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	assignment, err := h.reviewerService.Respond(c.Request.Context(), actor, manuscriptID, reviewerID, *req.Accept)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Response recorded", assignment)
}

func (h *ReviewerHandler) BeginReview(c *gin.Context) {
	actor, manuscriptID, reviewerID, ok := h.assignmentParams(c)
	if !ok {
		return
	}

	assignment, err := h.reviewerService.BeginReview(c.Request.Context(), actor, manuscriptID, reviewerID)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Review started", assignment)
}

func (h *ReviewerHandler) SubmitReview(c *gin.Context) {
	actor, manuscriptID, reviewerID, ok := h.assignmentParams(c)
	if !ok {
		return
	}

	var req models.SubmitReviewRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	assignment, err := h.reviewerService.SubmitReview(c.Request.Context(), actor, manuscriptID, reviewerID, req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Review submitted", assignment)
}

func (h *ReviewerHandler) RelayComments(c *gin.Context) {
	actor, manuscriptID, reviewerID, ok := h.assignmentParams(c)
	if !ok {
		return
	}

	manuscript, err := h.reviewerService.RelayComments(c.Request.Context(), actor, manuscriptID, reviewerID)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Comments relayed", manuscript)
}

func (h *ReviewerHandler) GetMyAssignments(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}

	assignments, err := h.reviewerService.GetMyAssignments(c.Request.Context(), actor)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", assignments)
}
