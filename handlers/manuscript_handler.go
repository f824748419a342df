package handlers

import (
	"manuscript-workflow/helper"
	"manuscript-workflow/models"
	"manuscript-workflow/services"

	"github.com/gin-gonic/gin"
)

type ManuscriptHandler struct {
	manuscriptService services.ManuscriptService
	Helper            *helper.HTTPHelper
}

func NewManuscriptHandler(manuscriptService services.ManuscriptService, h *helper.HTTPHelper) *ManuscriptHandler {
	return &ManuscriptHandler{manuscriptService: manuscriptService, Helper: h}
}

func (h *ManuscriptHandler) GetManuscripts(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}

	var params models.ManuscriptListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.Helper.SendBadRequest(c, "Invalid query: "+err.Error(), h.Helper.EmptyJsonMap())
		return
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 10
	}

	manuscripts, total, err := h.manuscriptService.GetManuscripts(c.Request.Context(), actor, params)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", gin.H{
		"manuscripts": manuscripts,
		"pagination":  h.Helper.GeneratePaging(c, 0, 0, params.Limit, params.Page, int(total)),
	})
}

func (h *ManuscriptHandler) GetManuscript(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}
	id, ok := uintParam(c, h.Helper, "id")
	if !ok {
		return
	}

	manuscript, err := h.manuscriptService.GetManuscript(c.Request.Context(), actor, id)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", manuscript)
}

func (h *ManuscriptHandler) GetHistory(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}
	id, ok := uintParam(c, h.Helper, "id")
	if !ok {
		return
	}

	history, err := h.manuscriptService.GetHistory(c.Request.Context(), actor, id)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", history)
}

func (h *ManuscriptHandler) GetReadiness(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}
	id, ok := uintParam(c, h.Helper, "id")
	if !ok {
		return
	}

	result, err := h.manuscriptService.Readiness(c.Request.Context(), actor, id)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", result)
}

func (h *ManuscriptHandler) Transition(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}
	id, ok := uintParam(c, h.Helper, "id")
	if !ok {
		return
	}

	var req models.TransitionRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	manuscript, err := h.manuscriptService.Transition(c.Request.Context(), actor, id, req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Status updated", manuscript)
}

func (h *ManuscriptHandler) GenerateDOI(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}
	id, ok := uintParam(c, h.Helper, "id")
	if !ok {
		return
	}

	manuscript, err := h.manuscriptService.GenerateDOI(c.Request.Context(), actor, id)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "DOI generated", manuscript)
}

func (h *ManuscriptHandler) AttachFinalPDF(c *gin.Context) {
	actor, ok := currentActor(c, h.Helper)
	if !ok {
		return
	}
	id, ok := uintParam(c, h.Helper, "id")
	if !ok {
		return
	}

	var req models.FinalPDFRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	manuscript, err := h.manuscriptService.AttachFinalPDF(c.Request.Context(), actor, id, req.Reference)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Final PDF attached", manuscript)
}
