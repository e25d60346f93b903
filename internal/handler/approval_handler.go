package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	"github.com/fieldops-hq/fieldops-api/internal/service"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
	"github.com/fieldops-hq/fieldops-api/pkg/response"
)

type approvalService interface {
	Submit(ctx context.Context, formType models.FormType, id string, actor models.Identity) (models.ApprovalState, error)
	Approve(ctx context.Context, formType models.FormType, id string, actor models.Identity, req dto.ApproveRequest) (models.ApprovalState, error)
	Reject(ctx context.Context, formType models.FormType, id string, actor models.Identity, req dto.RejectRequest) (models.ApprovalState, error)
	PendingCounts(ctx context.Context, actor models.Identity) (dto.PendingCounts, error)
}

// ApprovalHandler exposes the workflow transitions for approval-routed
// forms plus the pending-count badge feed.
type ApprovalHandler struct {
	service approvalService
	metrics *service.MetricsService
}

// NewApprovalHandler constructs an approval handler.
func NewApprovalHandler(svc approvalService, metrics *service.MetricsService) *ApprovalHandler {
	return &ApprovalHandler{service: svc, metrics: metrics}
}

// Submit returns a gin handler that submits a form of the given type.
func (h *ApprovalHandler) Submit(formType models.FormType) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := identityFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		state, err := h.service.Submit(c.Request.Context(), formType, c.Param("id"), identity)
		if err != nil {
			response.Error(c, err)
			return
		}
		h.metrics.RecordApprovalTransition(string(formType), "submit")
		response.JSON(c, http.StatusOK, state, nil)
	}
}

// Approve returns a gin handler that approves a form at its current level.
func (h *ApprovalHandler) Approve(formType models.FormType) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := identityFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		var req dto.ApproveRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
				return
			}
		}
		state, err := h.service.Approve(c.Request.Context(), formType, c.Param("id"), identity, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		h.metrics.RecordApprovalTransition(string(formType), "approve")
		response.JSON(c, http.StatusOK, state, nil)
	}
}

// Reject returns a gin handler that rejects a form with a mandatory reason.
func (h *ApprovalHandler) Reject(formType models.FormType) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := identityFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		var req dto.RejectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "rejection reason required"))
			return
		}
		state, err := h.service.Reject(c.Request.Context(), formType, c.Param("id"), identity, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		h.metrics.RecordApprovalTransition(string(formType), "reject")
		response.JSON(c, http.StatusOK, state, nil)
	}
}

// PendingCounts godoc
// @Summary Pending approval counts for the caller
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /approvals/pending-counts [get]
func (h *ApprovalHandler) PendingCounts(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	counts, err := h.service.PendingCounts(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}
