package api

import (
	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ChangeCampaignStatusRequest campaign transition payload
type ChangeCampaignStatusRequest struct {
	CampaignSlug         string `json:"campaign_slug" binding:"required"`
	Status               string `json:"status" binding:"required"`
	PendingRewardsAction string `json:"pending_rewards_action"`
}

var campaignErrorRules = []mappedHandlerError{
	{target: service.ErrRetailerNotFound, code: response.CodeNotFound, message: "retailer not found"},
	{target: service.ErrCampaignNotFound, code: response.CodeNotFound, message: "campaign not found"},
	{target: service.ErrInvalidStatusRequested, code: response.CodeBadRequest, message: "invalid status requested"},
	{target: service.ErrMissingCampaignComponents, code: response.CodeBadRequest, message: "campaign rules incomplete"},
}

// ChangeCampaignStatus applies one campaign lifecycle transition
func (h *Handler) ChangeCampaignStatus(c *gin.Context) {
	retailer := retailerFromRequest(c)
	if retailer == nil {
		return
	}
	var req ChangeCampaignStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid payload", err)
		return
	}
	err := h.CampaignService.ChangeStatus(service.ChangeStatusRequest{
		RetailerSlug:         retailer.Slug,
		CampaignSlug:         req.CampaignSlug,
		RequestedStatus:      req.Status,
		PendingRewardsAction: req.PendingRewardsAction,
		Requester:            operatorFromRequest(c),
	})
	if err != nil {
		respondWithMappedError(c, err, campaignErrorRules, response.CodeInternal, "campaign status change failed")
		return
	}
	response.SuccessWithMsg(c, "status updated", gin.H{
		"campaign_slug": req.CampaignSlug,
		"status":        req.Status,
	})
}
