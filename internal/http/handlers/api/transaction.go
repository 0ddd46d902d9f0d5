package api

import (
	"errors"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProcessTransactionRequest inbound transaction payload
type ProcessTransactionRequest struct {
	TransactionID        string    `json:"transaction_id" binding:"required"`
	AccountHolderUUID    string    `json:"account_holder_uuid" binding:"required"`
	Amount               int64     `json:"amount" binding:"required"`
	MID                  string    `json:"mid" binding:"required"`
	Datetime             time.Time `json:"datetime" binding:"required"`
	PaymentTransactionID string    `json:"payment_transaction_id"`
}

// TransactionEarnView per-campaign earn outcome
type TransactionEarnView struct {
	CampaignSlug string `json:"campaign_slug"`
	LoyaltyType  string `json:"loyalty_type"`
	Amount       int64  `json:"amount"`
	Accepted     bool   `json:"accepted"`
}

var transactionErrorRules = []mappedHandlerError{
	{target: service.ErrRetailerNotFound, code: response.CodeNotFound, message: "retailer not found"},
	{target: service.ErrRetailerInactive, code: response.CodeForbidden, message: "retailer inactive"},
	{target: service.ErrAccountHolderNotFound, code: response.CodeNotFound, message: "account holder not found"},
	{target: service.ErrAccountHolderNotActive, code: response.CodeForbidden, message: "account holder not active"},
	{target: service.ErrInvalidTxDate, code: response.CodeBadRequest, message: "transaction predates the account"},
	{target: service.ErrNoActiveCampaigns, code: response.CodeBadRequest, message: "no active campaigns"},
	{target: service.ErrNoMatchingStore, code: response.CodeBadRequest, message: "unknown store mid"},
}

// ProcessTransaction runs one transaction through the earn pipeline
func (h *Handler) ProcessTransaction(c *gin.Context) {
	retailer := retailerFromRequest(c)
	if retailer == nil {
		return
	}
	var req ProcessTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid payload", err)
		return
	}
	holderUUID, err := uuid.Parse(req.AccountHolderUUID)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid account holder uuid", err)
		return
	}

	result, err := h.TransactionService.Process(service.ProcessRequest{
		RetailerSlug:         retailer.Slug,
		TransactionID:        req.TransactionID,
		AccountHolderUUID:    holderUUID,
		Amount:               req.Amount,
		MID:                  req.MID,
		Datetime:             req.Datetime,
		PaymentTransactionID: req.PaymentTransactionID,
	})
	if err != nil {
		if errors.Is(err, service.ErrDuplicateTransaction) {
			response.ErrorWithData(c, response.CodeConflict, constants.TxResponseDuplicate, gin.H{
				"response": constants.TxResponseDuplicate,
			})
			return
		}
		respondWithMappedError(c, err, transactionErrorRules, response.CodeInternal, "transaction processing failed")
		return
	}

	earns := make([]TransactionEarnView, 0, len(result.Earns))
	for _, earn := range result.Earns {
		earns = append(earns, TransactionEarnView{
			CampaignSlug: earn.Campaign.Slug,
			LoyaltyType:  earn.Campaign.LoyaltyType,
			Amount:       earn.Amount,
			Accepted:     earn.Accepted,
		})
	}
	response.Success(c, gin.H{
		"response": result.Response,
		"earns":    earns,
	})
}
