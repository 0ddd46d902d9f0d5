package api

import (
	"strconv"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EnrolRequest enrolment payload
type EnrolRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// AccountHolderView account holder API representation
type AccountHolderView struct {
	UUID          string                `json:"uuid"`
	Email         string                `json:"email"`
	Status        string                `json:"status"`
	AccountNumber string                `json:"account_number,omitempty"`
	Balances      []CampaignBalanceView `json:"balances,omitempty"`
}

// CampaignBalanceView per-campaign balance API representation
type CampaignBalanceView struct {
	CampaignID uint   `json:"campaign_id"`
	Balance    int64  `json:"balance"`
	ResetDate  string `json:"reset_date,omitempty"`
}

var enrolErrorRules = []mappedHandlerError{
	{target: service.ErrRetailerNotFound, code: response.CodeNotFound, message: "retailer not found"},
	{target: service.ErrRetailerInactive, code: response.CodeForbidden, message: "retailer inactive"},
	{target: service.ErrAccountHolderExists, code: response.CodeConflict, message: "email already enrolled"},
}

var accountErrorRules = []mappedHandlerError{
	{target: service.ErrRetailerNotFound, code: response.CodeNotFound, message: "retailer not found"},
	{target: service.ErrAccountHolderNotFound, code: response.CodeNotFound, message: "account holder not found"},
}

// Enrol signs an email address up with a retailer's programme
func (h *Handler) Enrol(c *gin.Context) {
	var req EnrolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid payload", err)
		return
	}
	holder, err := h.AccountService.Enrol(c.Param("retailer"), req.Email)
	if err != nil {
		respondWithMappedError(c, err, enrolErrorRules, response.CodeInternal, "enrolment failed")
		return
	}
	response.Success(c, buildAccountHolderView(holder, nil))
}

// GetAccountHolder fetches one account holder with its campaign balances
func (h *Handler) GetAccountHolder(c *gin.Context) {
	retailer := retailerFromRequest(c)
	if retailer == nil {
		return
	}
	holderUUID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid account holder uuid", err)
		return
	}
	holder, err := h.AccountService.GetAccount(retailer.Slug, holderUUID)
	if err != nil {
		respondWithMappedError(c, err, accountErrorRules, response.CodeInternal, "account fetch failed")
		return
	}
	balances, err := h.CampaignBalanceRepo.ListByAccountHolder(holder.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "account fetch failed", err)
		return
	}
	response.Success(c, buildAccountHolderView(holder, balances))
}

// ListAccountTransactions lists an account holder's transaction history
func (h *Handler) ListAccountTransactions(c *gin.Context) {
	retailer := retailerFromRequest(c)
	if retailer == nil {
		return
	}
	holder := h.resolveAccountHolder(c, retailer.Slug)
	if holder == nil {
		return
	}
	page, pageSize := queryPagination(c)
	transactions, total, err := h.TransactionRepo.List(repository.TransactionListFilter{
		Page:            page,
		PageSize:        pageSize,
		RetailerID:      retailer.ID,
		AccountHolderID: holder.ID,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "transaction list failed", err)
		return
	}
	response.SuccessWithPage(c, transactions, response.BuildPagination(page, pageSize, total))
}

// ListAccountRewards lists an account holder's issued rewards
func (h *Handler) ListAccountRewards(c *gin.Context) {
	retailer := retailerFromRequest(c)
	if retailer == nil {
		return
	}
	holder := h.resolveAccountHolder(c, retailer.Slug)
	if holder == nil {
		return
	}
	page, pageSize := queryPagination(c)
	rewards, total, err := h.RewardRepo.List(repository.RewardListFilter{
		Page:            page,
		PageSize:        pageSize,
		AccountHolderID: holder.ID,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "reward list failed", err)
		return
	}
	response.SuccessWithPage(c, rewards, response.BuildPagination(page, pageSize, total))
}

func (h *Handler) resolveAccountHolder(c *gin.Context, retailerSlug string) *models.AccountHolder {
	holderUUID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid account holder uuid", err)
		return nil
	}
	holder, err := h.AccountService.GetAccount(retailerSlug, holderUUID)
	if err != nil {
		respondWithMappedError(c, err, accountErrorRules, response.CodeInternal, "account fetch failed")
		return nil
	}
	return holder
}

func queryPagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return normalizePagination(page, pageSize)
}

func buildAccountHolderView(holder *models.AccountHolder, balances []models.CampaignBalance) AccountHolderView {
	view := AccountHolderView{
		UUID:   holder.UUID.String(),
		Email:  holder.Email,
		Status: holder.Status,
	}
	if holder.AccountNumber != nil {
		view.AccountNumber = *holder.AccountNumber
	}
	for i := range balances {
		balance := CampaignBalanceView{
			CampaignID: balances[i].CampaignID,
			Balance:    balances[i].Balance,
		}
		if balances[i].ResetDate != nil {
			balance.ResetDate = balances[i].ResetDate.Format("2006-01-02")
		}
		view.Balances = append(view.Balances, balance)
	}
	return view
}
