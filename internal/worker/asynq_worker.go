package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/provider"
	"github.com/loyalty-next/internal/queue"
	"github.com/loyalty-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer asynchronous task consumer
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register registers the task handlers
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskActivityPublish, c.handleActivityPublish)
	mux.HandleFunc(queue.TaskAccountActivation, c.handleAccountActivation)
	mux.HandleFunc(queue.TaskEnrolmentCallback, c.handleEnrolmentCallback)
	mux.HandleFunc(queue.TaskSendEmail, c.handleSendEmail)
	mux.HandleFunc(queue.TaskRewardIssuance, c.handleRewardIssuance)
	mux.HandleFunc(queue.TaskPendingRewardConvert, c.handlePendingRewardConvert)
}

// handleActivityPublish writes the activity to the structured log, the
// default sink of the activity stream.
func (c *Consumer) handleActivityPublish(_ context.Context, task *asynq.Task) error {
	var payload queue.ActivityPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_activity_unmarshal_failed", "error", err)
		return err
	}
	logger.Infow("activity",
		"activity_id", payload.ActivityID,
		"type", payload.Type,
		"retailer", payload.RetailerSlug,
		"account_holder", payload.AccountHolderUUID,
		"timestamp", payload.Timestamp,
		"data", payload.Data,
	)
	return nil
}

func (c *Consumer) handleAccountActivation(_ context.Context, task *asynq.Task) error {
	var payload queue.AccountActivationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_account_activation_unmarshal_failed", "error", err)
		return err
	}
	if payload.AccountHolderID == 0 {
		logger.Debugw("worker_account_activation_skip_invalid_payload")
		return nil
	}
	if err := c.AccountService.Activate(payload.AccountHolderID); err != nil {
		if errors.Is(err, service.ErrAccountHolderNotFound) {
			logger.Debugw("worker_account_activation_skip_not_found", "account_holder_id", payload.AccountHolderID)
			return nil
		}
		logger.Warnw("worker_account_activation_failed", "account_holder_id", payload.AccountHolderID, "error", err)
		return err
	}
	return nil
}

// handleEnrolmentCallback notifies the retailer's system of a new enrolment
func (c *Consumer) handleEnrolmentCallback(ctx context.Context, task *asynq.Task) error {
	var payload queue.EnrolmentCallbackPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_enrolment_callback_unmarshal_failed", "error", err)
		return err
	}
	holder, err := c.AccountHolderRepo.GetByID(payload.AccountHolderID)
	if err != nil {
		return err
	}
	if holder == nil {
		logger.Debugw("worker_enrolment_callback_skip_not_found", "account_holder_id", payload.AccountHolderID)
		return nil
	}
	retailer, err := c.RetailerRepo.GetByID(holder.RetailerID)
	if err != nil {
		return err
	}
	if retailer == nil || retailer.CallbackURL == "" {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"account_holder_uuid": holder.UUID.String(),
		"email":               holder.Email,
		"status":              holder.Status,
	})
	if err != nil {
		return err
	}
	timeout := time.Duration(c.Config.Account.CallbackTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, retailer.CallbackURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Warnw("worker_enrolment_callback_failed", "url", retailer.CallbackURL, "error", err)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		err := fmt.Errorf("callback returned %d", resp.StatusCode)
		logger.Warnw("worker_enrolment_callback_rejected", "url", retailer.CallbackURL, "status", resp.StatusCode)
		return err
	}
	return nil
}

func (c *Consumer) handleSendEmail(_ context.Context, task *asynq.Task) error {
	var payload queue.SendEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_send_email_unmarshal_failed", "error", err)
		return err
	}
	holder, err := c.AccountHolderRepo.GetByID(payload.AccountHolderID)
	if err != nil {
		return err
	}
	if holder == nil {
		logger.Debugw("worker_send_email_skip_holder_not_found", "account_holder_id", payload.AccountHolderID)
		return nil
	}
	retailer, err := c.RetailerRepo.GetByID(holder.RetailerID)
	if err != nil {
		return err
	}
	if retailer == nil {
		return nil
	}

	err = c.sendEmail(holder.Email, retailer.LoyaltyName, payload)
	if errors.Is(err, service.ErrEmailServiceDisabled) || errors.Is(err, service.ErrEmailServiceNotConfigured) {
		logger.Debugw("worker_send_email_skip_disabled", "email_type", payload.EmailType)
		return nil
	}
	if err != nil {
		logger.Warnw("worker_send_email_failed",
			"email_type", payload.EmailType,
			"account_holder_id", payload.AccountHolderID,
			"error", err,
		)
	}
	return err
}

func (c *Consumer) sendEmail(toEmail, loyaltyName string, payload queue.SendEmailPayload) error {
	switch payload.EmailType {
	case constants.EmailTypeWelcome:
		return c.EmailService.SendWelcome(toEmail, loyaltyName)
	case constants.EmailTypeRewardIssuance:
		code, expiry := c.resolveRewardDetails(payload.Data)
		return c.EmailService.SendRewardIssued(toEmail, loyaltyName, code, expiry)
	case constants.EmailTypeBalanceReset:
		return c.EmailService.SendBalanceReset(toEmail, loyaltyName)
	default:
		logger.Debugw("worker_send_email_skip_unknown_type", "email_type", payload.EmailType)
		return nil
	}
}

func (c *Consumer) resolveRewardDetails(data map[string]any) (string, *time.Time) {
	raw, ok := data["reward_uuid"].(string)
	if !ok {
		return "", nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", nil
	}
	reward, err := c.RewardRepo.GetByUUID(id)
	if err != nil || reward == nil {
		return "", nil
	}
	return reward.Code, reward.ExpiryDate
}

func (c *Consumer) handleRewardIssuance(_ context.Context, task *asynq.Task) error {
	var payload queue.RewardIssuancePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_reward_issuance_unmarshal_failed", "error", err)
		return err
	}
	if err := c.RewardService.Issue(payload); err != nil {
		switch {
		case errors.Is(err, service.ErrAccountHolderNotFound):
			logger.Debugw("worker_reward_issuance_skip_holder_gone", "account_holder_id", payload.AccountHolderID)
			return nil
		case errors.Is(err, service.ErrRewardNotFound):
			logger.Debugw("worker_reward_issuance_skip_config_gone", "reward_config_id", payload.RewardConfigID)
			return nil
		default:
			logger.Warnw("worker_reward_issuance_failed", "account_holder_id", payload.AccountHolderID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handlePendingRewardConvert(_ context.Context, task *asynq.Task) error {
	var payload queue.PendingRewardConvertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_pending_convert_unmarshal_failed", "error", err)
		return err
	}
	if err := c.RewardService.ConvertPending(payload.PendingRewardUUID); err != nil {
		if errors.Is(err, service.ErrMissingCampaignComponents) {
			logger.Debugw("worker_pending_convert_skip_campaign_gone", "pending_reward_uuid", payload.PendingRewardUUID)
			return nil
		}
		logger.Warnw("worker_pending_convert_failed", "pending_reward_uuid", payload.PendingRewardUUID, "error", err)
		return err
	}
	return nil
}
