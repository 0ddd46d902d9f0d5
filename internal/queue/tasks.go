package queue

import (
	"encoding/json"
	"time"

	"github.com/loyalty-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskActivityPublish activity stream publish task
	TaskActivityPublish = constants.TaskActivityPublish
	// TaskAccountActivation account holder activation task
	TaskAccountActivation = constants.TaskAccountActivation
	// TaskEnrolmentCallback enrolment callback task
	TaskEnrolmentCallback = constants.TaskEnrolmentCallback
	// TaskSendEmail transactional email task
	TaskSendEmail = constants.TaskSendEmail
	// TaskRewardIssuance reward issuance task
	TaskRewardIssuance = constants.TaskRewardIssuance
	// TaskPendingRewardConvert pending reward conversion task
	TaskPendingRewardConvert = constants.TaskPendingRewardConvert
)

// ActivityPayload activity stream publish payload
type ActivityPayload struct {
	Type              string         `json:"type"`
	RetailerSlug      string         `json:"retailer_slug"`
	AccountHolderUUID string         `json:"account_holder_uuid,omitempty"`
	ActivityID        string         `json:"activity_id"`
	Timestamp         time.Time      `json:"timestamp"`
	Data              map[string]any `json:"data,omitempty"`
}

// AccountActivationPayload account activation payload
type AccountActivationPayload struct {
	AccountHolderID uint `json:"account_holder_id"`
}

// EnrolmentCallbackPayload enrolment callback payload
type EnrolmentCallbackPayload struct {
	AccountHolderID uint `json:"account_holder_id"`
}

// SendEmailPayload transactional email payload
type SendEmailPayload struct {
	AccountHolderID uint           `json:"account_holder_id"`
	EmailType       string         `json:"email_type"`
	Data            map[string]any `json:"data,omitempty"`
}

// RewardIssuancePayload reward issuance payload
type RewardIssuancePayload struct {
	AccountHolderID   uint   `json:"account_holder_id"`
	CampaignID        uint   `json:"campaign_id"`
	RewardConfigID    uint   `json:"reward_config_id"`
	Reason            string `json:"reason"`
	PendingRewardUUID string `json:"pending_reward_uuid,omitempty"`
}

// PendingRewardConvertPayload pending reward conversion payload
type PendingRewardConvertPayload struct {
	PendingRewardUUID string `json:"pending_reward_uuid"`
}

// NewActivityTask creates an activity publish task
func NewActivityTask(payload ActivityPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivityPublish, body), nil
}

// NewAccountActivationTask creates an account activation task
func NewAccountActivationTask(payload AccountActivationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccountActivation, body), nil
}

// NewEnrolmentCallbackTask creates an enrolment callback task
func NewEnrolmentCallbackTask(payload EnrolmentCallbackPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEnrolmentCallback, body), nil
}

// NewSendEmailTask creates a transactional email task
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendEmail, body), nil
}

// NewRewardIssuanceTask creates a reward issuance task
func NewRewardIssuanceTask(payload RewardIssuancePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRewardIssuance, body), nil
}

// NewPendingRewardConvertTask creates a pending reward conversion task
func NewPendingRewardConvertTask(payload PendingRewardConvertPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPendingRewardConvert, body), nil
}
