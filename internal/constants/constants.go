package constants

// Retailer statuses
const (
	RetailerStatusTest     = "test"
	RetailerStatusActive   = "active"
	RetailerStatusInactive = "inactive"
)

// Account holder statuses
const (
	AccountHolderStatusPending  = "pending"
	AccountHolderStatusActive   = "active"
	AccountHolderStatusInactive = "inactive"
	AccountHolderStatusFailed   = "failed"
)

// Campaign statuses
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusEnded     = "ended"
	CampaignStatusCancelled = "cancelled"
)

// Loyalty types
const (
	LoyaltyTypeAccumulator = "accumulator"
	LoyaltyTypeStamps      = "stamps"
)

// Pending reward actions on campaign end
const (
	PendingRewardActionRemove  = "remove"
	PendingRewardActionConvert = "convert"
)

// Reward issuance reasons
const (
	RewardReasonGoalMet   = "goal_met"
	RewardReasonConverted = "converted"
)

// Transaction responses returned to the submitting system
const (
	TxResponseAwarded            = "Awarded"
	TxResponseThresholdNotMet    = "Threshold not met"
	TxResponseRefundAccepted     = "Refund accepted"
	TxResponseRefundsNotAccepted = "Refunds not accepted"
	TxResponseDuplicate          = "Duplicate"
)

// Activity types
const (
	ActivityTxHistory           = "tx_history"
	ActivityTxImport            = "tx_import"
	ActivityBalanceChange       = "balance_change"
	ActivityRefundNotRecouped   = "refund_not_recouped"
	ActivityRewardStatus        = "reward_status"
	ActivityCampaignChange      = "campaign_status_change"
	ActivityAccountRequest      = "account_request"
	ActivityAccountActivated    = "account_activated"
	ActivityAccountEnrolment    = "account_enrolment"
	ActivityBalanceReset        = "balance_reset"
	ActivityRewardUpdate        = "reward_update"
	ActivityPendingRewardStatus = "pending_reward_status"
)

// Asynq queue and task names
const (
	QueueDefault = "default"

	TaskActivityPublish      = "activity:publish"
	TaskAccountActivation    = "account:activation"
	TaskEnrolmentCallback    = "account:enrolment-callback"
	TaskSendEmail            = "email:send"
	TaskRewardIssuance       = "reward:issuance"
	TaskPendingRewardConvert = "reward:pending-convert"
)

// Email types
const (
	EmailTypeWelcome        = "welcome_email"
	EmailTypeRewardIssuance = "reward_issuance"
	EmailTypeBalanceReset   = "balance_reset"
)
