package enum

// ── Roles (issued by the lunch backend) ──

const (
	UserRoleUser    = "user"
	UserRoleManager = "manager"
)

// ── Hand-off store drivers ──

const (
	HandoffStoreMemory   = "memory"
	HandoffStorePostgres = "postgres"
	HandoffStoreRedis    = "redis"
)

// ── Published events ──

const (
	EventOrderSubmitted  = "order.submitted"
	EventCafeDeleted     = "admin.cafe_deleted"
	EventComboDeleted    = "admin.combo_deleted"
	EventMenuItemDeleted = "admin.menu_item_deleted"
	EventUserDeleted     = "admin.user_deleted"
)

// ── Admin console WebSocket messages ──

const (
	// server → console
	WSConfirmOpen  = "confirm.open"
	WSConfirmFocus = "confirm.focus"
	WSConfirmClose = "confirm.close"

	// console → server
	WSConfirmAction = "confirm.action"
	WSConfirmKey    = "confirm.key"
)

const (
	ConfirmActionConfirm = "confirm"
	ConfirmActionCancel  = "cancel"
)
