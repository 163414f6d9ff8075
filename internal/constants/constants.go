package constants

// 用户角色常量
const (
	UserRoleMerchant  = "merchant"
	UserRoleAffiliate = "affiliate"
)

// 订单结算状态常量
const (
	PayoutStatusUnpaid = "unpaid"
	PayoutStatusPaid   = "paid"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskAffiliateOrderPayout  = "affiliate:order_payout"
	TaskAffiliateWelcomeEmail = "affiliate:welcome_email"
)

// 外部服务提供方常量
const (
	ProviderLocal  = "local"
	ProviderHTTP   = "http"
	ProviderPayPal = "paypal"
)

// 授权角色常量
const (
	AuthzRoleMerchant = "role:merchant"
)
