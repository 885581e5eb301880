package events

// Topic constants for domain events emitted by the platform.
const (
	TopicCartCleared        = "cart.cleared"
	TopicDiscountRedeemed   = "discount.redeemed"
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
	TopicOrderCancelled     = "order.cancelled"
	TopicInvoiceIssued      = "invoice.issued"
)

// DefaultTopics returns the canonical list of topics that support delivery.
func DefaultTopics() []string {
	return []string{
		TopicCartCleared,
		TopicDiscountRedeemed,
		TopicOrderCreated,
		TopicOrderStatusChanged,
		TopicOrderCancelled,
		TopicInvoiceIssued,
	}
}
