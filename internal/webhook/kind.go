package webhook

// Kind is the closed set of inbound event types the router understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindSubscriptionConfirmation
	KindNotification
	KindDelivery
	KindComplaint
	KindBounce
)

var kindNames = map[string]Kind{
	"SubscriptionConfirmation": KindSubscriptionConfirmation,
	"Notification":             KindNotification,
	"Delivery":                 KindDelivery,
	"Complaint":                KindComplaint,
	"Bounce":                   KindBounce,
}

// ParseKind maps a discriminant value to a Kind. Matching is exact, as SES and
// SNS send these names verbatim.
func ParseKind(s string) Kind {
	if k, ok := kindNames[s]; ok {
		return k
	}
	return KindUnknown
}

func (k Kind) String() string {
	switch k {
	case KindSubscriptionConfirmation:
		return "SubscriptionConfirmation"
	case KindNotification:
		return "Notification"
	case KindDelivery:
		return "Delivery"
	case KindComplaint:
		return "Complaint"
	case KindBounce:
		return "Bounce"
	case KindUnknown:
		return "Unknown"
	}
	return "Unknown"
}
