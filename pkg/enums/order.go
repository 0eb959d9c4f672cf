package enums

import "fmt"

// OrderStatus maps to the order_status enum in Postgres.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
	OrderStatusExpired OrderStatus = "expired"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusFailed,
	OrderStatusExpired,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value matches the canonical order_status enum.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// FulfillmentStage tracks a paid order through the delivery pipeline.
// Keys may only be revealed once the order reaches FulfillmentStageReady.
type FulfillmentStage string

const (
	FulfillmentStageReceived  FulfillmentStage = "received"
	FulfillmentStagePreparing FulfillmentStage = "preparing"
	FulfillmentStageSecuring  FulfillmentStage = "securing"
	FulfillmentStageReady     FulfillmentStage = "ready"
)

var validFulfillmentStages = []FulfillmentStage{
	FulfillmentStageReceived,
	FulfillmentStagePreparing,
	FulfillmentStageSecuring,
	FulfillmentStageReady,
}

// String implements fmt.Stringer.
func (f FulfillmentStage) String() string {
	return string(f)
}

// IsValid reports whether the value matches the canonical fulfillment_stage enum.
func (f FulfillmentStage) IsValid() bool {
	for _, candidate := range validFulfillmentStages {
		if candidate == f {
			return true
		}
	}
	return false
}

// Next returns the following stage in the pipeline, or the stage itself when terminal.
func (f FulfillmentStage) Next() FulfillmentStage {
	switch f {
	case FulfillmentStageReceived:
		return FulfillmentStagePreparing
	case FulfillmentStagePreparing:
		return FulfillmentStageSecuring
	case FulfillmentStageSecuring:
		return FulfillmentStageReady
	default:
		return f
	}
}

// ParseFulfillmentStage converts raw input into FulfillmentStage.
func ParseFulfillmentStage(value string) (FulfillmentStage, error) {
	for _, candidate := range validFulfillmentStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment stage %q", value)
}
