package models

import (
	"fmt"
	"strings"
)

// StatusLabels maps console statuses to the localized labels stored by the
// backend. The first label of a status is the one written on updates; the
// rest are accepted when reading.
type StatusLabels map[OrderStatus][]string

// DefaultStatusLabels matches the reference backend deployment.
func DefaultStatusLabels() StatusLabels {
	return StatusLabels{
		OrderStatusPending:   {"대기중", "결제완료"},
		OrderStatusApproved:  {"승인됨"},
		OrderStatusCancelled: {"취소"},
	}
}

// Label returns the label written for status, or the status name itself when
// no label is configured.
func (l StatusLabels) Label(status OrderStatus) string {
	if labels := l[status]; len(labels) > 0 {
		return labels[0]
	}
	return string(status)
}

// Parse resolves a backend label. Unconfigured labels resolve to
// OrderStatusUnknown.
func (l StatusLabels) Parse(label string) OrderStatus {
	label = strings.TrimSpace(label)
	for status, labels := range l {
		for _, candidate := range labels {
			if strings.EqualFold(candidate, label) {
				return status
			}
		}
	}
	return OrderStatusUnknown
}

// Resolve fills Status on each order from its label.
func (l StatusLabels) Resolve(orders []Order) []Order {
	for i := range orders {
		orders[i].Status = l.Parse(orders[i].StatusLabel)
	}
	return orders
}

// ParseStatusLabels reads "pending=대기중|결제완료,approved=승인됨,cancelled=취소".
func ParseStatusLabels(raw string) (StatusLabels, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultStatusLabels(), nil
	}
	out := make(StatusLabels)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid status label entry %q", pair)
		}
		status := OrderStatus(strings.ToLower(strings.TrimSpace(key)))
		switch status {
		case OrderStatusPending, OrderStatusApproved, OrderStatusCancelled:
		default:
			return nil, fmt.Errorf("unknown order status %q", key)
		}
		for _, label := range strings.Split(value, "|") {
			if label = strings.TrimSpace(label); label != "" {
				out[status] = append(out[status], label)
			}
		}
		if len(out[status]) == 0 {
			return nil, fmt.Errorf("no label for order status %q", key)
		}
	}
	return out, nil
}
