package report

import "go.uber.org/atomic"

type WebhookErrors struct {
	Delivery          atomic.Uint64 `json:"delivery"`
	PersistentFailure atomic.Uint64 `json:"persistent_failure"`
}

type WebhookState struct {
	DigestsDelivered atomic.Uint64 `json:"digests_delivered"`
}

type WebhookReport struct {
	State  WebhookState  `json:"state"`
	Errors WebhookErrors `json:"errors"`
}
