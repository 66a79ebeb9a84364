// Package lifecycle reacts to account lifecycle events delivered by
// EventBridge: Control Tower CreateManagedAccount and AWS Organizations
// CreateAccountResult service events. The handler resolves the new
// account's configured OU and moves the account there when it landed
// somewhere else.
package lifecycle

import (
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cockroachdb/errors"
)

// Event sources and names carried in the CloudTrail service events.
const (
	controlTowerEventSource = "controltower.amazonaws.com"
	organizationsSource     = "organizations.amazonaws.com"

	createManagedAccountEvent = "CreateManagedAccount"
	createAccountResultEvent  = "CreateAccountResult"
)

type eventDetail struct {
	EventSource         string              `json:"eventSource"`
	EventName           string              `json:"eventName"`
	ServiceEventDetails serviceEventDetails `json:"serviceEventDetails"`
}

type serviceEventDetails struct {
	CreateManagedAccountStatus managedAccountStatus `json:"createManagedAccountStatus"`
	CreateAccountStatus        accountStatus        `json:"createAccountStatus"`
}

type managedAccountStatus struct {
	State   string         `json:"state"`
	Account accountSummary `json:"account"`
}

type accountStatus struct {
	State       string `json:"state"`
	AccountName string `json:"accountName"`
	AccountID   string `json:"accountId"`
}

type accountSummary struct {
	AccountName string `json:"accountName"`
	AccountID   string `json:"accountId"`
}

// AccountID extracts the affected account id from a lifecycle event.
func AccountID(event events.CloudWatchEvent) (string, error) {
	var detail eventDetail
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		return "", errors.Wrap(err, "parsing event detail")
	}

	switch {
	case detail.EventSource == controlTowerEventSource && detail.EventName == createManagedAccountEvent:
		if id := detail.ServiceEventDetails.CreateManagedAccountStatus.Account.AccountID; id != "" {
			return id, nil
		}
	case detail.EventSource == organizationsSource && detail.EventName == createAccountResultEvent:
		if id := detail.ServiceEventDetails.CreateAccountStatus.AccountID; id != "" {
			return id, nil
		}
	default:
		return "", errors.Newf("unsupported event %s from %s", detail.EventName, detail.EventSource)
	}
	return "", errors.Newf("event %s from %s carries no account id", detail.EventName, detail.EventSource)
}
