package secondary

import (
	"context"
	"encoding/json"

	"github.com/example/siteops/internal/models"
)

// RawChange is one row mutation as delivered by a change-stream transport.
// New is set for inserts and updates, Old for updates and deletes when the
// transport provides it.
type RawChange struct {
	Table models.Table      `json:"table"`
	Type  models.ChangeType `json:"type"`
	New   json.RawMessage   `json:"new,omitempty"`
	Old   json.RawMessage   `json:"old,omitempty"`
}

// FeedState is the connection state of a feed subscription.
type FeedState string

const (
	FeedConnecting FeedState = "connecting"
	FeedSubscribed FeedState = "subscribed"
	FeedClosed     FeedState = "closed"
	FeedError      FeedState = "error"
)

// FeedStateChange reports a connection state transition. Err is set for FeedError.
type FeedStateChange struct {
	State FeedState
	Err   error
}

// FeedRequest names what a subscription wants to receive.
type FeedRequest struct {
	Channel   string
	ProjectID string
	Tables    []models.Table
}

// FeedSubscription is a live subscription. Both channels are closed once
// the subscription ends, whether by Close or by the transport.
type FeedSubscription interface {
	Changes() <-chan RawChange
	States() <-chan FeedStateChange
	Close() error
}

// ChangeFeed opens change-stream subscriptions. Project filtering is a hint:
// implementations may deliver rows of other projects.
type ChangeFeed interface {
	Subscribe(ctx context.Context, req FeedRequest) (FeedSubscription, error)
}

// ChangePublisher fans row mutations out to subscribers. Backends that do
// not have a native change stream publish through it after each write.
type ChangePublisher interface {
	Publish(ctx context.Context, projectID string, change RawChange) error
}
