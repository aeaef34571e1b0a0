package withdrawal

import (
	"context"
	"strconv"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	EventDelivered = "withdrawal_delivered"
	EventDeferred  = "withdrawal_deferred"
	EventFailed    = "withdrawal_failed"
)

type DeliveryEvent struct {
	Name      string            `json:"name,omitempty"`
	Id        string            `json:"id,omitempty"`
	Timestamp int64             `json:"timestamp,omitempty"`
	File      string            `json:"file,omitempty"`
	Username  string            `json:"username,omitempty"`
	Attempts  int               `json:"attempts,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// The Publisher receives analytics-style events about request files reaching a final or
// deferred state.
//
// Implementations must handle any errors or retries internally, callers will not repeat calls in
// case of errors. Send is called on the scheduler goroutine and should not block.
type Publisher interface {
	Send(ctx context.Context, logger runtime.Logger, events []*DeliveryEvent)
}

// NakamaEventPublisher forwards delivery events to the Nakama event pipeline.
type NakamaEventPublisher struct {
	nk runtime.NakamaModule
}

func NewNakamaEventPublisher(nk runtime.NakamaModule) *NakamaEventPublisher {
	return &NakamaEventPublisher{nk: nk}
}

func (p *NakamaEventPublisher) Send(ctx context.Context, logger runtime.Logger, events []*DeliveryEvent) {
	for _, e := range events {
		props := make(map[string]string, len(e.Metadata)+4)
		for k, v := range e.Metadata {
			props[k] = v
		}
		props["id"] = e.Id
		props["file"] = e.File
		props["username"] = e.Username
		props["attempts"] = strconv.Itoa(e.Attempts)

		err := p.nk.Event(ctx, &api.Event{
			Name:       e.Name,
			Properties: props,
			Timestamp:  timestamppb.New(timeFromMillis(e.Timestamp)),
			External:   false,
		})
		if err != nil {
			logger.Warn("Failed to publish %s event for %s: %v", e.Name, e.File, err)
		}
	}
}
