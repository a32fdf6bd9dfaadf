package feed

import (
	"github.com/goccy/go-json"

	"pricebook/domain"
)

// Message types
const (
	TypeSnapshot = "snapshot"
	TypeUpdate   = "update"
)

const (
	opSubscribe    = "subscribe"
	orderbookTopic = "orderbook"
)

// Message is one depth message from the exchange feed
type Message struct {
	Type   string     `json:"type"`
	ID     string     `json:"id,omitempty"`
	Symbol string     `json:"symbol"`
	Bids   [][]string `json:"bids"`
	Asks   [][]string `json:"asks"`
}

func (m *Message) snapshot() domain.Snapshot {
	return domain.Snapshot{Bids: m.Bids, Asks: m.Asks}
}

func (m *Message) diff() domain.DiffUpdate {
	return domain.DiffUpdate{ID: m.ID, Symbol: m.Symbol, Bids: m.Bids, Asks: m.Asks}
}

type request[T any] struct {
	Op   string `json:"op"`
	Data T      `json:"data,omitempty"`
}

func (r *request[T]) Pack() []byte {
	b, _ := json.Marshal(r)
	return b
}

// subscribeRequest subscribes to the depth channel of every symbol
func subscribeRequest(symbols []string) *request[[]string] {
	channels := make([]string, len(symbols))
	for i, s := range symbols {
		channels[i] = orderbookTopic + ":" + s
	}
	return &request[[]string]{Op: opSubscribe, Data: channels}
}
