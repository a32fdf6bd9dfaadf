package domain

// Snapshot is a full depth image of one symbol as sent by the exchange.
// Levels stay in their decimal text form until they are applied.
type Snapshot struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

// DiffUpdate is an incremental depth update for one symbol.
//
// ID is assigned by the caller and only used to await completion of this
// update; it is not used for ordering or de-duplication.
type DiffUpdate struct {
	ID     string     `json:"id"`
	Symbol string     `json:"symbol"`
	Bids   [][]string `json:"bids"`
	Asks   [][]string `json:"asks"`
}
