package main

import (
	"context"
	"fmt"
	"time"

	"pricebook/dispatch"
	"pricebook/domain"
	"pricebook/store"
)

func main() {
	const symbol = "bnbbtc"

	snapshot := domain.Snapshot{
		Bids: [][]string{
			{"0.0024", "14.70000000"},
			{"0.0022", "6.40000000"},
			{"0.0020", "9.70000000"},
		},
		Asks: [][]string{
			{"0.0024", "14.90000000"},
			{"0.0026", "3.60000000"},
			{"0.0028", "1.00000000"},
		},
	}

	updates := []domain.DiffUpdate{
		{ID: "1", Symbol: symbol, Bids: [][]string{{"0.0024", "10"}}, Asks: [][]string{{"0.0026", "100"}}},
		{ID: "2", Symbol: symbol, Bids: [][]string{{"0.0024", "8"}}, Asks: [][]string{{"0.0028", "0"}}},
		{ID: "3", Symbol: symbol, Bids: [][]string{{"0.0024", "0"}}, Asks: [][]string{{"0.0026", "15"}, {"0.0027", "5"}}},
		{ID: "4", Symbol: symbol, Bids: [][]string{{"0.0025", "100"}}, Asks: [][]string{{"0.0026", "0"}, {"0.0027", "5"}}},
		{ID: "5", Symbol: symbol, Bids: [][]string{{"0.0025", "0"}}, Asks: [][]string{{"0.0026", "15"}, {"0.0024", "0"}}},
	}

	dispatcher := dispatch.NewQueued()
	books := store.New(dispatcher)

	fmt.Println("Running example input and events:")

	// register before dispatching so the last update cannot be missed
	last := updates[len(updates)-1]
	done, _ := books.AwaitDispatchedEvent(symbol, last.ID)

	books.Subscribe(func(u domain.DiffUpdate) {
		fmt.Printf("\nApplied diff update %s\n", u.ID)
		printBestPrices(books, u.Symbol)
	})

	books.LoadSnapshot(symbol, snapshot)
	fmt.Println("Snapshot loaded")
	printBestPrices(books, symbol)

	for _, u := range updates {
		if err := books.ApplyDiffUpdate(u); err != nil {
			fmt.Printf("update %s rejected: %v\n", u.ID, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := done.Wait(ctx); err != nil {
		fmt.Printf("update %s not applied: %v\n", last.ID, err)
	}

	fmt.Printf("\n%s snapshot at finish:\n", symbol)
	printSnapshot(books.GetSnapshot(symbol))

	if err := dispatcher.Close(ctx); err != nil {
		fmt.Printf("shutdown: %v\n", err)
	}
}

func printBestPrices(books *store.Store, symbol string) {
	bid := domain.FormatLevel(books.GetBestBidPrice(symbol))
	ask := domain.FormatLevel(books.GetBestAskPrice(symbol))
	fmt.Printf("Best bid: %s @ %s\n", bid[1], bid[0])
	fmt.Printf("Best ask: %s @ %s\n", ask[1], ask[0])
}

func printSnapshot(snap domain.Snapshot) {
	fmt.Println("Bids:")
	for _, l := range snap.Bids {
		fmt.Printf("  %s  %s\n", l[0], l[1])
	}
	fmt.Println("Asks:")
	for _, l := range snap.Asks {
		fmt.Printf("  %s  %s\n", l[0], l[1])
	}
}
