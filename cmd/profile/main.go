package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"pricebook/dispatch"
	"pricebook/domain"
	"pricebook/orderbook"
	"pricebook/store"
)

func main() {
	symbols := flag.Int("symbols", 64, "number of symbols")
	diffs := flag.Int("diffs", 100000, "diff updates per symbol")
	index := flag.String("index", "redblack", "price index: redblack, btree or tidwall")
	out := flag.String("cpuprofile", "cpu.prof", "CPU profile output file")
	flag.Parse()

	indexType, err := orderbook.ParseIndexType(*index)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cpuFile, err := os.Create(*out)
	if err != nil {
		panic(err)
	}
	defer cpuFile.Close()

	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		panic(err)
	}
	defer pprof.StopCPUProfile()

	fmt.Println("=== profile start ===")
	fmt.Printf("CPU cores: %d\n", runtime.NumCPU())
	fmt.Printf("symbols: %d, diffs per symbol: %d, index: %s\n\n", *symbols, *diffs, indexType)

	dispatcher := dispatch.NewQueued()
	books := store.New(dispatcher, store.WithIndexType(indexType))

	names := make([]string, *symbols)
	handles := make([]*dispatch.Completion, *symbols)
	lastID := strconv.Itoa(*diffs - 1)
	for i := range names {
		names[i] = fmt.Sprintf("sym%03d", i)
		books.LoadSnapshotParallel(names[i], seedSnapshot(500))
		handles[i], _ = books.AwaitDispatchedEvent(names[i], lastID)
	}

	start := time.Now()

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for i := 0; i < *diffs; i++ {
				_ = books.ApplyDiffUpdate(diffFor(name, i))
			}
		}(name)
	}
	wg.Wait()
	enqueued := time.Since(start)

	for _, h := range handles {
		<-h.Done()
	}
	elapsed := time.Since(start)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = dispatcher.Close(ctx)

	total := float64(*symbols * *diffs)
	fmt.Println("=== results ===")
	fmt.Printf("diffs: %.0f\n", total)
	fmt.Printf("enqueue: %v (%.0f diffs/sec)\n", enqueued, total/enqueued.Seconds())
	fmt.Printf("applied: %v (%.0f diffs/sec)\n", elapsed, total/elapsed.Seconds())

	fmt.Println("\nanalyze the CPU profile:")
	fmt.Printf("  go tool pprof -http=:8080 %s\n", *out)
}

// seedSnapshot builds n levels per side around 1.0
func seedSnapshot(n int) domain.Snapshot {
	snap := domain.Snapshot{
		Bids: make([][]string, n),
		Asks: make([][]string, n),
	}
	for i := 0; i < n; i++ {
		snap.Bids[i] = []string{strconv.FormatFloat(1-float64(i+1)*0.0001, 'f', 4, 64), "1"}
		snap.Asks[i] = []string{strconv.FormatFloat(1+float64(i+1)*0.0001, 'f', 4, 64), "1"}
	}
	return snap
}

// diffFor touches one bid and one ask level, deleting every third
func diffFor(symbol string, i int) domain.DiffUpdate {
	qty := strconv.Itoa(i % 3)
	offset := float64(i%700+1) * 0.0001
	return domain.DiffUpdate{
		ID:     strconv.Itoa(i),
		Symbol: symbol,
		Bids:   [][]string{{strconv.FormatFloat(1-offset, 'f', 4, 64), qty}},
		Asks:   [][]string{{strconv.FormatFloat(1+offset, 'f', 4, 64), qty}},
	}
}
