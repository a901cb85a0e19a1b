package tools

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/krakend/dex-mcp-server/internal/config"
	"github.com/krakend/dex-mcp-server/internal/dataset"
	"github.com/krakend/dex-mcp-server/internal/query"
	"github.com/krakend/dex-mcp-server/internal/router"
)

func mockSnapshot(idx Index, creatures ...dataset.Creature) *Snapshot {
	return newSnapshot(router.NewDispatch(""), creatures, router.BucketTable{}, query.Vocabulary{}, idx, "test")
}

func TestSnapshotHolder_OldCatalogClosedAfterReaders(t *testing.T) {
	holder := &snapshotHolder{log: zerolog.Nop()}
	mock1, mock2 := newMockIndex("a"), newMockIndex("b")

	holder.publish(mockSnapshot(mock1))
	reader := holder.acquire()

	holder.publish(mockSnapshot(mock2))
	if mock1.IsClosed() {
		t.Fatal("Old catalog closed while a reader still holds it")
	}
	if _, err := reader.Catalog.DocCount(); err != nil {
		t.Errorf("Held snapshot unusable after swap: %v", err)
	}

	holder.release(reader)
	if !mock1.IsClosed() {
		t.Error("Old catalog should be closed once its last reader releases")
	}

	current := holder.acquire()
	defer holder.release(current)
	if current.Catalog != Index(mock2) {
		t.Error("Expected the new snapshot to be current")
	}
	if mock2.IsClosed() {
		t.Error("Current catalog must stay open")
	}
}

func TestSnapshotHolder_ConcurrentSwapAndRead(t *testing.T) {
	holder := &snapshotHolder{log: zerolog.Nop()}
	first := newMockIndex("seed")
	holder.publish(mockSnapshot(first))

	const (
		numReaders = 20
		iterations = 50
		swaps      = 20
	)

	mocks := []*mockIndex{first}
	var mocksMu sync.Mutex
	errChan := make(chan error, numReaders*iterations)
	var wg sync.WaitGroup

	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				snap := holder.acquire()
				if snap == nil {
					errChan <- fmt.Errorf("reader %d iteration %d: got nil", id, j)
					return
				}
				// a held snapshot is never closed underneath its reader
				if _, err := snap.Catalog.DocCount(); err != nil {
					errChan <- fmt.Errorf("reader %d iteration %d: %v", id, j, err)
				}
				holder.release(snap)
			}
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < swaps; i++ {
			m := newMockIndex(fmt.Sprintf("swap-%d", i))
			mocksMu.Lock()
			mocks = append(mocks, m)
			mocksMu.Unlock()
			holder.publish(mockSnapshot(m))
		}
	}()

	wg.Wait()
	close(errChan)
	for err := range errChan {
		t.Error(err)
	}

	holder.close()
	for i, m := range mocks {
		if got := m.closeCalls.Load(); got != 1 {
			t.Errorf("catalog %d closed %d times, want 1", i, got)
		}
	}
}

func TestSnapshotHolder_CloseWaitsForReaders(t *testing.T) {
	holder := &snapshotHolder{log: zerolog.Nop()}
	mock := newMockIndex("a")
	holder.publish(mockSnapshot(mock))

	reader := holder.acquire()
	done := make(chan struct{})
	go func() {
		holder.close()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("close returned while a reader was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	holder.release(reader)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("close did not return after the reader released")
	}

	if !mock.IsClosed() {
		t.Error("Catalog should be closed")
	}
	if holder.acquire() != nil {
		t.Error("Expected no snapshot after close")
	}
}

func TestSnapshot_Find(t *testing.T) {
	snap := mockSnapshot(newMockIndex(),
		dataset.Creature{Name: "Mr. Mime", Number: 122},
		dataset.Creature{Name: "Pikachu", Number: 25},
	)

	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"Pikachu", "Pikachu", true},
		{"pikachu", "Pikachu", true},
		{"  MR. MIME ", "Mr. Mime", true},
		{"Raichu", "", false},
	}
	for _, tt := range tests {
		c, ok := snap.Find(tt.name)
		if ok != tt.ok || c.Name != tt.want {
			t.Errorf("Find(%q) = %q, %v; want %q, %v", tt.name, c.Name, ok, tt.want, tt.ok)
		}
	}
}

func TestDex_SearchFailureIsWrapped(t *testing.T) {
	mock := newMockIndex("Pikachu")
	mock.searchError = errors.New("disk on fire")

	d := New(config.Default(), zerolog.Nop())
	d.holder.publish(mockSnapshot(mock))
	defer d.Close()

	_, err := d.Search("pikachu", 5)
	if err == nil || !errors.Is(err, mock.searchError) {
		t.Errorf("Expected wrapped search error, got %v", err)
	}
}

func TestDex_SearchHonoursMaxResults(t *testing.T) {
	mock := newMockIndex("Abra", "Kadabra", "Alakazam")

	d := New(config.Default(), zerolog.Nop())
	d.holder.publish(mockSnapshot(mock))
	defer d.Close()

	tests := []struct {
		max  int
		want int
	}{
		{2, 2},
		{0, 3},
		{maxResultsLimit + 1, 3},
	}
	for _, tt := range tests {
		out, err := d.Search("abra", tt.max)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(out.Hits) != tt.want {
			t.Errorf("max_results=%d: expected %d hits, got %d", tt.max, tt.want, len(out.Hits))
		}
		if out.TotalHits != 3 {
			t.Errorf("Expected total 3, got %d", out.TotalHits)
		}
	}
}
