package party_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krakend/dex-mcp-server/internal/party"
)

func TestAddAndRemove(t *testing.T) {
	var p party.Party

	require.NoError(t, p.Add("Pikachu"))
	require.NoError(t, p.Add("Eevee"))
	assert.ErrorIs(t, p.Add("Pikachu"), party.ErrAlreadyInParty)
	assert.Equal(t, []string{"Pikachu", "Eevee"}, p.Members())

	assert.True(t, p.Remove("Pikachu"))
	assert.False(t, p.Remove("Pikachu"))
	assert.Equal(t, [party.Size]string{"", "Eevee"}, p.Slots())

	// the freed first slot is reused
	require.NoError(t, p.Add("Snorlax"))
	assert.Equal(t, []string{"Snorlax", "Eevee"}, p.Members())
}

func TestFull(t *testing.T) {
	var p party.Party
	for i := 0; i < party.Size; i++ {
		require.NoError(t, p.Add(fmt.Sprintf("member-%d", i)))
	}

	assert.ErrorIs(t, p.Add("one-too-many"), party.ErrPartyFull)
	assert.ErrorIs(t, p.Add("member-3"), party.ErrAlreadyInParty, "duplicate check wins over capacity")
	assert.Len(t, p.Members(), party.Size)
}

func TestConcurrentAdds(t *testing.T) {
	var p party.Party
	var wg sync.WaitGroup
	errs := make(chan error, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- p.Add(fmt.Sprintf("c%d", i))
		}(i)
	}
	wg.Wait()
	close(errs)

	full := 0
	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, party.ErrPartyFull)
			full++
		}
	}
	assert.Equal(t, 20-party.Size, full)
	assert.Len(t, p.Members(), party.Size)
}
