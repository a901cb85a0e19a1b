// Package party keeps the user's team of up to six creatures.
package party

import (
	"errors"
	"sync"
)

// Size is the number of slots in a party.
const Size = 6

var (
	ErrAlreadyInParty = errors.New("already in party")
	ErrPartyFull      = errors.New("party is full")
)

// Party is a fixed set of slots. An empty string marks a free slot. Safe for
// concurrent use.
type Party struct {
	mu    sync.Mutex
	slots [Size]string
}

// Add puts name in the first free slot.
func (p *Party) Add(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	free := -1
	for i, s := range p.slots {
		if s == name {
			return ErrAlreadyInParty
		}
		if s == "" && free < 0 {
			free = i
		}
	}
	if free < 0 {
		return ErrPartyFull
	}
	p.slots[free] = name
	return nil
}

// Remove frees the slot holding name and reports whether it was present.
func (p *Party) Remove(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, s := range p.slots {
		if s == name {
			p.slots[i] = ""
			return true
		}
	}
	return false
}

// Slots returns a copy of every slot, free ones included.
func (p *Party) Slots() [Size]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slots
}

// Members returns the occupied slots in order.
func (p *Party) Members() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, Size)
	for _, s := range p.slots {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
