package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/krakend/dex-mcp-server/internal/party"
)

// PartyInput names the creature for party_add and party_remove
type PartyInput struct {
	Name string `json:"name" jsonschema:"Creature name, case-insensitive"`
}

// PartyListInput defines input for party_list tool
type PartyListInput struct{}

// PartyOutput shows the party after the call. Free slots are empty strings.
type PartyOutput struct {
	Slots   []string `json:"slots"`
	Members []string `json:"members"`
	Free    int      `json:"free"`
	Changed bool     `json:"changed"`
	Message string   `json:"message"`
}

func (d *Dex) partyOutput(changed bool, message string) PartyOutput {
	slots := d.party.Slots()
	members := d.party.Members()
	return PartyOutput{
		Slots:   slots[:],
		Members: members,
		Free:    party.Size - len(members),
		Changed: changed,
		Message: message,
	}
}

// AddToParty adds a known creature to the party under its canonical name.
func (d *Dex) AddToParty(name string) (PartyOutput, error) {
	snap, err := d.snapshot()
	if err != nil {
		return PartyOutput{}, err
	}
	c, ok := snap.Find(name)
	if !ok {
		err = d.unknownCreature(snap, name)
	}
	d.holder.release(snap)
	if err != nil {
		return PartyOutput{}, err
	}

	if err := d.party.Add(c.Name); err != nil {
		if errors.Is(err, party.ErrAlreadyInParty) || errors.Is(err, party.ErrPartyFull) {
			return d.partyOutput(false, fmt.Sprintf("%s was not added: %v", c.Name, err)), nil
		}
		return PartyOutput{}, err
	}
	d.log.Debug().Str("creature", c.Name).Msg("Added to party")
	return d.partyOutput(true, fmt.Sprintf("%s joined the party", c.Name)), nil
}

// RemoveFromParty frees the slot holding name.
func (d *Dex) RemoveFromParty(name string) PartyOutput {
	canonical := name
	if snap, err := d.snapshot(); err == nil {
		if c, ok := snap.Find(name); ok {
			canonical = c.Name
		}
		d.holder.release(snap)
	}

	if !d.party.Remove(canonical) {
		return d.partyOutput(false, fmt.Sprintf("%s is not in the party", canonical))
	}
	return d.partyOutput(true, fmt.Sprintf("%s left the party", canonical))
}

// PartyAdd adds a creature to the party
func (d *Dex) PartyAdd(ctx context.Context, req *mcp.CallToolRequest, input PartyInput) (*mcp.CallToolResult, PartyOutput, error) {
	if input.Name == "" {
		return nil, PartyOutput{}, fmt.Errorf("name must not be empty")
	}
	out, err := d.AddToParty(input.Name)
	if err != nil {
		return nil, PartyOutput{}, err
	}
	return nil, out, nil
}

// PartyRemove removes a creature from the party
func (d *Dex) PartyRemove(ctx context.Context, req *mcp.CallToolRequest, input PartyInput) (*mcp.CallToolResult, PartyOutput, error) {
	if input.Name == "" {
		return nil, PartyOutput{}, fmt.Errorf("name must not be empty")
	}
	return nil, d.RemoveFromParty(input.Name), nil
}

// PartyList shows the party
func (d *Dex) PartyList(ctx context.Context, req *mcp.CallToolRequest, input PartyListInput) (*mcp.CallToolResult, PartyOutput, error) {
	return nil, d.partyOutput(false, fmt.Sprintf("%d/%d slots used", len(d.party.Members()), party.Size)), nil
}

func (d *Dex) registerPartyTools(server *mcp.Server) int {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "party_add",
			Description: fmt.Sprintf("Add a creature to the party (%d slots, no duplicates)", party.Size),
		},
		d.PartyAdd,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "party_remove",
			Description: "Remove a creature from the party",
		},
		d.PartyRemove,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "party_list",
			Description: "Show the party slots in order",
		},
		d.PartyList,
	)

	return 3
}
