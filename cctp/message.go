// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cctp

import (
	"fmt"

	"github.com/luxfi/matchingengine/vaa"
)

func (m *Message) Encode() []byte {
	return vaa.NewWriter(MessageHeaderLen+len(m.Body)).
		U32(m.Version).
		U32(m.SourceDomain).
		U32(m.DestinationDomain).
		U64(m.Nonce).
		Fixed(m.Sender[:]).
		Fixed(m.Recipient[:]).
		Fixed(m.DestinationCaller[:]).
		Fixed(m.Body).
		Bytes()
}

// ParseMessage reads the routing header. The body is returned unparsed.
func ParseMessage(raw []byte) (*Message, error) {
	r := vaa.NewReader(raw)
	m := &Message{
		Version:           r.U32("version"),
		SourceDomain:      r.U32("source domain"),
		DestinationDomain: r.U32("destination domain"),
		Nonce:             r.U64("nonce"),
		Sender:            r.Address("sender"),
		Recipient:         r.Address("recipient"),
		DestinationCaller: r.Address("destination caller"),
	}
	m.Body = r.Rest()
	if err := r.Finish(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return m, nil
}

func (b *BurnMessage) Encode() []byte {
	return vaa.NewWriter(BurnMessageLen).
		U32(b.Version).
		Fixed(b.BurnToken[:]).
		Fixed(b.MintRecipient[:]).
		U256(b.Amount).
		Fixed(b.MessageSender[:]).
		Bytes()
}

func ParseBurnMessage(raw []byte) (*BurnMessage, error) {
	r := vaa.NewReader(raw)
	b := &BurnMessage{
		Version:       r.U32("burn version"),
		BurnToken:     r.Address("burn token"),
		MintRecipient: r.Address("mint recipient"),
		Amount:        r.U256("amount"),
		MessageSender: r.Address("message sender"),
	}
	if err := r.Finish(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return b, nil
}
