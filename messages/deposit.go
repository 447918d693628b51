// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package messages

import (
	"fmt"

	"github.com/luxfi/matchingengine/vaa"
)

// Encode serializes the deposit including its payload id. The amount is
// written as a 256-bit integer.
func (d *Deposit) Encode() []byte {
	return vaa.NewWriter(1+32+32+4+4+8+32+32+2+len(d.Payload)).
		U8(DepositID).
		Fixed(d.TokenAddress[:]).
		U256(d.Amount).
		U32(d.SourceCctpDomain).
		U32(d.DestinationCctpDomain).
		U64(d.CctpNonce).
		Fixed(d.BurnSource[:]).
		Fixed(d.MintRecipient[:]).
		Bytes16(d.Payload).
		Bytes()
}

func DecodeDeposit(payload []byte) (*Deposit, error) {
	r := vaa.NewReader(payload)
	if id := r.U8("payload id"); r.Err() == nil && id != DepositID {
		return nil, fmt.Errorf("%w: %w %d, want deposit", ErrMalformedPayload, ErrUnknownPayload, id)
	}
	d := &Deposit{
		TokenAddress:          r.Address("token address"),
		Amount:                r.U256("amount"),
		SourceCctpDomain:      r.U32("source cctp domain"),
		DestinationCctpDomain: r.U32("destination cctp domain"),
		CctpNonce:             r.U64("cctp nonce"),
		BurnSource:            r.Address("burn source"),
		MintRecipient:         r.Address("mint recipient"),
		Payload:               r.Bytes16("payload", 1<<16-1),
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return d, nil
}

func (s SlowOrderResponse) Encode() []byte {
	return vaa.NewWriter(9).U8(SlowOrderResponseID).U64(s.BaseFee).Bytes()
}

func DecodeSlowOrderResponse(payload []byte) (SlowOrderResponse, error) {
	r := vaa.NewReader(payload)
	if id := r.U8("payload id"); r.Err() == nil && id != SlowOrderResponseID {
		return SlowOrderResponse{}, fmt.Errorf("%w: %w %d, want slow order response", ErrMalformedPayload, ErrUnknownPayload, id)
	}
	s := SlowOrderResponse{BaseFee: r.U64("base fee")}
	return s, r.Finish()
}

// FinalizedBody rebuilds the finalized deposit message that must accompany the
// fast order described by d. It shares the fast message's timestamp and
// emitter and sits one sequence below it.
func FinalizedBody(d *OrderDescriptor, args FinalizedArgs) *vaa.Body {
	seq := d.Provenance.Sequence
	if seq > 0 {
		seq--
	}
	deposit := Deposit{
		TokenAddress:          args.TokenAddress,
		Amount:                d.Order.AmountIn,
		SourceCctpDomain:      args.SourceCctpDomain,
		DestinationCctpDomain: args.DestinationCctpDomain,
		CctpNonce:             args.CctpNonce,
		BurnSource:            args.BurnSource,
		MintRecipient:         args.MintRecipient,
		Payload:               SlowOrderResponse{BaseFee: args.BaseFee}.Encode(),
	}
	return &vaa.Body{
		Timestamp:        d.VaaTimestamp,
		EmitterChain:     d.Provenance.SourceChain,
		EmitterAddress:   d.Provenance.Emitter,
		Sequence:         seq,
		ConsistencyLevel: args.ConsistencyLevel,
		Payload:          deposit.Encode(),
	}
}
