// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package messages

import (
	"fmt"

	"github.com/luxfi/matchingengine/vaa"
)

// Encode serializes the order including its payload id
func (o *FastMarketOrder) Encode() ([]byte, error) {
	if len(o.RedeemerMessage) > MaxRedeemerMessageLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(o.RedeemerMessage))
	}
	return vaa.NewWriter(FastMarketOrderFixedLen+len(o.RedeemerMessage)).
		U8(FastMarketOrderID).
		U64(o.AmountIn).
		U64(o.MinAmountOut).
		U16(o.TargetChain).
		Fixed(o.Redeemer[:]).
		Fixed(o.Sender[:]).
		Fixed(o.RefundAddress[:]).
		U64(o.MaxFee).
		U64(o.InitAuctionFee).
		U32(o.Deadline).
		Bytes16(o.RedeemerMessage).
		Bytes(), nil
}

// DecodeFastMarketOrder parses a fast market order payload
func DecodeFastMarketOrder(payload []byte) (*FastMarketOrder, error) {
	r := vaa.NewReader(payload)
	if id := r.U8("payload id"); r.Err() == nil && id != FastMarketOrderID {
		return nil, fmt.Errorf("%w: %w %d, want fast market order", ErrMalformedPayload, ErrUnknownPayload, id)
	}
	o := &FastMarketOrder{
		AmountIn:        r.U64("amount in"),
		MinAmountOut:    r.U64("min amount out"),
		TargetChain:     r.U16("target chain"),
		Redeemer:        r.Address("redeemer"),
		Sender:          r.Address("sender"),
		RefundAddress:   r.Address("refund address"),
		MaxFee:          r.U64("max fee"),
		InitAuctionFee:  r.U64("init auction fee"),
		Deadline:        r.U32("deadline"),
		RedeemerMessage: r.Bytes16("redeemer message", MaxRedeemerMessageLen),
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return o, nil
}

// NewOrderDescriptor decodes the fast market order carried by body and binds
// it to the body's provenance and digest. Signature verification is the
// caller's job.
func NewOrderDescriptor(body *vaa.Body) (*OrderDescriptor, error) {
	order, err := DecodeFastMarketOrder(body.Payload)
	if err != nil {
		return nil, err
	}
	return &OrderDescriptor{
		Order: *order,
		Provenance: Provenance{
			SourceChain: body.EmitterChain,
			Emitter:     body.EmitterAddress,
			Sequence:    body.Sequence,
		},
		VaaTimestamp:     body.Timestamp,
		ConsistencyLevel: body.ConsistencyLevel,
		Digest:           body.Digest(),
	}, nil
}

// Body rebuilds the fast order message the descriptor was decoded from
func (d *OrderDescriptor) Body() (*vaa.Body, error) {
	payload, err := d.Order.Encode()
	if err != nil {
		return nil, err
	}
	return &vaa.Body{
		Timestamp:        d.VaaTimestamp,
		EmitterChain:     d.Provenance.SourceChain,
		EmitterAddress:   d.Provenance.Emitter,
		Sequence:         d.Provenance.Sequence,
		ConsistencyLevel: d.ConsistencyLevel,
		Payload:          payload,
	}, nil
}

// Expired reports whether the order deadline has passed at unix time now
func (d *OrderDescriptor) Expired(now uint64) bool {
	return d.Order.Deadline != 0 && now >= uint64(d.Order.Deadline)
}
