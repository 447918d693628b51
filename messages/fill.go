// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package messages

import (
	"fmt"

	"github.com/luxfi/matchingengine/vaa"
)

func (f *Fill) write(w *vaa.Writer) *vaa.Writer {
	return w.U16(f.SourceChain).
		Fixed(f.OrderSender[:]).
		Fixed(f.Redeemer[:]).
		Bytes16(f.RedeemerMessage)
}

func (f *Fill) read(r *vaa.Reader) {
	f.SourceChain = r.U16("source chain")
	f.OrderSender = r.Address("order sender")
	f.Redeemer = r.Address("redeemer")
	f.RedeemerMessage = r.Bytes16("redeemer message", MaxRedeemerMessageLen)
}

func (f *Fill) Encode() ([]byte, error) {
	if len(f.RedeemerMessage) > MaxRedeemerMessageLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(f.RedeemerMessage))
	}
	w := vaa.NewWriter(1 + 2 + 32 + 32 + 2 + len(f.RedeemerMessage)).U8(FillID)
	return f.write(w).Bytes(), nil
}

func DecodeFill(payload []byte) (*Fill, error) {
	r := vaa.NewReader(payload)
	if id := r.U8("payload id"); r.Err() == nil && id != FillID {
		return nil, fmt.Errorf("%w: %w %d, want fill", ErrMalformedPayload, ErrUnknownPayload, id)
	}
	f := &Fill{}
	f.read(r)
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FastFill) Encode() ([]byte, error) {
	if len(f.Fill.RedeemerMessage) > MaxRedeemerMessageLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(f.Fill.RedeemerMessage))
	}
	w := vaa.NewWriter(1 + 8 + 2 + 32 + 32 + 2 + len(f.Fill.RedeemerMessage)).U8(FastFillID).U64(f.Amount)
	return f.Fill.write(w).Bytes(), nil
}

func DecodeFastFill(payload []byte) (*FastFill, error) {
	r := vaa.NewReader(payload)
	if id := r.U8("payload id"); r.Err() == nil && id != FastFillID {
		return nil, fmt.Errorf("%w: %w %d, want fast fill", ErrMalformedPayload, ErrUnknownPayload, id)
	}
	ff := &FastFill{Amount: r.U64("amount")}
	ff.Fill.read(r)
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return ff, nil
}
