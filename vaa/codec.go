// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaa

import (
	"encoding/binary"
	"fmt"
)

// Writer appends big-endian fields to a buffer. Message bodies go through the
// bridge SDK; Writer and Reader carry the protocol payloads inside them.
type Writer struct {
	buf []byte
}

func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) U16(v uint16) *Writer {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
	return w
}

func (w *Writer) U32(v uint32) *Writer {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
	return w
}

func (w *Writer) U64(v uint64) *Writer {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
	return w
}

// U256 writes a uint64 as a 32-byte big-endian integer
func (w *Writer) U256(v uint64) *Writer {
	w.buf = append(w.buf, make([]byte, 24)...)
	return w.U64(v)
}

func (w *Writer) Fixed(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

// Bytes16 writes a u16 length prefix followed by b
func (w *Writer) Bytes16(b []byte) *Writer {
	return w.U16(uint16(len(b))).Fixed(b)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reader consumes big-endian fields. The first failure is sticky: later reads
// return zero values and Err reports what went wrong.
type Reader struct {
	buf []byte
	off int
	err error
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) take(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.buf)-r.off < n {
		r.err = fmt.Errorf("%w: %s needs %d bytes at offset %d, have %d",
			ErrMalformedPayload, field, n, r.off, len(r.buf)-r.off)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8(field string) uint8 {
	b := r.take(1, field)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) U16(field string) uint16 {
	b := r.take(2, field)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *Reader) U32(field string) uint32 {
	b := r.take(4, field)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *Reader) U64(field string) uint64 {
	b := r.take(8, field)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// U256 reads a 32-byte big-endian integer that must fit in a uint64
func (r *Reader) U256(field string) uint64 {
	b := r.take(32, field)
	if b == nil {
		return 0
	}
	for _, x := range b[:24] {
		if x != 0 {
			r.err = fmt.Errorf("%w: %s exceeds 64 bits", ErrMalformedPayload, field)
			return 0
		}
	}
	return binary.BigEndian.Uint64(b[24:])
}

func (r *Reader) Address(field string) UniversalAddress {
	var a UniversalAddress
	copy(a[:], r.take(32, field))
	return a
}

// Bytes16 reads a u16 length-prefixed byte string, rejecting lengths above max
func (r *Reader) Bytes16(field string, max int) []byte {
	n := int(r.U16(field + " length"))
	if r.err == nil && n > max {
		r.err = fmt.Errorf("%w: %s length %d exceeds %d", ErrMalformedPayload, field, n, max)
		return nil
	}
	b := r.take(n, field)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// Rest returns every unread byte
func (r *Reader) Rest() []byte {
	if r.err != nil {
		return nil
	}
	b := append([]byte(nil), r.buf[r.off:]...)
	r.off = len(r.buf)
	return b
}

func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Finish reports the sticky error, or ErrMalformedPayload if bytes remain.
func (r *Reader) Finish() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.buf) {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformedPayload, len(r.buf)-r.off)
	}
	return nil
}

func (r *Reader) Err() error {
	return r.err
}
