// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cctp is the engine's view of the burn-and-mint token bridge. The
// engine burns to send funds to another chain and redeems attested messages
// to receive them.
package cctp

import (
	"context"
	"errors"

	"github.com/luxfi/matchingengine/vaa"
)

const (
	// MessageHeaderLen is the size of a message before its body
	MessageHeaderLen = 4 + 4 + 4 + 8 + 32 + 32 + 32

	// BurnMessageLen is the size of a burn message body
	BurnMessageLen = 4 + 32 + 32 + 32 + 32
)

// Messenger sends and receives bridged tokens
type Messenger interface {
	// BurnAndSend burns amount locally and returns the message that lets
	// mintRecipient mint it on destinationDomain.
	BurnAndSend(ctx context.Context, amount uint64, destinationDomain uint32, mintRecipient vaa.UniversalAddress) (Receipt, error)

	// ReceiveAndMint redeems an attested message and returns the minted amount
	ReceiveAndMint(ctx context.Context, message []byte, attestation []byte) (uint64, error)
}

// Receipt describes a burn
type Receipt struct {
	Nonce             uint64
	SourceDomain      uint32
	DestinationDomain uint32
	MintRecipient     vaa.UniversalAddress
	Amount            uint64
	Message           []byte
}

// Message is a bridge message: a routing header and an opaque body
type Message struct {
	Version           uint32
	SourceDomain      uint32
	DestinationDomain uint32
	Nonce             uint64
	Sender            vaa.UniversalAddress
	Recipient         vaa.UniversalAddress
	DestinationCaller vaa.UniversalAddress
	Body              []byte
}

// BurnMessage is the body of a token transfer message
type BurnMessage struct {
	Version       uint32
	BurnToken     vaa.UniversalAddress
	MintRecipient vaa.UniversalAddress
	Amount        uint64
	MessageSender vaa.UniversalAddress
}

// Errors
var (
	ErrInvalidMessage     = errors.New("invalid cctp message")
	ErrInvalidAttestation = errors.New("invalid cctp attestation")
	ErrNonceUsed          = errors.New("cctp nonce already used")
	ErrWrongDomain        = errors.New("cctp message for another domain")
	ErrZeroAmount         = errors.New("zero burn amount")
)
