// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cctp

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/luxfi/crypto"
	"github.com/luxfi/matchingengine/vaa"
)

var _ Messenger = (*Memory)(nil)

// Memory is an in-process Messenger for devnets and tests. Its attester
// signs nothing: the attestation of a message is the keccak256 of the
// message.
type Memory struct {
	domain    uint32
	token     vaa.UniversalAddress
	sender    vaa.UniversalAddress
	nextNonce uint64
	used      map[uint32]map[uint64]bool
	sent      []Receipt

	mu sync.Mutex
}

// NewMemory creates a messenger for domain bridging token. Burns are sent on
// behalf of sender.
func NewMemory(domain uint32, token, sender vaa.UniversalAddress) *Memory {
	return &Memory{
		domain: domain,
		token:  token,
		sender: sender,
		used:   make(map[uint32]map[uint64]bool),
	}
}

// Attest returns the attestation Memory accepts for message
func Attest(message []byte) []byte {
	return crypto.Keccak256(message)
}

func (m *Memory) BurnAndSend(_ context.Context, amount uint64, destinationDomain uint32, mintRecipient vaa.UniversalAddress) (Receipt, error) {
	if amount == 0 {
		return Receipt{}, ErrZeroAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	burn := BurnMessage{
		BurnToken:     m.token,
		MintRecipient: mintRecipient,
		Amount:        amount,
		MessageSender: m.sender,
	}
	msg := Message{
		SourceDomain:      m.domain,
		DestinationDomain: destinationDomain,
		Nonce:             m.nextNonce,
		Sender:            m.sender,
		Recipient:         mintRecipient,
		Body:              burn.Encode(),
	}
	receipt := Receipt{
		Nonce:             m.nextNonce,
		SourceDomain:      m.domain,
		DestinationDomain: destinationDomain,
		MintRecipient:     mintRecipient,
		Amount:            amount,
		Message:           msg.Encode(),
	}
	m.nextNonce++
	m.sent = append(m.sent, receipt)
	return receipt, nil
}

func (m *Memory) ReceiveAndMint(_ context.Context, message []byte, attestation []byte) (uint64, error) {
	if subtle.ConstantTimeCompare(Attest(message), attestation) != 1 {
		return 0, ErrInvalidAttestation
	}
	msg, err := ParseMessage(message)
	if err != nil {
		return 0, err
	}
	if msg.DestinationDomain != m.domain {
		return 0, fmt.Errorf("%w: %d, local %d", ErrWrongDomain, msg.DestinationDomain, m.domain)
	}
	burn, err := ParseBurnMessage(msg.Body)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used[msg.SourceDomain]
	if used == nil {
		used = make(map[uint64]bool)
		m.used[msg.SourceDomain] = used
	}
	if used[msg.Nonce] {
		return 0, fmt.Errorf("%w: domain %d nonce %d", ErrNonceUsed, msg.SourceDomain, msg.Nonce)
	}
	used[msg.Nonce] = true
	return burn.Amount, nil
}

// Sent returns every burn in order
func (m *Memory) Sent() []Receipt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Receipt(nil), m.sent...)
}

// Domain is the local domain
func (m *Memory) Domain() uint32 {
	return m.domain
}

// Deliver builds the message another domain would send to this one, with its
// attestation. Devnets use it to simulate inbound transfers.
func Deliver(sourceDomain, destinationDomain uint32, nonce uint64, token, mintRecipient vaa.UniversalAddress, amount uint64) (message []byte, attestation []byte) {
	burn := BurnMessage{
		BurnToken:     token,
		MintRecipient: mintRecipient,
		Amount:        amount,
	}
	msg := Message{
		SourceDomain:      sourceDomain,
		DestinationDomain: destinationDomain,
		Nonce:             nonce,
		Recipient:         mintRecipient,
		Body:              burn.Encode(),
	}
	message = msg.Encode()
	return message, Attest(message)
}
