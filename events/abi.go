// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"fmt"
	"strings"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
)

// ABI wraps the standard ABI with event packing
type ABI struct {
	abi.ABI
}

// ParseABI parses raw ABI JSON. It panics on malformed input.
func ParseABI(rawABI string) ABI {
	parsed, err := abi.JSON(strings.NewReader(rawABI))
	if err != nil {
		panic(fmt.Sprintf("failed to parse ABI: %v", err))
	}
	return ABI{ABI: parsed}
}

// PackEvent returns the topics and the packed non-indexed data of event name
func (a ABI) PackEvent(name string, args ...interface{}) ([]common.Hash, []byte, error) {
	event, exist := a.Events[name]
	if !exist {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	if len(args) != len(event.Inputs) {
		return nil, nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArgumentCount, name, len(event.Inputs), len(args))
	}

	var (
		data    abi.Arguments
		values  []interface{}
		indexed []interface{}
	)
	for i, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, args[i])
			continue
		}
		data = append(data, arg)
		values = append(values, args[i])
	}

	packed, err := data.Pack(values...)
	if err != nil {
		return nil, nil, err
	}

	topics := make([]common.Hash, 0, len(indexed)+1)
	if !event.Anonymous {
		topics = append(topics, event.ID)
	}
	for _, v := range indexed {
		topic, err := packTopic(v)
		if err != nil {
			return nil, nil, err
		}
		topics = append(topics, topic)
	}
	return topics, packed, nil
}

// UnpackEvent decodes the non-indexed data of event name
func (a ABI) UnpackEvent(name string, data []byte) ([]interface{}, error) {
	event, exist := a.Events[name]
	if !exist {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	return event.Inputs.NonIndexed().Unpack(data)
}

// Helper functions

func packTopic(value interface{}) (common.Hash, error) {
	switch v := value.(type) {
	case common.Address:
		return common.BytesToHash(v.Bytes()), nil
	case common.Hash:
		return v, nil
	case [32]byte:
		return common.Hash(v), nil
	case []byte:
		return common.BytesToHash(crypto.Keccak256(v)), nil
	case string:
		return common.BytesToHash(crypto.Keccak256([]byte(v))), nil
	default:
		return common.Hash{}, fmt.Errorf("%w: %T", ErrUnsupportedTopic, value)
	}
}
