// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
)

var (
	ErrUnknownMethod = errors.New("unknown method")
	ErrUnknownEvent  = errors.New("unknown event")
	ErrEventMismatch = errors.New("log does not match event")
)

// ExtendedABI wraps abi.ABI with the pack/unpack helpers both sides of a
// contract call need: the client packs inputs and unpacks outputs, the
// simulated chain does the reverse.
type ExtendedABI struct {
	abi.ABI
}

// ParseABI parses raw ABI JSON. It panics on malformed input, so it is only
// used for the constants in this package.
func ParseABI(rawABI string) ExtendedABI {
	parsed, err := abi.JSON(strings.NewReader(rawABI))
	if err != nil {
		panic(fmt.Sprintf("failed to parse ABI: %v", err))
	}
	return ExtendedABI{ABI: parsed}
}

// Selector returns the 4-byte method id of name.
func (e ExtendedABI) Selector(name string) ([4]byte, error) {
	method, exist := e.Methods[name]
	if !exist {
		return [4]byte{}, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
	var sel [4]byte
	copy(sel[:], method.ID)
	return sel, nil
}

// MethodBySelector resolves call data to its method.
func (e ExtendedABI) MethodBySelector(data []byte) (*abi.Method, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: call data too short", ErrUnknownMethod)
	}
	return e.MethodById(data[:4])
}

// PackOutput packs args as the return value of method name, without the
// method id.
func (e ExtendedABI) PackOutput(name string, args ...interface{}) ([]byte, error) {
	method, exist := e.Methods[name]
	if !exist {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
	return method.Outputs.Pack(args...)
}

// UnpackInput unpacks call data for method name. data excludes the
// method id. useStrictMode rejects data that is not word aligned.
func (e ExtendedABI) UnpackInput(name string, data []byte, useStrictMode bool) ([]interface{}, error) {
	method, exist := e.Methods[name]
	if !exist {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
	if useStrictMode && len(data)%32 != 0 {
		return nil, fmt.Errorf("abi: improperly formatted input of %d bytes", len(data))
	}
	return method.Inputs.Unpack(data)
}

// PackEvent builds the topics and data of event name.
func (e ExtendedABI) PackEvent(name string, args ...interface{}) ([]common.Hash, []byte, error) {
	event, exist := e.Events[name]
	if !exist {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	if len(args) != len(event.Inputs) {
		return nil, nil, fmt.Errorf("event '%s' unexpected number of inputs %d", name, len(args))
	}

	var (
		nonIndexedInputs = make([]interface{}, 0)
		indexedInputs    = make([]interface{}, 0)
		nonIndexedArgs   abi.Arguments
	)
	for i, arg := range event.Inputs {
		if arg.Indexed {
			indexedInputs = append(indexedInputs, args[i])
		} else {
			nonIndexedArgs = append(nonIndexedArgs, arg)
			nonIndexedInputs = append(nonIndexedInputs, args[i])
		}
	}

	data, err := nonIndexedArgs.Pack(nonIndexedInputs...)
	if err != nil {
		return nil, nil, err
	}

	topics := make([]common.Hash, 0, len(indexedInputs)+1)
	if !event.Anonymous {
		topics = append(topics, event.ID)
	}
	for _, input := range indexedInputs {
		topic, err := packTopic(input)
		if err != nil {
			return nil, nil, err
		}
		topics = append(topics, topic)
	}
	return topics, data, nil
}

// UnpackLog decodes the non-indexed fields of log into a map keyed by
// argument name; indexed addresses and hashes are filled from topics.
func (e ExtendedABI) UnpackLog(name string, log *types.Log) (map[string]interface{}, error) {
	event, exist := e.Events[name]
	if !exist {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return nil, fmt.Errorf("%w: %s", ErrEventMismatch, name)
	}

	out := make(map[string]interface{}, len(event.Inputs))
	if len(log.Data) > 0 {
		if err := event.Inputs.NonIndexed().UnpackIntoMap(out, log.Data); err != nil {
			return nil, err
		}
	}

	topic := 1
	for _, arg := range event.Inputs {
		if !arg.Indexed {
			continue
		}
		if topic >= len(log.Topics) {
			return nil, fmt.Errorf("%w: %s is missing topic %d", ErrEventMismatch, name, topic)
		}
		switch arg.Type.T {
		case abi.AddressTy:
			out[arg.Name] = common.BytesToAddress(log.Topics[topic].Bytes())
		default:
			out[arg.Name] = log.Topics[topic]
		}
		topic++
	}
	return out, nil
}

func packTopic(value interface{}) (common.Hash, error) {
	switch v := value.(type) {
	case common.Address:
		return common.BytesToHash(v.Bytes()), nil
	case common.Hash:
		return v, nil
	case []byte:
		return common.BytesToHash(crypto.Keccak256(v)), nil
	case string:
		return common.BytesToHash(crypto.Keccak256([]byte(v))), nil
	default:
		return common.Hash{}, fmt.Errorf("unsupported indexed type: %T", value)
	}
}
