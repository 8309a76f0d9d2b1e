// Package command packs and unpacks AMF0 command message payloads: procedure
// name, transaction id, command object, then any optional arguments.
package command

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mx4242/go-flash-rtmp/internal/rtmp/amf"
)

// Well-known procedure names.
const (
	NameConnect = "connect"
	NameResult  = "_result"
	NameError   = "_error"
)

var (
	ErrEmptyPayload = errors.New("command: empty payload")
	ErrBadName      = errors.New("command: procedure name is not a string")
	ErrBadTxnID     = errors.New("command: transaction id is not a number")
)

// Command is one AMF0 command message.
type Command struct {
	Name          string
	TransactionID uint32
	Object        interface{}   // nil encodes as AMF0 null
	Args          []interface{} // optional arguments, appended verbatim
}

// IsResponse reports whether the command finalizes a transaction.
func (c *Command) IsResponse() bool {
	return c.Name == NameResult || c.Name == NameError
}

// Decode consumes AMF0 values from payload until exhausted. Everything after
// the command object lands in Args.
func Decode(payload []byte) (*Command, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	name, rest, err := amf.DecodeOne(payload)
	if err != nil {
		return nil, fmt.Errorf("command: decode name: %w", err)
	}
	nameStr, ok := name.(string)
	if !ok {
		return nil, ErrBadName
	}

	txn, rest, err := amf.DecodeOne(rest)
	if err != nil {
		return nil, fmt.Errorf("command: decode transaction id: %w", err)
	}
	txnNum, ok := txn.(float64)
	if !ok {
		return nil, ErrBadTxnID
	}

	cmd := &Command{Name: nameStr, TransactionID: uint32(txnNum)}

	if len(rest) > 0 {
		cmd.Object, rest, err = amf.DecodeOne(rest)
		if err != nil {
			return nil, fmt.Errorf("command: decode command object: %w", err)
		}
	}

	for len(rest) > 0 {
		var arg interface{}
		arg, rest, err = amf.DecodeOne(rest)
		if err != nil {
			return nil, fmt.Errorf("command: decode optional argument: %w", err)
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

// Encode serializes the command to an AMF0 payload.
func Encode(cmd *Command) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := amf.Encode(buf, cmd.Name, float64(cmd.TransactionID), cmd.Object); err != nil {
		return nil, err
	}
	if len(cmd.Args) > 0 {
		if err := amf.Encode(buf, cmd.Args...); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
