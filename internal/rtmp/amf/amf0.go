// Package amf implements the AMF0 value codec consumed by the command and
// shared-object layers. Values are a tagged union mapped onto Go types:
// Number → float64, Boolean → bool, String/LongString → string, Object and
// ECMA array → map[string]interface{}, StrictArray → []interface{},
// Null → nil, Undefined → Undefined{}.
package amf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// AMF0 Markers
const (
	MarkerNumber      = 0x00
	MarkerBoolean     = 0x01
	MarkerString      = 0x02
	MarkerObject      = 0x03
	MarkerNull        = 0x05
	MarkerUndefined   = 0x06
	MarkerECMAArray   = 0x08
	MarkerObjectEnd   = 0x09
	MarkerStrictArray = 0x0A
	MarkerLongString  = 0x0C
)

// Limits to keep a hostile peer from ballooning a single decode
const (
	maxValues     = 1000
	maxObjectKeys = 500
	maxArrayLen   = 10000
)

var (
	ErrInvalidMarker  = errors.New("amf: invalid marker")
	ErrEndObject      = errors.New("amf: end of object")
	ErrValueLimit     = errors.New("amf: value limit exceeded")
	ErrObjectKeyLimit = errors.New("amf: object key limit exceeded")
	ErrArrayTooLong   = errors.New("amf: array too long")
)

// Undefined is the AMF0 undefined value (marker 0x06).
type Undefined struct{}

// DecodeAll decodes a sequence of AMF0 values until the reader is exhausted.
func DecodeAll(r io.Reader) ([]interface{}, error) {
	var values []interface{}
	for {
		if len(values) >= maxValues {
			return nil, ErrValueLimit
		}
		v, err := DecodeValue(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// DecodeOne decodes a single value from b and returns the remaining bytes.
func DecodeOne(b []byte) (interface{}, []byte, error) {
	r := bytes.NewReader(b)
	v, err := DecodeValue(r)
	if err != nil {
		return nil, nil, err
	}
	return v, b[len(b)-r.Len():], nil
}

// DecodeValue decodes a single AMF0 value.
func DecodeValue(r io.Reader) (interface{}, error) {
	var marker [1]byte
	if _, err := io.ReadFull(r, marker[:]); err != nil {
		return nil, err
	}

	switch marker[0] {
	case MarkerNumber:
		return decodeNumber(r)
	case MarkerBoolean:
		return decodeBoolean(r)
	case MarkerString:
		return decodeString(r)
	case MarkerObject:
		return decodeObject(r)
	case MarkerNull:
		return nil, nil
	case MarkerUndefined:
		return Undefined{}, nil
	case MarkerECMAArray:
		return decodeECMAArray(r)
	case MarkerStrictArray:
		return decodeStrictArray(r)
	case MarkerLongString:
		return decodeLongString(r)
	case MarkerObjectEnd:
		return nil, ErrEndObject
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidMarker, marker[0])
	}
}

func decodeNumber(r io.Reader) (float64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:])), nil
}

func decodeBoolean(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func decodeString(r io.Reader) (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	length := binary.BigEndian.Uint16(lenBuf[:])
	if length == 0 {
		return "", nil
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func decodeLongString(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length == 0 {
		return "", nil
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func decodeObject(r io.Reader) (map[string]interface{}, error) {
	obj := make(map[string]interface{})
	for {
		if len(obj) >= maxObjectKeys {
			return nil, ErrObjectKeyLimit
		}

		key, err := decodeString(r)
		if err != nil {
			return nil, err
		}

		// The empty key preceding 0x09 terminates the object.
		val, err := DecodeValue(r)
		if err == ErrEndObject {
			break
		}
		if err != nil {
			return nil, err
		}

		obj[key] = val
	}
	return obj, nil
}

func decodeECMAArray(r io.Reader) (map[string]interface{}, error) {
	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, err
	}
	// The count is advisory; read key/value pairs until ObjectEnd like a
	// plain object. Flash servers are sloppy about it.
	return decodeObject(r)
}

func decodeStrictArray(r io.Reader) ([]interface{}, error) {
	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, err
	}
	count := binary.BigEndian.Uint32(countBuf[:])
	if count > maxArrayLen {
		return nil, ErrArrayTooLong
	}
	arr := make([]interface{}, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := DecodeValue(r)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}
