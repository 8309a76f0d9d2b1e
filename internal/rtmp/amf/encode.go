package amf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// Encode encodes a sequence of values to w.
func Encode(w io.Writer, values ...interface{}) error {
	for _, v := range values {
		if err := EncodeValue(w, v); err != nil {
			return err
		}
	}
	return nil
}

// EncodeBytes encodes a sequence of values to a fresh byte slice.
func EncodeBytes(values ...interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := Encode(buf, values...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeValue encodes a single value to w.
func EncodeValue(w io.Writer, v interface{}) error {
	switch t := v.(type) {
	case string:
		return encodeString(w, t)
	case float64:
		return encodeNumber(w, t)
	case int:
		return encodeNumber(w, float64(t))
	case uint32:
		return encodeNumber(w, float64(t))
	case bool:
		return encodeBoolean(w, t)
	case map[string]interface{}:
		return encodeObject(w, t)
	case []interface{}:
		return encodeStrictArray(w, t)
	case Undefined:
		_, err := w.Write([]byte{MarkerUndefined})
		return err
	case nil:
		_, err := w.Write([]byte{MarkerNull})
		return err
	default:
		return fmt.Errorf("amf: cannot encode %T", v)
	}
}

func encodeNumber(w io.Writer, n float64) error {
	if _, err := w.Write([]byte{MarkerNumber}); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, n)
}

func encodeBoolean(w io.Writer, b bool) error {
	val := byte(0)
	if b {
		val = 1
	}
	_, err := w.Write([]byte{MarkerBoolean, val})
	return err
}

func encodeString(w io.Writer, s string) error {
	if len(s) > 0xFFFF {
		if _, err := w.Write([]byte{MarkerLongString}); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint32(len(s))); err != nil {
			return err
		}
		_, err := w.Write([]byte(s))
		return err
	}
	if _, err := w.Write([]byte{MarkerString}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func encodeObject(w io.Writer, m map[string]interface{}) error {
	if _, err := w.Write([]byte{MarkerObject}); err != nil {
		return err
	}

	// Sorted keys keep the output deterministic for tests and diffing.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := writeObjectKey(w, k); err != nil {
			return err
		}
		if err := EncodeValue(w, m[k]); err != nil {
			return err
		}
	}

	_, err := w.Write([]byte{0x00, 0x00, MarkerObjectEnd})
	return err
}

func encodeStrictArray(w io.Writer, arr []interface{}) error {
	if _, err := w.Write([]byte{MarkerStrictArray}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(arr))); err != nil {
		return err
	}
	for _, v := range arr {
		if err := EncodeValue(w, v); err != nil {
			return err
		}
	}
	return nil
}

func writeObjectKey(w io.Writer, k string) error {
	if err := binary.Write(w, binary.BigEndian, uint16(len(k))); err != nil {
		return err
	}
	_, err := w.Write([]byte(k))
	return err
}
