// Package wire provides the fixed-width integer primitives used by the RTMP
// framing layers. RTMP mixes byte orders: almost everything is big-endian,
// except the message stream id in a Type-0 chunk header, which is
// little-endian.
package wire

import (
	"encoding/binary"
	"io"
)

// ReadU8 reads a single byte.
func ReadU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16BE reads a big-endian 16-bit unsigned integer.
func ReadU16BE(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// ReadU24BE reads a big-endian 24-bit unsigned integer into a uint32.
func ReadU24BE(r io.Reader) (uint32, error) {
	var b [3]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return U24BE(b[:]), nil
}

// ReadU32BE reads a big-endian 32-bit unsigned integer.
func ReadU32BE(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// ReadU32LE reads a little-endian 32-bit unsigned integer.
func ReadU32LE(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// WriteU8 writes a single byte.
func WriteU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

// WriteU16BE writes a big-endian 16-bit unsigned integer.
func WriteU16BE(w io.Writer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// WriteU24BE writes the low 24 bits of v big-endian.
func WriteU24BE(w io.Writer, v uint32) error {
	b := [3]byte{byte(v >> 16), byte(v >> 8), byte(v)}
	_, err := w.Write(b[:])
	return err
}

// WriteU32BE writes a big-endian 32-bit unsigned integer.
func WriteU32BE(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// WriteU32LE writes a little-endian 32-bit unsigned integer.
func WriteU32LE(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// U24BE decodes the first three bytes of b as a big-endian 24-bit integer.
func U24BE(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// PutU24BE encodes the low 24 bits of v into the first three bytes of b.
func PutU24BE(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}
