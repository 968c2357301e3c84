// Package persist provides the binary framing shared by every on-disk
// record this module writes: a magic number, a version tag, an integrity
// checksum, and a length-prefixed payload, all little-endian and at a
// fixed width independent of the host's native integer size.
//
// This replaces the original engine's raw in-memory struct dumps (no
// version, no checksum, host-width-dependent) with the hardening its own
// design notes call for.
package persist

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Version is the on-disk record format version written by this build.
// ReadRecord rejects any other value rather than guess at compatibility.
const Version uint32 = 1

// WriteUint32 writes v as 4 little-endian bytes.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// WriteUint64 writes v as 8 little-endian bytes.
func WriteUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// WriteInt32 writes v as 4 little-endian bytes.
func WriteInt32(w io.Writer, v int32) error {
	return WriteUint32(w, uint32(v))
}

// ReadUint32 reads 4 little-endian bytes.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadUint64 reads 8 little-endian bytes.
func ReadUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// ReadInt32 reads 4 little-endian bytes.
func ReadInt32(r io.Reader) (int32, error) {
	v, err := ReadUint32(r)
	return int32(v), err
}

// WriteRecord frames payload behind magic, the current Version, an
// xxhash checksum of payload, and payload's length, then writes payload
// itself.
func WriteRecord(w io.Writer, magic uint32, payload []byte) error {
	if err := WriteUint32(w, magic); err != nil {
		return fmt.Errorf("persist: write magic: %w", err)
	}
	if err := WriteUint32(w, Version); err != nil {
		return fmt.Errorf("persist: write version: %w", err)
	}
	if err := WriteUint64(w, xxhash.Sum64(payload)); err != nil {
		return fmt.Errorf("persist: write checksum: %w", err)
	}
	if err := WriteUint32(w, uint32(len(payload))); err != nil {
		return fmt.Errorf("persist: write length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("persist: write payload: %w", err)
	}
	return nil
}

// ReadRecord reads a record written by WriteRecord, checking magic,
// version, and checksum. It returns the inner payload for the caller to
// decode further.
func ReadRecord(r io.Reader, wantMagic uint32) ([]byte, error) {
	magic, err := ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("persist: read magic: %w", err)
	}
	if magic != wantMagic {
		return nil, fmt.Errorf("persist: bad magic %#x, want %#x", magic, wantMagic)
	}
	version, err := ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("persist: read version: %w", err)
	}
	if version != Version {
		return nil, fmt.Errorf("persist: unsupported record version %d", version)
	}
	wantChecksum, err := ReadUint64(r)
	if err != nil {
		return nil, fmt.Errorf("persist: read checksum: %w", err)
	}
	length, err := ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("persist: read length: %w", err)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("persist: read payload: %w", err)
	}
	if got := xxhash.Sum64(payload); got != wantChecksum {
		return nil, fmt.Errorf("persist: checksum mismatch, file is corrupt")
	}
	return payload, nil
}

// NewRunID returns a fresh identifier to stamp into a persisted file so
// later log lines referencing the file's contents can be correlated back
// to the run that produced it.
func NewRunID() string {
	return uuid.NewString()
}
