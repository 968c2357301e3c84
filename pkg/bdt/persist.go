package bdt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/behrlich/bridge-solver/internal/persist"
)

// Magic is the on-disk record identifier for a Manager dump.
const Magic uint32 = 0x00315722

// WriteTo serializes every node (skipping the sentinel at handle 0) in
// insertion order as a framed persist record.
func (m *Manager) WriteTo(w io.Writer) error {
	var buf bytes.Buffer
	if err := persist.WriteUint32(&buf, uint32(len(m.nodes)-1)); err != nil {
		return err
	}
	for _, n := range m.nodes[1:] {
		if err := persist.WriteUint32(&buf, n.var_); err != nil {
			return err
		}
		if err := persist.WriteUint32(&buf, uint32(n.avec)); err != nil {
			return err
		}
		if err := persist.WriteUint32(&buf, uint32(n.sans)); err != nil {
			return err
		}
	}
	return persist.WriteRecord(w, Magic, buf.Bytes())
}

// ReadInto populates an empty Manager from a dump written by WriteTo.
// Returns an error (rather than panicking) if m is non-empty or the file
// references a handle that does not yet exist at the point it's read,
// since a freshly-parsed file is an I/O-boundary input, not an invariant
// about handles a live Manager has already hash-consed.
func ReadInto(r io.Reader, m *Manager) error {
	if len(m.nodes) != 1 {
		return fmt.Errorf("bdt: ReadInto requires an empty Manager")
	}

	payload, err := persist.ReadRecord(r, Magic)
	if err != nil {
		return fmt.Errorf("bdt: %w", err)
	}
	buf := bytes.NewReader(payload)

	count, err := persist.ReadUint32(buf)
	if err != nil {
		return fmt.Errorf("bdt: %w", err)
	}

	for i := uint32(0); i < count; i++ {
		v, err := persist.ReadUint32(buf)
		if err != nil {
			return fmt.Errorf("bdt: %w", err)
		}
		avec, err := persist.ReadUint32(buf)
		if err != nil {
			return fmt.Errorf("bdt: %w", err)
		}
		sans, err := persist.ReadUint32(buf)
		if err != nil {
			return fmt.Errorf("bdt: %w", err)
		}
		if (avec != 0 && avec >= uint32(len(m.nodes))) || (sans != 0 && sans >= uint32(len(m.nodes))) {
			return fmt.Errorf("bdt: node %d references an unknown handle", i+1)
		}
		n := node{var_: v, avec: Handle(avec), sans: Handle(sans)}
		m.nodes = append(m.nodes, n)
		m.nodeRev[n] = Handle(len(m.nodes) - 1)
	}
	return nil
}
