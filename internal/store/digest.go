package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
)

// digestDomain prefixes every snapshot digest. The version suffix leaves
// room for a different encoding later.
const digestDomain = "roast/snapshot/v1"

type storedHistogram struct {
	name string
	meta string
	bins []byte
}

// snapshotDigest hashes a snapshot's content, independent of its ID, seq and
// timestamp. Two snapshots with equal digests restore to equal records.
//
// Format: SHA256(domain 0x00 state (name meta bins)...), each field
// length-prefixed so field boundaries are unambiguous. hists must be in
// name order.
func snapshotDigest(state string, hists []storedHistogram) string {
	h := sha256.New()
	h.Write([]byte(digestDomain))
	h.Write([]byte{0x00})
	writeField(h, []byte(state))
	for _, hist := range hists {
		writeField(h, []byte(hist.name))
		writeField(h, []byte(hist.meta))
		writeField(h, hist.bins)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(w io.Writer, b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	w.Write(n[:])
	w.Write(b)
}
