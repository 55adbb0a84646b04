package model

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"

	"golang.org/x/text/unicode/norm"
)

// DomainIntent is the domain prefix for intent identity hashing.
// Version suffix enables future algorithm migration.
const DomainIntent = "tasm/intent/v1"

// calculateID computes the content-addressed ID for an intent.
//
// Format: SHA256(domain + 0x00 + canonical serialization), hex-encoded.
// The null byte separator prevents domain/data boundary ambiguity.
//
// The canonical serialization is:
//
//	le64(len(creator)) + creator + le64(len(description)) + description +
//	le64(deadline) + le64(collateral)
//
// Numeric fields use fixed-width little-endian encoding. String fields are
// NFC-normalized before hashing so visually identical commitments collapse
// to the same identity, and length-prefixed so field boundaries are
// unambiguous.
//
// The ID is stable across restarts and host bindings given the same inputs.
func (i Intent) calculateID() IntentID {
	creator := norm.NFC.String(string(i.Creator))
	description := norm.NFC.String(i.Description)

	h := sha256.New()
	h.Write([]byte(DomainIntent))
	h.Write([]byte{0x00})
	writeString(h, creator)
	writeString(h, description)
	writeUint64(h, i.Deadline)
	writeUint64(h, i.Collateral)
	return IntentID(hex.EncodeToString(h.Sum(nil)))
}

// CalculateID recomputes the content-addressed ID from the intent's fields.
// Used to verify that a stored intent's ID matches its content.
func (i Intent) CalculateID() IntentID {
	return i.calculateID()
}

func writeString(w io.Writer, s string) {
	writeUint64(w, uint64(len(s)))
	w.Write([]byte(s))
}

func writeUint64(w io.Writer, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.Write(buf[:])
}
