package storage

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const stampPrefix = "revision:"

// Stamp digests the inputs a revision is rendered from. It is recorded in the
// document's /Keywords entry so an unchanged revision is not rewritten.
func Stamp(parts ...[]byte) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	return stampPrefix + hex.EncodeToString(h.Sum(nil))
}

// StampOf returns the stamp recorded in the document at path, or "" when the
// file is missing, unreadable or carries none.
func StampOf(path string) string {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return ""
	}
	ctx, err := api.ReadContextFile(path)
	if err != nil || ctx.Info == nil {
		return ""
	}
	d, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil || d == nil {
		return ""
	}
	obj, ok := d.Find("Keywords")
	if !ok {
		return ""
	}
	s, err := ctx.DereferenceText(obj)
	if err != nil || !strings.HasPrefix(s, stampPrefix) {
		return ""
	}
	return s
}
