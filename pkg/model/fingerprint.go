// pkg/model/fingerprint.go
package model

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// Fingerprint hashes the batch as it will be loaded, in order, so two runs
// that pulled identical data report the same value. Missing and empty fields
// hash differently.
func Fingerprint(batch []InspectionRecord) uint64 {
	h := xxh3.New()
	var buf [8]byte
	for i := range batch {
		for _, f := range batch[i].fields() {
			if !f.Valid {
				_, _ = h.Write([]byte{0})
				continue
			}
			binary.LittleEndian.PutUint64(buf[:], uint64(len(f.Value))+1)
			_, _ = h.Write(buf[:])
			_, _ = h.Write([]byte(f.Value))
		}
	}
	return h.Sum64()
}
