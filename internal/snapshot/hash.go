package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed hashes. The version suffix leaves
// room for algorithm migration without colliding with old archives.
const (
	DomainSchedule     = "hwsched/schedule/v1"
	DomainArchitecture = "hwsched/architecture/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null separator
// removes domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
