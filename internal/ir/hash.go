package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const DomainSnapshot = "teamsplit/snapshot/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotID computes the content-addressed ID of a generated split.
// Session and wall time are excluded: the same teams from the same seed and
// strategy are the same result.
func SnapshotID(teams []Team, seed int64, strategy string) (string, error) {
	obj := map[string]any{
		"teams":    teams,
		"seed":     seed,
		"strategy": strategy,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("SnapshotID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}
