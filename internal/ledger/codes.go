package ledger

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// Code prefixes distinguish the entity behind a scanned code.
const (
	ClaimCodePrefix  = "RWD-"
	PickupCodePrefix = "PCK-"
)

// CodeKind identifies which entity a scannable code belongs to.
type CodeKind int

const (
	CodeKindUnknown CodeKind = iota
	CodeKindClaim
	CodeKindOrder
)

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

func randomCode(prefix string) (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return prefix + codeEncoding.EncodeToString(buf), nil
}

// NewClaimCode generates an unguessable single-use code for a reward claim.
func NewClaimCode() (string, error) {
	return randomCode(ClaimCodePrefix)
}

// NewPickupCode generates an unguessable pickup code for an offer order.
func NewPickupCode() (string, error) {
	return randomCode(PickupCodePrefix)
}

// KindOfCode resolves which entity type a scanned code refers to.
func KindOfCode(code string) CodeKind {
	switch {
	case strings.HasPrefix(code, ClaimCodePrefix):
		return CodeKindClaim
	case strings.HasPrefix(code, PickupCodePrefix):
		return CodeKindOrder
	default:
		return CodeKindUnknown
	}
}
