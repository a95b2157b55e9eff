package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows a future change of encoding.
const (
	DomainItemset = "basket/itemset/v1"
	DomainRule    = "basket/rule/v1"
	DomainRun     = "basket/run/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ItemsetID computes the content-addressed ID of an itemset.
func ItemsetID(s Itemset) (string, error) {
	canonical, err := MarshalCanonical(StringArray(s.Strings()))
	if err != nil {
		return "", fmt.Errorf("ItemsetID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainItemset, canonical), nil
}

// RuleID computes the content-addressed ID of a rule from its two sides.
func RuleID(r Rule) (string, error) {
	obj := Object{
		"antecedent": StringArray(r.Antecedent.Strings()),
		"consequent": StringArray(r.Consequent.Strings()),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RuleID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRule, canonical), nil
}

// RunDigest hashes the canonical snapshot of a mining result.
// Two runs with the same digest found the same itemsets with the same
// counts and kept the same rules in the same order.
func RunDigest(snap Snapshot) (string, error) {
	canonical, err := MarshalCanonical(snap.Object())
	if err != nil {
		return "", fmt.Errorf("RunDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRun, canonical), nil
}
