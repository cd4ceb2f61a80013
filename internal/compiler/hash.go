package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/roach88/rulekit/internal/attr"
)

// DomainRule prefixes rule identity hashes. The version suffix leaves room
// for a future change of encoding.
const DomainRule = "rulekit/rule/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data). The null separator
// keeps domain and data from running into each other.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RuleID is the content address of a rule: the same name and attributes
// always hash to the same ID, whatever order the source file used.
func RuleID(name string, m *attr.Map) (string, error) {
	data, err := json.Marshal(struct {
		Name  string    `json:"name"`
		Attrs *attr.Map `json:"attrs"`
	}{name, m})
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainRule, data), nil
}
