package ledger

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const codePrefix = "GK"

// NewCode builds a redemption code: fixed prefix, a short event tag, the
// event-scoped sequence number and a random suffix. The suffix is what
// changes between collision retries.
func NewCode(eventID string, seq int) string {
	return fmt.Sprintf("%s-%s-%04d-%s", codePrefix, eventTag(eventID), seq, randomSuffix())
}

func eventTag(eventID string) string {
	tag := strings.ToUpper(strings.ReplaceAll(eventID, "-", ""))
	if len(tag) > 4 {
		tag = tag[:4]
	}
	if tag == "" {
		tag = "XXXX"
	}
	return tag
}

func randomSuffix() string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; keep the code
		// shape stable if it somehow does.
		return "000000"
	}
	return strings.ToUpper(fmt.Sprintf("%x", b))
}
