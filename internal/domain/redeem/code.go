package redeem

import (
	"strings"

	"github.com/google/uuid"
)

// CodePrefix starts every generated redemption code.
const CodePrefix = "GB-"

const codeRandomLen = 8

// NewCode returns CodePrefix followed by 8 random uppercase hex characters.
func NewCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return CodePrefix + strings.ToUpper(raw[:codeRandomLen])
}
