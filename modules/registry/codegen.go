package registry

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/jaevor/go-nanoid"
)

// codeAlphabet is the symbol set for room codes.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the fixed length of a room code.
const CodeLength = 6

// newCodeGenerator returns a uniform random room-code generator.
func newCodeGenerator() func() string {
	gen, err := nanoid.CustomASCII(codeAlphabet, CodeLength)
	if err != nil {
		// Alphabet and length are compile-time constants; this cannot
		// happen with a valid build.
		panic("registry: invalid code alphabet: " + err.Error())
	}
	return gen
}

// NormalizeCode upper-cases a room code. Codes are case-normalized at every
// boundary so lookups are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidCode reports whether code is exactly CodeLength characters from the
// room-code alphabet.
func IsValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, c := range code {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

// NewMessageID produces a time-plus-random composite message id. IDs are
// practically unique, not guaranteed unique.
func NewMessageID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + randomBase36(6)
}

func randomBase36(length int) string {
	const chars = "0123456789abcdefghijklmnopqrstuvwxyz"
	max := big.NewInt(int64(len(chars)))

	suffix := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("registry: crypto/rand failure: " + err.Error())
		}
		suffix[i] = chars[n.Int64()]
	}
	return string(suffix)
}
