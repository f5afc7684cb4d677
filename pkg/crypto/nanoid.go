package crypto

import (
	"crypto/rand"
	"errors"
	"math"
)

const (
	idAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	defaultIDSize = 21
	minAlphabet   = 8
	maxAlphabet   = 255
)

var (
	ErrAlphabetTooShort = errors.New("alphabet must contain at least 8 characters")
	ErrAlphabetTooLong  = errors.New("alphabet must contain no more than 255 characters")
	ErrAlphabetNotASCII = errors.New("alphabet must contain only ASCII characters")
)

// IDGenerator produces nanoid-style identifiers for users and chat messages
type IDGenerator struct {
	alphabet string
	mask     byte
	size     int
}

// NewIDGenerator builds a generator over alphabet; "" selects the URL-safe default
func NewIDGenerator(alphabet string, size int) (*IDGenerator, error) {
	if alphabet == "" {
		alphabet = idAlphabet
	}
	if size <= 0 {
		size = defaultIDSize
	}

	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] > 127 {
			return nil, ErrAlphabetNotASCII
		}
	}
	if len(alphabet) < minAlphabet {
		return nil, ErrAlphabetTooShort
	}
	if len(alphabet) > maxAlphabet {
		return nil, ErrAlphabetTooLong
	}

	return &IDGenerator{alphabet: alphabet, mask: maskFor(len(alphabet)), size: size}, nil
}

// MustIDGenerator is NewIDGenerator with the default alphabet
func MustIDGenerator() *IDGenerator {
	g, err := NewIDGenerator("", defaultIDSize)
	if err != nil {
		panic(err)
	}
	return g
}

// smallest 2^n-1 covering the alphabet
func maskFor(n int) byte {
	m := 1
	for m < n-1 {
		m = m<<1 | 1
	}
	return byte(m)
}

// NewID returns a fresh identifier
func (g *IDGenerator) NewID() (string, error) {
	step := int(math.Ceil(1.6 * float64(int(g.mask)*g.size) / float64(len(g.alphabet))))

	id := make([]byte, 0, g.size)
	buf := make([]byte, step)

	for len(id) < g.size {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			idx := b & g.mask
			if int(idx) < len(g.alphabet) {
				id = append(id, g.alphabet[idx])
				if len(id) == g.size {
					break
				}
			}
		}
	}

	return string(id), nil
}
