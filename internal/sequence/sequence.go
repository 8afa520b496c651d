// Package sequence holds the client-side nucleotide rules: IUPAC sanitization,
// length gates and the base statistics the charts are built from.
package sequence

import (
	"fmt"
	"strings"
)

// IUPACAlphabet is every nucleotide code the backend accepts.
const IUPACAlphabet = "ATGCNRYSWKMBDHV"

const (
	MinPrimerDesignLength = 50
	MinRestrictionLength  = 6
	MinPrimerLength       = 15
	MaxPrimerLength       = 35
	MinInsertLength       = 20
	MinOverlapLength      = 15
	MaxOverlapLength      = 40
	DefaultOverlapLength  = 25
)

var iupac [256]bool

func init() {
	for i := 0; i < len(IUPACAlphabet); i++ {
		iupac[IUPACAlphabet[i]] = true
	}
}

// Sanitize upper-cases s and drops every character outside the IUPAC alphabet.
// Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if iupac[c] {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// IsValid reports whether s already consists only of upper-case IUPAC codes.
func IsValid(s string) bool {
	for i := 0; i < len(s); i++ {
		if !iupac[s[i]] {
			return false
		}
	}
	return true
}

// ValidationError is a locally caught input problem; no request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func RequireMinLength(field, seq string, min int) error {
	if len(seq) < min {
		return invalid(field, "Sequence must be at least %d base pairs", min)
	}
	return nil
}

func RequirePrimerLength(field, seq string) error {
	if len(seq) < MinPrimerLength || len(seq) > MaxPrimerLength {
		return invalid(field, "Primer must be between %d and %d bases", MinPrimerLength, MaxPrimerLength)
	}
	return nil
}

func RequireTmRange(minTm, maxTm float64) error {
	if minTm < 40 || maxTm > 80 || maxTm <= minTm {
		return invalid("tm", "Tm range must be within 40-80°C with max above min")
	}
	return nil
}

func RequireProductRange(minSize, maxSize int) error {
	if minSize < 50 || maxSize > 5000 || maxSize <= minSize {
		return invalid("product", "Product size range must be within 50-5000 bp with max above min")
	}
	return nil
}

// RequireGibson checks the Gibson inputs against the backend's fixed 20 bp insert binding
// region and the chosen overlap.
func RequireGibson(vector, insert string, overlap int) error {
	if overlap < MinOverlapLength || overlap > MaxOverlapLength {
		return invalid("overlap_length", "Overlap length must be between %d and %d", MinOverlapLength, MaxOverlapLength)
	}
	if len(insert) < MinInsertLength {
		return invalid("insert_seq", "Insert must be at least %d base pairs", MinInsertLength)
	}
	if len(vector) < overlap {
		return invalid("vector_seq", "Vector must be at least %d base pairs", overlap)
	}
	return nil
}

func Required(field, value, message string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "%s", message)
	}
	return nil
}

// Composition counts A, T, G, C and everything else (ambiguity codes) in seq.
type Composition struct {
	A, T, G, C, Other int
}

func Count(seq string) Composition {
	var c Composition
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'a':
			c.A++
		case 'T', 't':
			c.T++
		case 'G', 'g':
			c.G++
		case 'C', 'c':
			c.C++
		default:
			c.Other++
		}
	}
	return c
}

func (c Composition) Total() int {
	return c.A + c.T + c.G + c.C + c.Other
}

// GCPercent is the share of G and C in seq, 0..100. Empty input yields 0.
func GCPercent(seq string) float64 {
	if len(seq) == 0 {
		return 0
	}
	c := Count(seq)
	return float64(c.G+c.C) * 100 / float64(len(seq))
}

// Abbreviate shortens long sequences for display: first and last n bases around an ellipsis.
func Abbreviate(seq string, n int) string {
	if len(seq) <= 2*n+3 {
		return seq
	}
	return seq[:n] + "..." + seq[len(seq)-n:]
}
