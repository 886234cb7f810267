// Package identity issues human-readable employee identifiers of the form
// OI + two initials + four-digit join year + four-digit serial, e.g. OIJD20260001.
package identity

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"hrms/apperr"
)

const (
	prefix    = "OI"
	maxSerial = 9999
)

var (
	ErrEmptyName       = apperr.New(apperr.KindValidation, "name_required", "first and last name are required")
	ErrInvalidInitial  = apperr.New(apperr.KindValidation, "invalid_initial", "names must start with a latin letter")
	ErrInvalidYear     = apperr.New(apperr.KindValidation, "invalid_join_year", "join year must have four digits")
	ErrSerialExhausted = apperr.New(apperr.KindConflict, "serial_exhausted", "no identifiers left for join year")
)

var identifierPattern = regexp.MustCompile(`^OI[A-Z]{2}[0-9]{4}[0-9]{4}$`)

// SerialAllocator hands out strictly increasing serials per join year. Each
// call must be atomic with respect to concurrent callers for the same year.
type SerialAllocator interface {
	NextSerial(ctx context.Context, year int) (int, error)
}

type Issuer struct {
	serials SerialAllocator
}

func NewIssuer(serials SerialAllocator) *Issuer {
	return &Issuer{serials: serials}
}

// Issue allocates the next serial for joinYear and formats the identifier.
// When ctx carries a transaction the allocation joins it, so a rolled back
// account insert also gives the serial back.
func (i *Issuer) Issue(ctx context.Context, firstName, lastName string, joinYear int) (string, error) {
	first, last, err := initials(firstName, lastName)
	if err != nil {
		return "", err
	}
	if joinYear < 1000 || joinYear > 9999 {
		return "", ErrInvalidYear
	}

	serial, err := i.serials.NextSerial(ctx, joinYear)
	if err != nil {
		return "", fmt.Errorf("identity: allocate serial for %d: %w", joinYear, err)
	}
	if serial < 1 || serial > maxSerial {
		return "", ErrSerialExhausted
	}

	return Format(first, last, joinYear, serial), nil
}

// Format renders an identifier from its parts without validation.
func Format(firstInitial, lastInitial byte, year, serial int) string {
	return fmt.Sprintf("%s%c%c%04d%04d", prefix, firstInitial, lastInitial, year, serial)
}

// Valid reports whether s is a well-formed identifier.
func Valid(s string) bool {
	return identifierPattern.MatchString(s)
}

// Normalize upper-cases and trims user input that may be an identifier.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func initials(firstName, lastName string) (byte, byte, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return 0, 0, ErrEmptyName
	}
	f, ok := initialOf(firstName)
	if !ok {
		return 0, 0, ErrInvalidInitial
	}
	l, ok := initialOf(lastName)
	if !ok {
		return 0, 0, ErrInvalidInitial
	}
	return f, l, nil
}

// Latin letters with no canonical decomposition to a base letter.
var baseLetters = map[rune]rune{
	'Ł': 'L',
	'Ø': 'O',
	'Đ': 'D',
	'Ð': 'D',
	'Ħ': 'H',
	'Ŧ': 'T',
	'Þ': 'T',
	'Æ': 'A',
	'Œ': 'O',
}

// initialOf folds the first letter of name to an ASCII capital: Ö becomes O
// and Ł becomes L. Letters outside the Latin script have no initial.
func initialOf(name string) (byte, bool) {
	r, _ := utf8.DecodeRuneInString(name)
	if r >= utf8.RuneSelf {
		stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
		if folded, _, err := transform.String(stripMarks, string(r)); err == nil && folded != "" {
			r, _ = utf8.DecodeRuneInString(folded)
		}
		if base, ok := baseLetters[unicode.ToUpper(r)]; ok {
			r = base
		}
	}
	if r >= utf8.RuneSelf {
		return 0, false
	}
	return upperLetter(byte(r))
}

func upperLetter(c byte) (byte, bool) {
	switch {
	case 'A' <= c && c <= 'Z':
		return c, true
	case 'a' <= c && c <= 'z':
		return c - 'a' + 'A', true
	}
	return 0, false
}

// MemoryAllocator is a process-local SerialAllocator.
type MemoryAllocator struct {
	mu   sync.Mutex
	last map[int]int
}

func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{last: make(map[int]int)}
}

func (m *MemoryAllocator) NextSerial(_ context.Context, year int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[year]++
	return m.last[year], nil
}
