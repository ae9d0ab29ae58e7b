package order

import (
	"fmt"
	"regexp"
	"strings"

	"labtrack/internal/pkg/errs"
)

const (
	// ImplicitIssuerID is the issuer recorded for self-issued (External) numbers.
	// Registered issuers must never use it.
	ImplicitIssuerID = "labtrack"

	// ExternalNumberLength is the fixed length of self-issued order numbers.
	ExternalNumberLength = 10

	maxPreIssuedNumberLength = 64
	externalNumberAlphabet   = "0123456789"
)

var externalNumberPattern = regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, ExternalNumberLength))

// Number identifies an order together with its sample. It is a closed set:
// External and PreIssued are the only implementations. Use MatchNumber when
// behaviour differs per variant so that every variant must be handled.
//
// Number values are comparable; two numbers are equal iff they have the same
// variant and the same fields.
type Number interface {
	// IssuerID returns the owning issuer; External numbers return ImplicitIssuerID.
	IssuerID() string
	// Value returns the raw order number.
	Value() string
	String() string

	sealed()
}

// External is a self-issued, globally unique numeric order number.
type External struct {
	number string
}

// PreIssued is an order number supplied by an issuer; it is unique only within that issuer.
type PreIssued struct {
	issuerID string
	number   string
}

// RandomSource is the subset of *rand.Rand (math/rand/v2) used to draw numbers.
type RandomSource interface {
	IntN(n int) int
}

// NewRandomExternal draws a fresh External number from rnd. Uniqueness is not
// checked here; the registration handler retries on collision.
func NewRandomExternal(rnd RandomSource) External {
	var b strings.Builder
	b.Grow(ExternalNumberLength)
	for range ExternalNumberLength {
		b.WriteByte(externalNumberAlphabet[rnd.IntN(len(externalNumberAlphabet))])
	}
	return External{number: b.String()}
}

// ParseExternal validates s against the fixed-length numeric format.
func ParseExternal(s string) (External, error) {
	if !externalNumberPattern.MatchString(s) {
		return External{}, errs.NewValueIsInvalidErrorWithCause(
			"order number",
			fmt.Errorf("%q is not a %d digit number", s, ExternalNumberLength),
		)
	}
	return External{number: s}, nil
}

// NewPreIssued builds an issuer-scoped number.
func NewPreIssued(issuerID, number string) (PreIssued, error) {
	issuerID = strings.TrimSpace(issuerID)
	number = strings.TrimSpace(number)

	if issuerID == "" {
		return PreIssued{}, errs.NewValueIsRequiredError("issuer id")
	}
	if issuerID == ImplicitIssuerID {
		return PreIssued{}, errs.NewValueIsInvalidErrorWithCause(
			"issuer id",
			fmt.Errorf("%q is reserved for self-issued numbers", issuerID),
		)
	}
	if number == "" {
		return PreIssued{}, errs.NewValueIsRequiredError("order number")
	}
	if len(number) > maxPreIssuedNumberLength {
		return PreIssued{}, errs.NewValueIsOutOfRangeError("order number length", len(number), 1, maxPreIssuedNumberLength)
	}
	return PreIssued{issuerID: issuerID, number: number}, nil
}

// NumberFrom resolves a caller-supplied number. An empty issuerID or the
// implicit issuer id yields an External number, anything else a PreIssued one.
func NumberFrom(issuerID, number string) (Number, error) {
	if issuerID == "" || issuerID == ImplicitIssuerID {
		return ParseExternal(number)
	}
	return NewPreIssued(issuerID, number)
}

// MatchNumber dispatches on the variant of n. Both handlers are mandatory.
func MatchNumber[T any](n Number, external func(External) T, preIssued func(PreIssued) T) T {
	switch v := n.(type) {
	case External:
		return external(v)
	case PreIssued:
		return preIssued(v)
	default:
		panic(fmt.Sprintf("order: unknown number variant %T", n))
	}
}

func (External) IssuerID() string { return ImplicitIssuerID }
func (e External) Value() string  { return e.number }
func (e External) String() string { return e.number }
func (External) sealed()          {}

func (p PreIssued) IssuerID() string { return p.issuerID }
func (p PreIssued) Value() string    { return p.number }
func (p PreIssued) String() string   { return p.issuerID + "/" + p.number }
func (PreIssued) sealed()            {}
