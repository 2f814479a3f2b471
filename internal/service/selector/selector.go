package selector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jgivc/coursefetch/internal/common"
)

const (
	TokenStart   = "start"
	TokenEnd     = "end"
	TokenAll     = "all"
	TokenOnwards = "onwards"

	tokenSeparator = ":"
)

// Spec is a pair of endpoint tokens. Endpoints are resolved against a collection
// only at selection time, so "end" always means the length of the collection at hand.
type Spec struct {
	Low  string
	High string
}

// All selects the whole collection.
var All = Spec{Low: TokenStart, High: TokenEnd}

// NewSpec builds a Spec from one or two tokens.
//
// With single set, one numeric token selects exactly that item. With onwards set,
// one numeric token is the start and the end is implicitly "end"; two tokens are
// rejected. With neither flag, two tokens are taken as given and one token must be
// a shorthand ("all", "onwards", "start", "end").
func NewSpec(tokens []string, single, onwards bool) (Spec, error) {
	if single && onwards {
		return Spec{}, fmt.Errorf("single and onwards modes are exclusive")
	}

	for i := range tokens {
		tokens[i] = strings.ToLower(strings.TrimSpace(tokens[i]))
		if err := checkToken(tokens[i]); err != nil {
			return Spec{}, err
		}
	}

	switch len(tokens) {
	case 1:
		token := tokens[0]
		if token == TokenAll || token == TokenOnwards {
			return All, nil
		}

		switch {
		case single:
			return Spec{Low: token, High: token}, nil
		case onwards:
			return Spec{Low: token, High: TokenEnd}, nil
		case token == TokenStart:
			return Spec{Low: TokenStart, High: TokenStart}, nil
		case token == TokenEnd:
			return Spec{Low: TokenEnd, High: TokenEnd}, nil
		}

		return Spec{}, fmt.Errorf("token %q needs a single or onwards mode", token)
	case 2:
		if onwards {
			return Spec{}, fmt.Errorf("onwards mode accepts one token, got %d", len(tokens))
		}

		if tokens[0] == TokenAll || tokens[0] == TokenOnwards || tokens[1] == TokenAll || tokens[1] == TokenOnwards {
			return Spec{}, fmt.Errorf("shorthand tokens cannot be range endpoints")
		}

		if single && tokens[0] != tokens[1] {
			return Spec{}, fmt.Errorf("single mode needs equal endpoints, got %s and %s", tokens[0], tokens[1])
		}

		return Spec{Low: tokens[0], High: tokens[1]}, nil
	}

	return Spec{}, fmt.Errorf("range needs one or two tokens, got %d", len(tokens))
}

// Parse parses "N", "start", "all", "LOW:HIGH" and friends.
func Parse(value string, single, onwards bool) (Spec, error) {
	return NewSpec(strings.Split(value, tokenSeparator), single, onwards)
}

func (s Spec) String() string {
	return s.Low + tokenSeparator + s.High
}

// IsAll reports whether the spec covers any collection completely.
func (s Spec) IsAll() bool {
	return s.Low == TokenStart && s.High == TokenEnd
}

// Resolve returns the 0-based inclusive bounds the spec selects in a collection of
// the given length. Bounds outside the collection are a common.ErrRange.
func Resolve(spec Spec, length int) (int, int, error) {
	start, err := resolveToken(spec.Low, length)
	if err != nil {
		return 0, 0, err
	}

	end, err := resolveToken(spec.High, length)
	if err != nil {
		return 0, 0, err
	}

	if start < 0 || start > end || end >= length {
		return 0, 0, fmt.Errorf("%w: range %s in %d items", common.ErrRange, spec, length)
	}

	return start, end, nil
}

// Select returns the sub-slice chosen by spec, in original order.
func Select[T any](spec Spec, items []T) ([]T, error) {
	start, end, err := Resolve(spec, len(items))
	if err != nil {
		return nil, err
	}

	return items[start : end+1], nil
}

func resolveToken(token string, length int) (int, error) {
	switch token {
	case TokenStart:
		return 0, nil
	case TokenEnd:
		return length - 1, nil
	}

	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: bad token %q", common.ErrRange, token)
	}

	return n - 1, nil
}

func checkToken(token string) error {
	switch token {
	case TokenStart, TokenEnd, TokenAll, TokenOnwards:
		return nil
	}

	n, err := strconv.Atoi(token)
	if err != nil {
		return fmt.Errorf("invalid range token %q", token)
	}

	if n <= 0 {
		return fmt.Errorf("invalid range token %d: values less than 1 are not allowed", n)
	}

	return nil
}
