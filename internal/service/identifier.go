package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
)

const maxIdentifierAttempts = 5

// errIdentifierExhausted is returned when every generated candidate was taken.
var errIdentifierExhausted = errors.New("could not allocate a unique identifier")

// identifierFormat describes a year scoped random identifier such as
// UU202400042 or FAC20240042.
type identifierFormat struct {
	prefix string
	digits int
	space  int
}

var (
	enrollmentNumberFormat = identifierFormat{prefix: "UU", digits: 5, space: 100000}
	employeeIDFormat       = identifierFormat{prefix: "FAC", digits: 4, space: 10000}
)

func (f identifierFormat) format(year, n int) string {
	return fmt.Sprintf("%s%d%0*d", f.prefix, year, f.digits, n)
}

// randomIntN returns a value in [0, n).
type randomIntN func(n int) int

func defaultRandom(n int) int { return rand.IntN(n) }

// allocateIdentifier draws candidates until exists reports one as free.
func allocateIdentifier(ctx context.Context, f identifierFormat, year int, random randomIntN, exists func(context.Context, string) (bool, error)) (string, error) {
	if random == nil {
		random = defaultRandom
	}
	for attempt := 0; attempt < maxIdentifierAttempts; attempt++ {
		candidate := f.format(year, random(f.space))
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", errIdentifierExhausted
}
