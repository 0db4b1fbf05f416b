// Package lookup answers point-in-time questions over price history.
package lookup

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"zilswap-dashboard/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoPriceData = errors.New("no price data available")
	ErrZeroBase    = errors.New("base price is zero")
)

var hundred = decimal.NewFromInt(100)

// PriceAt returns the price at or before target. Points must be ordered by
// timestamp ascending. If every point is after target, the first is used.
func PriceAt(target int64, points []*domain.PricePoint) (decimal.Decimal, error) {
	if len(points) == 0 {
		return decimal.Zero, ErrNoPriceData
	}

	// First index strictly after target
	i := sort.Search(len(points), func(i int) bool { return points[i].TimestampMs > target })
	if i == 0 {
		return points[0].Price, nil
	}
	return points[i-1].Price, nil
}

// Change is the movement of a price over a window.
type Change struct {
	From    decimal.Decimal
	To      decimal.Decimal
	Percent decimal.Decimal
}

// ChangeOver returns the change from the price at start to the latest point.
func ChangeOver(start int64, points []*domain.PricePoint) (Change, error) {
	from, err := PriceAt(start, points)
	if err != nil {
		return Change{}, err
	}
	to := points[len(points)-1].Price
	if from.IsZero() {
		return Change{}, ErrZeroBase
	}
	return Change{
		From:    from,
		To:      to,
		Percent: to.Sub(from).Div(from).Mul(hundred),
	}, nil
}
