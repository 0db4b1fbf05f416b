// Package currencylist builds the currency picker view model: which tokens
// are listed, what each row shows, and the select/toggle actions.
package currencylist

import (
	"errors"
	"fmt"
	"strings"

	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/format"
	"zilswap-dashboard/internal/resolver"
	"zilswap-dashboard/internal/state"
)

var (
	// ErrIndexOutOfRange is returned when an action targets a row that does not exist.
	ErrIndexOutOfRange = errors.New("row index out of range")
	// ErrRegisteredToken is returned when toggling a registry token, which has no Add/Remove action.
	ErrRegisteredToken = errors.New("registered tokens cannot be toggled")
)

const (
	LabelAdd    = "Add"
	LabelRemove = "Remove"
)

// contributionFractionDigits caps pool contribution amounts.
const contributionFractionDigits = 5

// Props are the inputs of a list.
type Props struct {
	Tokens           []domain.Token // already filtered, in display order
	Search           string
	ShowContribution bool
	EmptyStateLabel  string
	UserTokens       []string

	OnSelectCurrency  func(domain.Token)
	OnToggleUserToken func(domain.Token)
}

// Row is the derived content of one list entry.
type Row struct {
	Index          int
	Token          domain.Token
	Symbol         string
	Name           string
	LogoCurrency   string // symbol for registry tokens, empty otherwise
	LogoAddress    string
	BalanceText    string // empty without a wallet
	PercentageText string // empty unless ShowContribution
	ToggleLabel    string // Add/Remove for unregistered tokens, empty otherwise
}

// View is the whole derived list.
type View struct {
	EmptyState string
	Rows       []Row
}

// List binds props to a formatter.
type List struct {
	props     Props
	formatter *format.MoneyFormatter
}

// New creates a list. A nil formatter uses the default money formatter.
func New(props Props, formatter *format.MoneyFormatter) *List {
	if formatter == nil {
		formatter = format.NewMoneyFormatter()
	}
	return &List{props: props, formatter: formatter}
}

// Build derives the view from a state snapshot. The snapshot is only read.
func (l *List) Build(snap state.Snapshot) View {
	var v View

	if snap.Token.Initialized && l.props.Search != "" && len(l.props.Tokens) == 0 {
		v.EmptyState = l.props.EmptyStateLabel
		if v.EmptyState == "" {
			v.EmptyState = fmt.Sprintf("No token found for \"%s\"", l.props.Search)
		}
	}

	v.Rows = make([]Row, 0, len(l.props.Tokens))
	for i, tok := range l.props.Tokens {
		v.Rows = append(v.Rows, l.row(i, tok, snap))
	}
	return v
}

func (l *List) row(i int, tok domain.Token, snap state.Snapshot) Row {
	display := resolver.ResolveDisplay(tok, snap.Wallet, snap.Bridge, l.props.ShowContribution)
	symbol := format.FormatSymbol(tok)

	r := Row{
		Index:       i,
		Token:       tok,
		Symbol:      symbol,
		Name:        tok.Name,
		LogoAddress: display.LogoAddress,
	}
	if tok.Registered {
		r.LogoCurrency = tok.Symbol
	} else {
		r.ToggleLabel = LabelAdd
		if l.isUserToken(tok.Address) {
			r.ToggleLabel = LabelRemove
		}
	}

	if snap.Wallet.Connected() {
		digits := tok.Decimals
		if l.props.ShowContribution {
			digits = contributionFractionDigits
		}
		r.BalanceText = l.formatter.Format(display.Balance,
			format.WithSymbol(symbol),
			format.WithMaxFractionDigits(digits),
			format.WithCompression(tok.Decimals),
			format.WithCurrency(true),
		)
	}
	if l.props.ShowContribution {
		r.PercentageText = l.formatter.Percent(display.ContributionPercentage)
	}
	return r
}

func (l *List) isUserToken(address string) bool {
	for _, a := range l.props.UserTokens {
		if a == address {
			return true
		}
	}
	return false
}

// Select invokes OnSelectCurrency for row i.
func (l *List) Select(i int) error {
	if i < 0 || i >= len(l.props.Tokens) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	if l.props.OnSelectCurrency != nil {
		l.props.OnSelectCurrency(l.props.Tokens[i])
	}
	return nil
}

// ToggleUserToken invokes OnToggleUserToken for row i.
func (l *List) ToggleUserToken(i int) error {
	if i < 0 || i >= len(l.props.Tokens) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	tok := l.props.Tokens[i]
	if tok.Registered {
		return ErrRegisteredToken
	}
	if l.props.OnToggleUserToken != nil {
		l.props.OnToggleUserToken(tok)
	}
	return nil
}

// Filter returns tokens whose symbol, name or address contains search,
// case-insensitively. An empty search returns all tokens.
func Filter(tokens []domain.Token, search string) []domain.Token {
	q := strings.ToLower(strings.TrimSpace(search))
	out := make([]domain.Token, 0, len(tokens))
	for _, t := range tokens {
		if q == "" ||
			strings.Contains(strings.ToLower(t.Symbol), q) ||
			strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Address), q) {
			out = append(out, t)
		}
	}
	return out
}

// IndexOf returns the row index of the token with the given address, or -1.
func IndexOf(tokens []domain.Token, address string) int {
	want := resolver.NormalizeAddress(address)
	for i, t := range tokens {
		if resolver.NormalizeAddress(t.Address) == want {
			return i
		}
	}
	return -1
}
