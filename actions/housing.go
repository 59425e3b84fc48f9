/*
housing.go - Rent, purchase and sale factories

PURPOSE:
  The housing factories cover the rent-vs-buy comparisons the simulator
  exists for. Partial first periods are prorated by calendar days:

    prorated = full_amount * remaining_days / days_in_month

  The buy_house factory wires the classic mortgage loop: a debt account
  goes negative on disbursement, a guarded interest action charges
  balance*rate/12 while debt is owed, and the principal action pays
  whatever of the fixed monthly payment the interest did not consume -
  coupled through the interest action's LastAmount, which is why the two
  must share an execution instant with interest first (insertion order).
*/
package actions

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/warp/finsim/engine"
)

var (
	monthsPerYear = decimal.NewFromInt(12)
	daysPerYear   = decimal.NewFromInt(365)
)

func days(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

// =============================================================================
// RENT
// =============================================================================

// RentParams configures rent payments from a renter to an owner,
// including the prorated first month.
type RentParams struct {
	RenterAccountName string       `json:"renter_account_name"`
	OwnerAccountName  string       `json:"owner_account_name"`
	MonthlyRent       engine.Value `json:"monthly_rent"`
	MoveInDate        string       `json:"move_in_date"`
	MoveOutDate       string       `json:"move_out_date"`
}

func Rent(sim *engine.Sim, kwargs json.RawMessage) error {
	if err := requireKwargs(kwargs,
		"renter_account_name", "owner_account_name", "monthly_rent",
		"move_in_date", "move_out_date",
	); err != nil {
		return err
	}
	var p RentParams
	if err := decodeKwargs(kwargs, &p); err != nil {
		return err
	}

	moveIn, err := engine.ParseDate(p.MoveInDate)
	if err != nil {
		return err
	}
	moveOut, err := engine.ParseDate(p.MoveOutDate)
	if err != nil {
		return err
	}

	renter := sim.GetAccount(p.RenterAccountName)
	owner := sim.GetAccount(p.OwnerAccountName)

	// The prorated first month uses the rent value as of build time.
	rent, err := sim.GetValue(p.MonthlyRent)
	if err != nil {
		return err
	}
	nextMonth := moveIn.NextMonthStart(0)
	remaining := engine.DaysBetween(moveIn, nextMonth)
	prorated := rent.Mul(days(remaining)).Div(days(moveIn.DaysInMonth()))

	sim.AddActions(
		&engine.Action{
			Name:  "first rent",
			Start: moveIn,
			Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
				r := renter.TransferTo(owner, prorated)
				return &r, nil
			},
		},
		&engine.Action{
			Name:        "rent payment",
			Start:       nextMonth,
			End:         moveOut,
			Periodicity: engine.Monthly,
			Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
				amt, err := s.GetValue(p.MonthlyRent)
				if err != nil {
					return nil, err
				}
				r := renter.TransferTo(owner, amt)
				return &r, nil
			},
		},
	)
	return nil
}

// =============================================================================
// BUY HOUSE
// =============================================================================

// BuyHouseParams configures buying, maintaining and appreciating a house.
type BuyHouseParams struct {
	MortgageAccountName string `json:"mortgage_account_name"`
	LenderAccountName   string `json:"lender_account_name"`
	BuyerAccountName    string `json:"buyer_account_name"`
	MarketAccountName   string `json:"market_account_name"`
	HouseValAccountName string `json:"house_val_account_name"`

	LoanRate         engine.Value `json:"loan_rate"`
	AppreciationRate engine.Value `json:"appreciation_rate"`

	HousePrice     engine.Value `json:"house_price"`
	Downpayment    engine.Value `json:"downpayment"`
	BuyClosingCost engine.Value `json:"buy_closing_cost"`
	Mortgage       engine.Value `json:"mortgage"`

	BuyDate string `json:"buy_date"`
	EndDate string `json:"end_date"`
}

func BuyHouse(sim *engine.Sim, kwargs json.RawMessage) error {
	if err := requireKwargs(kwargs,
		"mortgage_account_name", "lender_account_name", "buyer_account_name",
		"market_account_name", "house_val_account_name",
		"loan_rate", "appreciation_rate",
		"house_price", "downpayment", "buy_closing_cost", "mortgage",
		"buy_date", "end_date",
	); err != nil {
		return err
	}
	var p BuyHouseParams
	if err := decodeKwargs(kwargs, &p); err != nil {
		return err
	}

	buy, err := engine.ParseDate(p.BuyDate)
	if err != nil {
		return err
	}
	end, err := engine.ParseDate(p.EndDate)
	if err != nil {
		return err
	}
	for _, v := range []engine.Value{p.LoanRate, p.AppreciationRate, p.HousePrice, p.Downpayment, p.BuyClosingCost, p.Mortgage} {
		if err := sim.CheckValue(v); err != nil {
			return err
		}
	}

	buyer := sim.GetAccount(p.BuyerAccountName)
	house := sim.GetAccount(p.HouseValAccountName)
	debt := sim.GetAccount(p.MortgageAccountName)
	lender := sim.GetAccount(p.LenderAccountName)
	market := sim.GetAccount(p.MarketAccountName)

	// Interest accrued between the purchase and the first month boundary,
	// using values as of build time.
	price, _ := sim.GetValue(p.HousePrice)
	down, _ := sim.GetValue(p.Downpayment)
	rate, _ := sim.GetValue(p.LoanRate)
	nextMonth := buy.NextMonthStart(0)
	untilNext := engine.DaysBetween(buy, nextMonth)
	initialInterest := price.Sub(down).Abs().Mul(rate).Mul(days(untilNext)).Div(daysPerYear)

	// Referenced by the principal action below: principal pays whatever
	// of the monthly payment the interest did not consume.
	interest := &engine.Action{
		Name:        "interest payment",
		Start:       buy.NextMonthStart(1),
		End:         end,
		Periodicity: engine.Monthly,
		Guard:       func(s *engine.Sim) bool { return debt.Balance.IsNegative() },
		Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
			rate, err := s.GetValue(p.LoanRate)
			if err != nil {
				return nil, err
			}
			r := buyer.TransferTo(lender, debt.Balance.Abs().Mul(rate).Div(monthsPerYear))
			return &r, nil
		},
	}

	sim.AddActions(
		&engine.Action{
			Name:  "borrow loan",
			Start: buy,
			Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
				price, err := s.GetValue(p.HousePrice)
				if err != nil {
					return nil, err
				}
				down, err := s.GetValue(p.Downpayment)
				if err != nil {
					return nil, err
				}
				r := debt.TransferTo(buyer, price.Sub(down))
				return &r, nil
			},
		},
		&engine.Action{
			Name:  "buy house",
			Start: buy,
			Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
				price, err := s.GetValue(p.HousePrice)
				if err != nil {
					return nil, err
				}
				r := buyer.TransferTo(house, price)
				return &r, nil
			},
		},
		&engine.Action{
			Name:  "closing cost",
			Start: buy,
			Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
				cost, err := s.GetValue(p.BuyClosingCost)
				if err != nil {
					return nil, err
				}
				r := buyer.TransferTo(lender, cost)
				return &r, nil
			},
		},
		&engine.Action{
			Name:  "initial loan interest",
			Start: nextMonth,
			Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
				r := buyer.TransferTo(lender, initialInterest)
				return &r, nil
			},
		},
		interest,
		&engine.Action{
			Name:        "principal payoff",
			Start:       buy.NextMonthStart(0),
			End:         end,
			Periodicity: engine.Monthly,
			Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
				payment, err := s.GetValue(p.Mortgage)
				if err != nil {
					return nil, err
				}
				amt := decimal.Min(
					decimal.Max(payment.Sub(interest.LastAmount), decimal.Zero),
					debt.Balance.Neg(),
				)
				r := buyer.TransferTo(debt, amt)
				return &r, nil
			},
		},
		&engine.Action{
			Name:        "appreciation",
			Start:       buy.NextMonthStart(0),
			End:         end,
			Periodicity: engine.Monthly,
			Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
				rate, err := s.GetValue(p.AppreciationRate)
				if err != nil {
					return nil, err
				}
				r := market.TransferTo(house, house.Balance.Mul(rate).Div(monthsPerYear))
				return &r, nil
			},
		},
	)
	return nil
}

// =============================================================================
// SELL HOUSE
// =============================================================================

// SellHouseParams configures liquidating a house asset.
type SellHouseParams struct {
	SellerAccountName   string       `json:"seller_account_name"`
	HouseValAccountName string       `json:"house_val_account_name"`
	MarketAccountName   string       `json:"market_account_name"`
	SellClosingCost     engine.Value `json:"sell_closing_cost"`
	SellDate            string       `json:"sell_date"`
}

func SellHouse(sim *engine.Sim, kwargs json.RawMessage) error {
	if err := requireKwargs(kwargs,
		"seller_account_name", "house_val_account_name", "market_account_name",
		"sell_closing_cost", "sell_date",
	); err != nil {
		return err
	}
	var p SellHouseParams
	if err := decodeKwargs(kwargs, &p); err != nil {
		return err
	}

	sellDate, err := engine.ParseDate(p.SellDate)
	if err != nil {
		return err
	}
	if err := sim.CheckValue(p.SellClosingCost); err != nil {
		return err
	}

	seller := sim.GetAccount(p.SellerAccountName)
	house := sim.GetAccount(p.HouseValAccountName)
	market := sim.GetAccount(p.MarketAccountName)

	sim.AddActions(
		&engine.Action{
			Name:  "sell house",
			Start: sellDate,
			Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
				r := house.TransferTo(seller, house.Balance)
				return &r, nil
			},
		},
		&engine.Action{
			Name:  "pay closing cost",
			Start: sellDate,
			Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
				cost, err := s.GetValue(p.SellClosingCost)
				if err != nil {
					return nil, err
				}
				r := seller.TransferTo(market, cost)
				return &r, nil
			},
		},
	)
	return nil
}
