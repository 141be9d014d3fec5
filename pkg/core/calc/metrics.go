package calc

import (
	"github.com/rotisserie/eris"

	"sec_extractor/pkg/core/facts"
)

// DefaultMetrics returns the built-in metrics in evaluation order.
func DefaultMetrics() []Metric {
	return []Metric{
		{Name: "price", Eval: func(e *Env) (facts.Value, error) {
			return e.Price()
		}},
		{Name: "market_capitalization", Eval: marketCapitalization},
		{Name: "eps_computed", Eval: func(e *Env) (facts.Value, error) {
			return e.Ratio("net_income", "number_of_shares")
		}},

		// Leverage
		{Name: "total_debt", Eval: func(e *Env) (facts.Value, error) {
			return e.Sum("lines_of_credit_current", "long_term_debt_current", "long_term_debt")
		}},
		{Name: "net_debt", Eval: func(e *Env) (facts.Value, error) {
			return e.Diff("total_debt", "cash_and_cash_equivalents")
		}},
		{Name: "enterprise_value", Eval: enterpriseValue},
		{Name: "debt_to_equity", Eval: func(e *Env) (facts.Value, error) {
			return e.Ratio("total_liabilities", "total_stockholders_equity")
		}},
		// Current assets over current liabilities, despite the name.
		{Name: "debt_to_assets", Eval: func(e *Env) (facts.Value, error) {
			return e.Ratio("total_current_assets", "total_current_liabilities")
		}},
		{Name: "equity_multiplier", Eval: func(e *Env) (facts.Value, error) {
			return e.Ratio("total_assets", "total_stockholders_equity")
		}},

		// Profitability
		{Name: "net_profit_margin", Eval: func(e *Env) (facts.Value, error) {
			return e.Ratio("net_income", "revenue")
		}},
		{Name: "gross_margin", Eval: grossMargin},
		{Name: "price_to_earnings", Eval: priceToEarnings},

		// Working capital
		{Name: "working_capital", Eval: func(e *Env) (facts.Value, error) {
			return e.Diff("total_current_assets", "total_current_liabilities")
		}},
		{Name: "working_capital_pre", Eval: func(e *Env) (facts.Value, error) {
			return e.Diff("total_current_assets_pre", "total_current_liabilities_pre")
		}},
		{Name: "change_in_working_capital", Eval: func(e *Env) (facts.Value, error) {
			return e.Diff("working_capital", "working_capital_pre")
		}},
		{Name: "net_current_asset_value", Eval: netCurrentAssetValue},
		{Name: "non_operating_net_income_ratio", Eval: nonOperatingRatio},

		// Cash flow
		{Name: "ebitda", Eval: func(e *Env) (facts.Value, error) {
			return e.Sum("depreciation_and_amortization", "interest_expense", "income_tax_expense", "net_income")
		}},
		{Name: "capital_expenditure", Eval: capitalExpenditure},
		{Name: "free_cash_flow", Eval: freeCashFlow},
		{Name: "free_cash_flow_alt", Eval: freeCashFlowAlt},
	}
}

// market_capitalization = price * shares, rounded half-to-even to an integer.
func marketCapitalization(e *Env) (facts.Value, error) {
	price, err := e.Price()
	if err != nil {
		return facts.Null(), err
	}
	shares, err := e.Num("number_of_shares")
	if err != nil {
		return facts.Null(), err
	}
	v := price.Mul(shares).RoundEven()
	if v.IsNull() {
		return v, eris.Wrap(ErrInvalidOperand, "market capitalization out of range")
	}
	return v, nil
}

func enterpriseValue(e *Env) (facts.Value, error) {
	v, err := e.Nums("market_capitalization", "total_debt", "cash_and_cash_equivalents")
	if err != nil {
		return facts.Null(), err
	}
	return v[0].Add(v[1]).Sub(v[2]), nil
}

func grossMargin(e *Env) (facts.Value, error) {
	v, err := e.Nums("revenue", "cost_of_goods_sold")
	if err != nil {
		return facts.Null(), err
	}
	return quo(v[0].Sub(v[1]), v[0], "revenue")
}

func priceToEarnings(e *Env) (facts.Value, error) {
	price, err := e.Price()
	if err != nil {
		return facts.Null(), err
	}
	eps, err := e.Num("eps")
	if err != nil {
		return facts.Null(), err
	}
	return quo(price, eps, "eps")
}

// net_current_asset_value = current assets - (liabilities + preferred) / shares
func netCurrentAssetValue(e *Env) (facts.Value, error) {
	v, err := e.Nums("total_current_assets", "total_liabilities", "preferred_stock_value", "number_of_shares")
	if err != nil {
		return facts.Null(), err
	}
	perShare, err := quo(v[1].Add(v[2]), v[3], "number_of_shares")
	if err != nil {
		return facts.Null(), err
	}
	return v[0].Sub(perShare), nil
}

// Only the positive part of non-operating income counts.
func nonOperatingRatio(e *Env) (facts.Value, error) {
	v, err := e.Nums("non_operating_net_income", "net_income")
	if err != nil {
		return facts.Null(), err
	}
	nonOp := v[0]
	if nonOp.Sign() < 0 {
		nonOp = facts.Int(0)
	}
	return quo(nonOp, v[1], "net_income")
}

// capital_expenditure = change in net PP&E plus depreciation.
func capitalExpenditure(e *Env) (facts.Value, error) {
	v, err := e.Nums("property_plant_equipment_net", "property_plant_equipment_net_prior", "depreciation_and_amortization")
	if err != nil {
		return facts.Null(), err
	}
	return v[0].Sub(v[1]).Add(v[2]), nil
}

// free_cash_flow = operating cash flow - |capex| - dividends paid.
func freeCashFlow(e *Env) (facts.Value, error) {
	v, err := e.Nums("operating_cash_flow_net", "capital_expenditure", "dividends_paid")
	if err != nil {
		return facts.Null(), err
	}
	if v[2].Sign() < 0 {
		return facts.Null(), eris.Wrap(ErrInvalidOperand, "dividends_paid is negative")
	}
	return v[0].Sub(v[1].Abs()).Sub(v[2]), nil
}

// free_cash_flow_alt = net income + D&A - change in working capital - capex.
func freeCashFlowAlt(e *Env) (facts.Value, error) {
	v, err := e.Nums("net_income", "depreciation_and_amortization", "change_in_working_capital", "capital_expenditure")
	if err != nil {
		return facts.Null(), err
	}
	return v[0].Add(v[1]).Sub(v[2]).Sub(v[3]), nil
}
