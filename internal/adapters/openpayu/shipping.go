package openpayu

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const opShippingCostRetrieveResponse = "ShippingCostRetrieveResponse"

// ShippingCost is one shipping option offered in reply to a
// ShippingCostRetrieveRequest. Amounts are in major units (e.g. 12.99 PLN).
type ShippingCost struct {
	Type     string
	Gross    decimal.Decimal
	Net      decimal.Decimal
	Tax      decimal.Decimal
	TaxRate  decimal.Decimal
	Currency string
}

// MinorUnits converts a major unit amount to minor units, rounding half away from zero.
// 12.345 -> 1235
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// BuildShippingCostRetrieveResponse builds the reply document for a shipping
// cost query. The caller delivers it to the provider.
func BuildShippingCostRetrieveResponse(reqID, countryCode string, costs []ShippingCost) ([]byte, error) {
	if reqID == "" {
		return nil, fmt.Errorf("request id is required")
	}
	if countryCode == "" {
		return nil, fmt.Errorf("country code is required")
	}

	list := make([]Fields, 0, len(costs))
	for i, cost := range costs {
		if cost.Type == "" {
			return nil, fmt.Errorf("shipping cost %d: type is required", i)
		}
		if cost.Currency == "" {
			return nil, fmt.Errorf("shipping cost %d: currency is required", i)
		}
		if cost.Gross.IsNegative() {
			return nil, fmt.Errorf("shipping cost %d: gross amount is negative", i)
		}

		list = append(list, Fields{
			{Key: "Type", Value: cost.Type},
			{Key: "CountryCode", Value: countryCode},
			{Key: "Price", Value: Fields{
				{Key: "Gross", Value: MinorUnits(cost.Gross)},
				{Key: "Net", Value: MinorUnits(cost.Net)},
				{Key: "Tax", Value: MinorUnits(cost.Tax)},
				{Key: "TaxRate", Value: cost.TaxRate.String()},
				{Key: "CurrencyCode", Value: cost.Currency},
			}},
		})
	}

	return BuildResponseDocument(opShippingCostRetrieveResponse, Fields{
		{Key: "ResId", Value: reqID},
		{Key: "Status", Value: Fields{
			{Key: "StatusCode", Value: StatusSuccess},
		}},
		{Key: "AvailableShippingCost", Value: Fields{
			{Key: "CountryCode", Value: countryCode},
			{Key: "ShipToOtherCountry", Value: "true"},
			{Key: "ShippingCostList", Value: Fields{
				{Key: "ShippingCost", Value: list},
			}},
		}},
	})
}
