package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineTotal(t *testing.T) {
	total, err := LineTotal(LineItem{Description: "Arreglo floral", Quantity: 2, UnitPrice: 100}, PricedLines)
	require.NoError(t, err)
	assert.Equal(t, 200.0, total)

	_, err = LineTotal(LineItem{Description: "x", Quantity: 0, UnitPrice: 100}, PricedLines)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = LineTotal(LineItem{Description: "x", Quantity: 1, UnitPrice: -1}, PricedLines)
	assert.True(t, IsValidation(err))

	_, err = LineTotal(LineItem{Description: "ajuste", Quantity: 1, UnitPrice: 0}, PricedLines)
	assert.True(t, IsValidation(err), "zero price rejected on priced documents")

	total, err = LineTotal(LineItem{Description: "ajuste", Quantity: 1, UnitPrice: 0}, FreeLinesAllowed)
	require.NoError(t, err, "zero price permitted on work order details")
	assert.Equal(t, 0.0, total)

	_, err = LineTotal(LineItem{Quantity: 1, UnitPrice: 10}, PricedLines)
	assert.True(t, IsValidation(err), "empty description rejected")
}

func TestDocumentTotals(t *testing.T) {
	items := []LineItem{
		{Description: "A", Quantity: 2, UnitPrice: 100},
		{Description: "B", Quantity: 1, UnitPrice: 50},
	}

	normalised, totals, err := DocumentTotals(items, PricedLines)
	require.NoError(t, err)
	assert.Equal(t, 250.0, totals.Subtotal)
	assert.InDelta(t, 47.5, totals.Tax, 1e-9)
	assert.InDelta(t, 297.5, totals.Total, 1e-9)
	assert.InDelta(t, totals.Subtotal*1.19, totals.Total, 1e-9)

	require.Len(t, normalised, 2)
	assert.Equal(t, 200.0, normalised[0].LineTotal)
	assert.Equal(t, 1, normalised[0].LineOrder)
	assert.Equal(t, 2, normalised[1].LineOrder)

	// Input slice stays untouched.
	assert.Equal(t, 0.0, items[0].LineTotal)
}

func TestDocumentTotalsSpecScenario(t *testing.T) {
	_, totals, err := DocumentTotals([]LineItem{{Description: "A", Quantity: 2, UnitPrice: 100}}, PricedLines)
	require.NoError(t, err)
	assert.Equal(t, 200.0, totals.Subtotal)
	assert.InDelta(t, 38.0, totals.Tax, 1e-9)
	assert.InDelta(t, 238.0, totals.Total, 1e-9)
}

func TestDocumentTotalsEmpty(t *testing.T) {
	_, _, err := DocumentTotals(nil, PricedLines)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestCloneItemsIndependence(t *testing.T) {
	items := []LineItem{{Description: "A", Quantity: 1, UnitPrice: 10}}
	cloned := CloneItems(items)
	cloned[0].UnitPrice = 999
	assert.Equal(t, 10.0, items[0].UnitPrice)
	assert.Nil(t, CloneItems(nil))
}
