package invoices

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/deals"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/quotations"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func sampleDeal() deals.Deal {
	return deals.Deal{
		ID:             3,
		Code:           "NEG-000003",
		QuotationID:    11,
		QuotationTotal: 238,
		ClientID:       7,
		ClientName:     "Comercial Andina",
		Advance:        100,
		Status:         deals.StatusFinalized,
	}
}

func sampleQuotation() quotations.Quotation {
	return quotations.Quotation{
		ID:     11,
		Code:   "COT-000011",
		Status: quotations.StatusApproved,
		Items: []shared.LineItem{
			{ID: 41, Description: "A", Quantity: 2, UnitPrice: 100, LineTotal: 200, LineOrder: 1},
		},
	}
}

func deriveInput() DeriveInput {
	return DeriveInput{
		DueDate:       testNow.AddDate(0, 1, 0),
		PaymentMethod: "TRANSFERENCIA",
		Lines: []Line{
			{Description: "Servicio", Quantity: 1, UnitPrice: 500},
		},
	}
}

func TestDeriveWithExplicitLines(t *testing.T) {
	inv, err := Derive(sampleDeal(), nil, deriveInput(), testNow)
	require.NoError(t, err)

	assert.Equal(t, StatusInReview, inv.Status)
	assert.Equal(t, "NEG-000003", inv.DealCode)
	assert.Nil(t, inv.QuotationID)
	assert.Equal(t, 500.0, inv.Subtotal)
	assert.InDelta(t, 595.0, inv.Total, 1e-9)
	assert.Equal(t, 100.0, inv.Advance)
	assert.InDelta(t, 495.0, inv.AmountDue(), 1e-9)
}

func TestDeriveSeedsLinesFromQuotation(t *testing.T) {
	q := sampleQuotation()
	in := deriveInput()
	in.Lines = nil

	inv, err := Derive(sampleDeal(), &q, in, testNow)
	require.NoError(t, err)

	require.NotNil(t, inv.QuotationID)
	assert.Equal(t, q.ID, *inv.QuotationID)
	require.Len(t, inv.Lines, 1)
	require.NotNil(t, inv.Lines[0].SourceItemID)
	assert.Equal(t, int64(41), *inv.Lines[0].SourceItemID)
	assert.Equal(t, 200.0, inv.Lines[0].LineTotal)
	assert.Equal(t, 238.0, inv.Total)
}

func TestDeriveExplicitLinesWinOverSeed(t *testing.T) {
	q := sampleQuotation()
	inv, err := Derive(sampleDeal(), &q, deriveInput(), testNow)
	require.NoError(t, err)

	require.Len(t, inv.Lines, 1)
	assert.Nil(t, inv.Lines[0].SourceItemID)
	assert.Equal(t, 500.0, inv.Subtotal)
}

func TestDeriveValidation(t *testing.T) {
	in := deriveInput()
	in.Lines = nil
	_, err := Derive(sampleDeal(), nil, in, testNow)
	assert.True(t, shared.IsValidation(err), "got %v", err)

	in = deriveInput()
	in.DueDate = time.Time{}
	_, err = Derive(sampleDeal(), nil, in, testNow)
	assert.True(t, shared.IsValidation(err), "got %v", err)

	in = deriveInput()
	in.PaymentMethod = ""
	_, err = Derive(sampleDeal(), nil, in, testNow)
	assert.True(t, shared.IsValidation(err), "got %v", err)
}

func TestDeriveRejectsCancelledDeal(t *testing.T) {
	d := sampleDeal()
	d.Status = deals.StatusCancelled
	_, err := Derive(d, nil, deriveInput(), testNow)
	assert.True(t, shared.IsPrecondition(err), "got %v", err)

	// A deal still under review can be invoiced.
	d.Status = deals.StatusInReview
	_, err = Derive(d, nil, deriveInput(), testNow)
	assert.NoError(t, err)
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from   Status
		to     Status
		wantOK bool
	}{
		{StatusInReview, StatusSent, true},
		{StatusInReview, StatusVoided, true},
		{StatusInReview, StatusPaid, false},
		{StatusSent, StatusPaid, true},
		{StatusSent, StatusVoided, true},
		{StatusSent, StatusInReview, false},
		{StatusPaid, StatusVoided, false},
		{StatusVoided, StatusSent, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			inv, err := Derive(sampleDeal(), nil, deriveInput(), testNow)
			require.NoError(t, err)
			inv.Status = tc.from

			next, err := inv.TransitionTo(tc.to, testNow)
			if tc.wantOK {
				require.NoError(t, err)
				assert.Equal(t, tc.to, next.Status)
			} else {
				assert.True(t, shared.IsInvalidTransition(err), "got %v", err)
			}
		})
	}
}

func TestPaidRequiresSentFirst(t *testing.T) {
	inv, err := Derive(sampleDeal(), nil, deriveInput(), testNow)
	require.NoError(t, err)

	_, err = inv.TransitionTo(StatusPaid, testNow)
	assert.True(t, shared.IsInvalidTransition(err), "got %v", err)

	sent, err := inv.TransitionTo(StatusSent, testNow)
	require.NoError(t, err)
	paid, err := sent.TransitionTo(StatusPaid, testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
}

func TestApplyOnlyInReview(t *testing.T) {
	inv, err := Derive(sampleDeal(), nil, deriveInput(), testNow)
	require.NoError(t, err)

	lines := []Line{{Description: "Otro servicio", Quantity: 2, UnitPrice: 100}}
	next, err := inv.Apply(Patch{Lines: &lines}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 200.0, next.Subtotal)
	assert.Equal(t, 500.0, inv.Subtotal)

	inv.Status = StatusSent
	_, err = inv.Apply(Patch{Lines: &lines}, testNow)
	assert.True(t, shared.IsInvalidState(err), "got %v", err)
}

func TestInvoiceJSONRoundTrip(t *testing.T) {
	quotationID := int64(11)
	sourceItem := int64(41)
	reference := "TRX-9912"
	notes := "pago a 30 dias"
	original := Invoice{
		ID:               8,
		Code:             "FAC-000008",
		DealID:           3,
		DealCode:         "NEG-000003",
		QuotationID:      &quotationID,
		ClientID:         7,
		ClientName:       "Constructora Andina",
		DueDate:          testNow.AddDate(0, 1, 0),
		PaymentMethod:    "TRANSFERENCIA",
		PaymentReference: &reference,
		Notes:            &notes,
		Lines: []Line{
			{ID: 71, SourceItemID: &sourceItem, Description: "A", Quantity: 2, UnitPrice: 100, LineTotal: 200, LineOrder: 1},
			{ID: 72, Description: "Ajuste", Quantity: 1, UnitPrice: 38, LineTotal: 38, LineOrder: 2},
		},
		Status:    StatusSent,
		Subtotal:  238,
		Tax:       45.22,
		Total:     283.22,
		Advance:   0.5,
		Version:   2,
		CreatedAt: testNow,
		UpdatedAt: testNow.Add(time.Hour),
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Invoice
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, original, decoded)
}
