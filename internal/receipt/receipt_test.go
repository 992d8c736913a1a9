package receipt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahid-dev/restopos/internal/receipt"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0"},
		{in: 100, want: "100"},
		{in: 100.5, want: "100.50"},
		{in: 40.25, want: "40.25"},
		{in: 0.1, want: "0.10"},
		{in: 1234, want: "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			// Whole amounts print without decimals, fractional with two.
			assert.Equal(t, tt.want, receipt.FormatAmount(tt.in))
		})
	}
}

func TestRender_Fallbacks(t *testing.T) {
	doc := receipt.Render(receipt.Info{}, nil)

	assert.Equal(t, "Not Available", doc.OrderID)
	assert.Equal(t, "Pending", doc.Status)
	assert.Equal(t, "Not Available", doc.Date)
	assert.Zero(t, doc.Total)
}

func TestRender_PopulatedOrder(t *testing.T) {
	date := time.Date(2026, 8, 30, 19, 45, 0, 0, time.UTC)
	doc := receipt.Render(receipt.Info{
		OrderID: "ORD-42",
		Status:  "Ready",
		Date:    date,
		Total:   281,
	}, []receipt.Item{
		{Name: "Chicken Karahi", Quantity: 2, UnitPrice: 100},
		{Name: "Seekh Kebab", Quantity: 2, UnitPrice: 40.5},
	})

	assert.Equal(t, "ORD-42", doc.OrderID)
	assert.Equal(t, "30 Aug 2026 19:45", doc.Date)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, 81.0, doc.Items[1].LineTotal())
}

func TestDocument_Text(t *testing.T) {
	doc := receipt.Render(receipt.Info{
		OrderID: "ORD-42",
		Status:  "Pending",
		Date:    time.Date(2026, 8, 30, 19, 45, 0, 0, time.UTC),
		Total:   240.5,
	}, []receipt.Item{
		{Name: "Chicken Karahi", Quantity: 2, UnitPrice: 100},
		{Name: "Seekh Kebab", Quantity: 1, UnitPrice: 40.5},
	})

	text := doc.Text()

	assert.Contains(t, text, "Restaurant Name")
	assert.Contains(t, text, "Order #: ORD-42")
	assert.Contains(t, text, "Chicken Karahi")
	assert.Contains(t, text, "Rs 200")
	assert.Contains(t, text, "Rs 40.50")
	assert.Contains(t, text, "Rs 240.50")
	assert.Contains(t, text, "Thank you for your order!")
	assert.Contains(t, text, "computer generated receipt")
}

func TestWriterSink(t *testing.T) {
	doc := receipt.Render(receipt.Info{OrderID: "ORD-1", Total: 10}, nil)

	var buf strings.Builder
	sink := receipt.WriterSink{W: &buf}
	require.NoError(t, sink.Print(doc))

	assert.Equal(t, doc.Text(), buf.String())
}

func TestRender_IdenticalForPlaceholderAndHistorical(t *testing.T) {
	// The renderer has no notion of where the order came from: same info in,
	// same document out.
	info := receipt.Info{OrderID: "offline-123", Status: "Pending (Offline)", Total: 100}
	items := []receipt.Item{{Name: "Fries", Quantity: 2, UnitPrice: 50}}

	assert.Equal(t, receipt.Render(info, items), receipt.Render(info, items))
}
