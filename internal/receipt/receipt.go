package receipt

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	headerName    = "Restaurant Name"
	headerAddress = "123 Main Street"
	headerPhone   = "Phone: (123) 456-7890"

	fallbackOrderID = "Not Available"
)

// Item is one printable receipt line.
type Item struct {
	Name      string
	Quantity  int
	UnitPrice float64
}

func (i Item) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Info is the order-level data on a receipt. Offline placeholder orders lack
// a server-assigned id and historical orders lack some fields, so every
// field has a fallback.
type Info struct {
	OrderID   string
	Reference string
	Status    string
	Date      time.Time
	Total     float64
}

// Document is the print-ready receipt content. Rendering stops here; handing
// it to a printer is the Sink's job.
type Document struct {
	Header    []string
	OrderID   string
	Reference string
	Status    string
	Date      string
	Items     []Item
	Total     float64
	Footer    []string
}

// Sink receives a rendered document for printing.
type Sink interface {
	Print(doc Document) error
}

// Render maps an order and its lines to a printable document. It is a pure
// function and behaves identically for fresh, offline-placeholder and
// historical orders.
func Render(info Info, items []Item) Document {
	orderID := info.OrderID
	if orderID == "" {
		orderID = fallbackOrderID
	}

	status := info.Status
	if status == "" {
		status = "Pending"
	}

	date := fallbackOrderID
	if !info.Date.IsZero() {
		date = info.Date.Format("02 Jan 2006 15:04")
	}

	doc := Document{
		Header:    []string{headerName, headerAddress, headerPhone},
		OrderID:   orderID,
		Reference: info.Reference,
		Status:    status,
		Date:      date,
		Items:     append([]Item(nil), items...),
		Total:     info.Total,
		Footer: []string{
			"Thank you for your order!",
			"Note: This is a computer generated receipt.",
		},
	}
	return doc
}

// FormatAmount renders whole amounts without decimals and fractional amounts
// with exactly two. The asymmetry is deliberate and matches printed receipts
// in the field.
func FormatAmount(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Text lays the document out as printable plain text.
func (d Document) Text() string {
	var b strings.Builder

	for _, line := range d.Header {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat("-", 40))
	b.WriteByte('\n')

	fmt.Fprintf(&b, "Order #: %s\n", d.OrderID)
	if d.Reference != "" {
		fmt.Fprintf(&b, "Reference: %s\n", d.Reference)
	}
	fmt.Fprintf(&b, "Date: %s\n", d.Date)
	fmt.Fprintf(&b, "Status: %s\n", d.Status)
	b.WriteString(strings.Repeat("-", 40))
	b.WriteByte('\n')

	fmt.Fprintf(&b, "%-20s %3s %7s %8s\n", "Item Name", "Qty", "Price", "Total")
	for _, item := range d.Items {
		fmt.Fprintf(&b, "%-20s %3d %7s %8s\n",
			item.Name, item.Quantity, "Rs "+FormatAmount(item.UnitPrice), "Rs "+FormatAmount(item.LineTotal()))
	}
	b.WriteString(strings.Repeat("-", 40))
	b.WriteByte('\n')

	fmt.Fprintf(&b, "%-24s %15s\n", "Total", "Rs "+FormatAmount(d.Total))
	b.WriteByte('\n')

	for _, line := range d.Footer {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriterSink prints documents to an io.Writer, which is all a terminal needs.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Print(doc Document) error {
	_, err := io.WriteString(s.W, doc.Text())
	return err
}
