// Package receipt renders plain-text receipts and spools them for a printer daemon.
package receipt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"fastfood/internal/order"
)

const width = 40

// Printer emits a receipt for an order
type Printer interface {
	Print(ctx context.Context, o *order.Response) error
}

// Noop discards receipts
type Noop struct{}

// Print does nothing
func (Noop) Print(context.Context, *order.Response) error { return nil }

// Spool writes one text file per order into a directory watched by the
// printer daemon.
type Spool struct {
	dir    string
	logger *zap.Logger
}

// NewSpool creates the spool directory if needed
func NewSpool(dir string, logger *zap.Logger) (*Spool, error) {
	if dir == "" {
		return nil, fmt.Errorf("receipt spool directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	return &Spool{dir: dir, logger: logger}, nil
}

// Print renders the receipt and writes it atomically as <orderNumber>.txt
func (s *Spool) Print(ctx context.Context, o *order.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := Render(o)
	final := filepath.Join(s.dir, o.OrderNumber+".txt")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to spool receipt: %w", err)
	}

	s.logger.Debug("receipt spooled", zap.String("order_number", o.OrderNumber), zap.String("path", final))
	return nil
}

// Render formats an order as a fixed-width receipt
func Render(o *order.Response) []byte {
	var buf bytes.Buffer
	rule := strings.Repeat("-", width) + "\n"

	fmt.Fprintf(&buf, "%s\n", center("ORDER RECEIPT"))
	fmt.Fprintf(&buf, "Order:   %s\n", o.OrderNumber)
	fmt.Fprintf(&buf, "Date:    %s\n", o.OrderDate.Format("2006-01-02 15:04"))
	fmt.Fprintf(&buf, "Type:    %s\n", o.OrderType)
	if o.TableNumber != "" {
		fmt.Fprintf(&buf, "Table:   %s\n", o.TableNumber)
	}
	if o.CustomerName != "" {
		fmt.Fprintf(&buf, "Customer: %s\n", o.CustomerName)
	}
	if o.DeliveryAddress != "" {
		fmt.Fprintf(&buf, "Deliver: %s\n", o.DeliveryAddress)
	}
	buf.WriteString(rule)

	tw := tabwriter.NewWriter(&buf, 0, 0, 1, ' ', tabwriter.AlignRight)
	for _, it := range o.Items {
		name := it.ItemNameEn
		if it.SizeCode != "" {
			name += " (" + it.SizeCode + ")"
		}
		fmt.Fprintf(tw, "%dx %s\t%s\t\n", it.Quantity, name, it.TotalPrice.StringFixed(2))
	}
	tw.Flush()
	buf.WriteString(rule)

	tw = tabwriter.NewWriter(&buf, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Subtotal\t%s\t\n", o.Subtotal.StringFixed(2))
	if !o.DiscountAmount.IsZero() {
		label := "Discount"
		if o.VoucherCode != "" {
			label += " (" + o.VoucherCode + ")"
		}
		fmt.Fprintf(tw, "%s\t-%s\t\n", label, o.DiscountAmount.StringFixed(2))
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t\n", o.TotalAmount.StringFixed(2))
	tw.Flush()

	fmt.Fprintf(&buf, "Payment: %s\n", o.PaymentMethod)
	return buf.Bytes()
}

func center(s string) string {
	pad := (width - len(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
