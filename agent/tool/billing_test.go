package tool

import (
	"context"
	"strings"
	"testing"

	contractx "github.com/wiradal/deskmate/agent/contract"
)

func executeBilling(t *testing.T, tool string, args map[string]any) contractx.ToolResult {
	t.Helper()
	g := NewGateway(nil)
	out, err := g.Execute(context.Background(), contractx.AgentTypeBilling, tool, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func TestGetInvoiceDetailsByID(t *testing.T) {
	t.Parallel()

	out := executeBilling(t, ToolGetInvoiceDetails, map[string]any{"invoiceId": "INV-002"})
	invoice, ok := out.Result.(invoiceRecord)
	if !ok {
		t.Fatalf("unexpected result type: %T", out.Result)
	}
	if invoice.ID != "INV-002" || invoice.Status != "pending" {
		t.Fatalf("unexpected invoice: %+v", invoice)
	}
}

func TestGetInvoiceDetailsByOrderID(t *testing.T) {
	t.Parallel()

	out := executeBilling(t, ToolGetInvoiceDetails, map[string]any{"orderId": "ORD-003"})
	invoice, ok := out.Result.(invoiceRecord)
	if !ok {
		t.Fatalf("unexpected result type: %T", out.Result)
	}
	if invoice.ID != "INV-003" {
		t.Fatalf("expected invoice for ORD-003, got %+v", invoice)
	}
}

func TestGetInvoiceDetailsNotFound(t *testing.T) {
	t.Parallel()

	out := executeBilling(t, ToolGetInvoiceDetails, map[string]any{"invoiceId": "INV-999"})
	m := resultMap(t, out)
	if m["error"] != "Invoice not found" {
		t.Fatalf("expected not-found result, got %v", m)
	}
}

func TestCheckRefundStatusByInvoice(t *testing.T) {
	t.Parallel()

	out := executeBilling(t, ToolCheckRefundStatus, map[string]any{"invoiceId": "INV-001"})
	m := resultMap(t, out)
	if m["refundId"] != "REF-001" {
		t.Fatalf("unexpected refund id: %v", m["refundId"])
	}
	if m["expectedArrival"] != "Already received" {
		t.Fatalf("completed refund should report arrival, got %v", m["expectedArrival"])
	}
}

func TestCheckRefundStatusNotFound(t *testing.T) {
	t.Parallel()

	out := executeBilling(t, ToolCheckRefundStatus, map[string]any{"invoiceId": "INV-002"})
	m := resultMap(t, out)
	if _, ok := m["error"]; !ok {
		t.Fatalf("expected not-found result, got %v", m)
	}
}

func TestProcessRefund(t *testing.T) {
	t.Parallel()

	args := map[string]any{"invoiceId": "INV-002", "amount": 49.99, "reason": "damaged item"}
	m := resultMap(t, executeBilling(t, ToolProcessRefund, args))
	if m["success"] != true {
		t.Fatalf("expected refund to start, got %v", m)
	}
	if m["status"] != "processing" {
		t.Fatalf("unexpected status: %v", m["status"])
	}
	if refundID, _ := m["refundId"].(string); !strings.HasPrefix(refundID, "REF-") {
		t.Fatalf("unexpected refund id: %v", m["refundId"])
	}
}

func TestProcessRefundMissingParams(t *testing.T) {
	t.Parallel()

	out := executeBilling(t, ToolProcessRefund, map[string]any{"invoiceId": "INV-002"})
	if out.Error == "" {
		t.Fatal("expected structured missing-parameter error")
	}
	if !strings.Contains(out.Error, "amount") || !strings.Contains(out.Error, "reason") {
		t.Fatalf("expected missing params named, got %q", out.Error)
	}
}

func TestGetSubscriptionInfo(t *testing.T) {
	t.Parallel()

	m := resultMap(t, executeBilling(t, ToolGetSubscriptionInfo, map[string]any{"userId": "user-1"}))
	if m["plan"] != "premium" || m["status"] != "active" {
		t.Fatalf("unexpected subscription info: %v", m)
	}
}

func TestUpdatePaymentMethod(t *testing.T) {
	t.Parallel()

	args := map[string]any{"userId": "user-1", "cardLast4": "4242", "expiryMonth": 12.0, "expiryYear": 2027.0}
	m := resultMap(t, executeBilling(t, ToolUpdatePaymentMethod, args))
	if m["success"] != true || m["cardLast4"] != "4242" {
		t.Fatalf("unexpected result: %v", m)
	}
}
