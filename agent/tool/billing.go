package tool

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/wiradal/deskmate/agent/contract"
)

const (
	ToolGetInvoiceDetails   = "get_invoice_details"
	ToolCheckRefundStatus   = "check_refund_status"
	ToolProcessRefund       = "process_refund"
	ToolGetSubscriptionInfo = "get_subscription_info"
	ToolUpdatePaymentMethod = "update_payment_method"
)

type invoiceRecord struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Status      string  `json:"status"`
	Description string  `json:"description"`
}

type refundRecord struct {
	RefundID  string  `json:"refundId"`
	InvoiceID string  `json:"invoiceId"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason"`
	Status    string  `json:"status"`
	Date      string  `json:"date"`
}

var mockInvoices = []invoiceRecord{
	{ID: "INV-001", Amount: 129.99, Date: "2024-01-01", Status: "paid", Description: "Order ORD-001"},
	{ID: "INV-002", Amount: 49.99, Date: "2024-01-05", Status: "pending", Description: "Order ORD-002"},
	{ID: "INV-003", Amount: 159.99, Date: "2024-01-10", Status: "pending", Description: "Order ORD-003"},
}

var mockRefunds = []refundRecord{
	{RefundID: "REF-001", InvoiceID: "INV-001", Amount: 20, Reason: "Discount applied", Status: "completed", Date: "2024-01-03"},
}

func billingSchemas() []contractx.ToolSchema {
	return []contractx.ToolSchema{
		{
			Name:        ToolGetInvoiceDetails,
			Description: "Get invoice details",
			Params: []contractx.ToolParam{
				{Name: "invoiceId", Type: "string"},
				{Name: "orderId", Type: "string"},
			},
		},
		{
			Name:        ToolCheckRefundStatus,
			Description: "Check refund status",
			Params: []contractx.ToolParam{
				{Name: "refundId", Type: "string"},
				{Name: "invoiceId", Type: "string"},
			},
		},
		{
			Name:        ToolProcessRefund,
			Description: "Process a refund for an invoice",
			Params: []contractx.ToolParam{
				{Name: "invoiceId", Type: "string", Required: true},
				{Name: "amount", Type: "number", Required: true},
				{Name: "reason", Type: "string", Required: true},
			},
		},
		{
			Name:        ToolGetSubscriptionInfo,
			Description: "Get subscription plan details",
			Params: []contractx.ToolParam{
				{Name: "userId", Type: "string"},
			},
		},
		{
			Name:        ToolUpdatePaymentMethod,
			Description: "Update payment method for subscription",
			Params: []contractx.ToolParam{
				{Name: "userId", Type: "string", Required: true},
				{Name: "cardLast4", Type: "string", Required: true},
				{Name: "expiryMonth", Type: "number", Required: true},
				{Name: "expiryYear", Type: "number", Required: true},
			},
		},
	}
}

func findInvoice(invoiceID, orderID string) *invoiceRecord {
	for i := range mockInvoices {
		switch {
		case invoiceID != "" && mockInvoices[i].ID == invoiceID:
			return &mockInvoices[i]
		case invoiceID == "" && orderID != "" && strings.Contains(mockInvoices[i].Description, orderID):
			return &mockInvoices[i]
		}
	}
	return nil
}

func findRefund(refundID, invoiceID string) *refundRecord {
	for i := range mockRefunds {
		switch {
		case refundID != "" && mockRefunds[i].RefundID == refundID:
			return &mockRefunds[i]
		case refundID == "" && invoiceID != "" && mockRefunds[i].InvoiceID == invoiceID:
			return &mockRefunds[i]
		}
	}
	return nil
}

func executeBillingTool(tool string, args map[string]any) contractx.ToolResult {
	switch tool {
	case ToolGetInvoiceDetails:
		invoice := findInvoice(stringArg(args, "invoiceId"), stringArg(args, "orderId"))
		if invoice == nil {
			return contractx.ToolResult{Tool: tool, Result: map[string]any{"error": "Invoice not found"}}
		}
		return contractx.ToolResult{Tool: tool, Result: *invoice}

	case ToolCheckRefundStatus:
		refund := findRefund(stringArg(args, "refundId"), stringArg(args, "invoiceId"))
		if refund == nil {
			return contractx.ToolResult{Tool: tool, Result: map[string]any{
				"error": "Refund not found or no refunds for this invoice",
			}}
		}
		expectedArrival := "5-10 business days"
		if refund.Status == "completed" {
			expectedArrival = "Already received"
		}
		return contractx.ToolResult{Tool: tool, Result: map[string]any{
			"refundId":        refund.RefundID,
			"amount":          refund.Amount,
			"status":          refund.Status,
			"reason":          refund.Reason,
			"processedDate":   refund.Date,
			"expectedArrival": expectedArrival,
		}}

	case ToolProcessRefund:
		invoice := findInvoice(stringArg(args, "invoiceId"), "")
		if invoice == nil {
			return contractx.ToolResult{Tool: tool, Result: map[string]any{"error": "Invoice not found"}}
		}
		if invoice.Status == "refunded" {
			return contractx.ToolResult{Tool: tool, Result: map[string]any{"error": "Invoice already refunded"}}
		}
		amount := numberArg(args, "amount")
		return contractx.ToolResult{Tool: tool, Result: map[string]any{
			"success":          true,
			"refundId":         fmt.Sprintf("REF-%d", time.Now().UnixMilli()),
			"amount":           amount,
			"reason":           stringArg(args, "reason"),
			"status":           "processing",
			"estimatedArrival": "3-5 business days",
			"message":          fmt.Sprintf("Refund of $%v has been initiated", amount),
		}}

	case ToolGetSubscriptionInfo:
		return contractx.ToolResult{Tool: tool, Result: map[string]any{
			"plan":            "premium",
			"status":          "active",
			"monthlyAmount":   9.99,
			"nextBillingDate": "2024-02-14",
			"features":        []string{"Priority support", "Early access to new features", "Ad-free experience"},
			"canCancel":       true,
			"message":         "Your Premium subscription is active",
		}}

	case ToolUpdatePaymentMethod:
		return contractx.ToolResult{Tool: tool, Result: map[string]any{
			"success":    true,
			"message":    "Payment method updated successfully",
			"cardLast4":  stringArg(args, "cardLast4"),
			"expiryDate": fmt.Sprintf("%v/%v", numberArg(args, "expiryMonth"), numberArg(args, "expiryYear")),
		}}

	default:
		return unknownTool(tool)
	}
}
