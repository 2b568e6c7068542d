package tool

import (
	"fmt"
	"time"

	contractx "github.com/wiradal/deskmate/agent/contract"
)

const (
	ToolFetchOrderDetails   = "fetch_order_details"
	ToolCheckDeliveryStatus = "check_delivery_status"
	ToolModifyOrder         = "modify_order"
	ToolCancelOrder         = "cancel_order"
)

type orderRecord struct {
	ID                string   `json:"id"`
	Status            string   `json:"status"`
	Items             []string `json:"items"`
	Total             float64  `json:"total"`
	EstimatedDelivery string   `json:"estimatedDelivery"`
	TrackingNumber    string   `json:"trackingNumber,omitempty"`
}

var mockOrders = []orderRecord{
	{
		ID:                "ORD-001",
		Status:            "delivered",
		Items:             []string{"Wireless Headphones", "USB Cable"},
		Total:             129.99,
		EstimatedDelivery: "2024-01-12",
		TrackingNumber:    "TRK123456",
	},
	{
		ID:                "ORD-002",
		Status:            "in_transit",
		Items:             []string{"Laptop Stand"},
		Total:             49.99,
		EstimatedDelivery: "2024-01-15",
		TrackingNumber:    "TRK789012",
	},
	{
		ID:                "ORD-003",
		Status:            "processing",
		Items:             []string{"Mechanical Keyboard", "Mouse Pad"},
		Total:             159.99,
		EstimatedDelivery: "2024-01-18",
	},
}

func orderSchemas() []contractx.ToolSchema {
	return []contractx.ToolSchema{
		{
			Name:        ToolFetchOrderDetails,
			Description: "Fetch full order details. Use ONLY after the user has explicitly provided a valid orderId. Do NOT call this tool if the orderId is missing.",
			Params: []contractx.ToolParam{
				{Name: "orderId", Type: "string", Description: "The order ID to look up", Required: true},
			},
		},
		{
			Name:        ToolCheckDeliveryStatus,
			Description: "Check delivery status and tracking info for an existing order. Use ONLY when the user explicitly asks about delivery or tracking AND has provided an orderId.",
			Params: []contractx.ToolParam{
				{Name: "orderId", Type: "string", Required: true},
				{Name: "trackingNumber", Type: "string"},
			},
		},
		{
			Name:        ToolModifyOrder,
			Description: "Modify an order. Use ONLY after the user has provided orderId and clearly stated what modification they want. If information is missing, ask the user first.",
			Params: []contractx.ToolParam{
				{Name: "orderId", Type: "string", Required: true},
				{Name: "modification", Type: "string", Enum: []string{"address", "items", "delivery_speed"}, Required: true},
				{Name: "details", Type: "string", Description: "Details of the modification", Required: true},
			},
		},
		{
			Name:        ToolCancelOrder,
			Description: "Cancel an order. Use ONLY after the user confirms cancellation intent AND provides orderId. Never cancel without explicit confirmation.",
			Params: []contractx.ToolParam{
				{Name: "orderId", Type: "string", Required: true},
				{Name: "reason", Type: "string"},
			},
		},
	}
}

func findOrder(orderID string) *orderRecord {
	for i := range mockOrders {
		if mockOrders[i].ID == orderID {
			return &mockOrders[i]
		}
	}
	return nil
}

func executeOrderTool(tool string, args map[string]any) contractx.ToolResult {
	switch tool {
	case ToolFetchOrderDetails:
		orderID := stringArg(args, "orderId")
		order := findOrder(orderID)
		if order == nil {
			return contractx.ToolResult{Tool: tool, Result: map[string]any{
				"error":   "Order not found",
				"orderId": orderID,
			}}
		}
		return contractx.ToolResult{Tool: tool, Result: *order}

	case ToolCheckDeliveryStatus:
		order := findOrder(stringArg(args, "orderId"))
		if order == nil {
			return contractx.ToolResult{Tool: tool, Result: map[string]any{"error": "Order not found"}}
		}
		trackingNumber := order.TrackingNumber
		if trackingNumber == "" {
			trackingNumber = stringArg(args, "trackingNumber")
		}
		return contractx.ToolResult{Tool: tool, Result: map[string]any{
			"orderId":           order.ID,
			"status":            order.Status,
			"trackingNumber":    trackingNumber,
			"estimatedDelivery": order.EstimatedDelivery,
			"lastUpdate":        time.Now().UTC().Format(time.RFC3339),
		}}

	case ToolModifyOrder:
		order := findOrder(stringArg(args, "orderId"))
		if order == nil {
			return contractx.ToolResult{Tool: tool, Result: map[string]any{"error": "Order not found"}}
		}
		if order.Status != "processing" {
			return contractx.ToolResult{Tool: tool, Result: map[string]any{
				"error":         "Can only modify orders in processing status",
				"currentStatus": order.Status,
			}}
		}
		modification := stringArg(args, "modification")
		return contractx.ToolResult{Tool: tool, Result: map[string]any{
			"success":      true,
			"orderId":      order.ID,
			"modification": modification,
			"message":      fmt.Sprintf("Order %s has been updated: %s", modification, stringArg(args, "details")),
		}}

	case ToolCancelOrder:
		order := findOrder(stringArg(args, "orderId"))
		if order == nil {
			return contractx.ToolResult{Tool: tool, Result: map[string]any{"error": "Order not found"}}
		}
		if order.Status == "delivered" || order.Status == "cancelled" {
			return contractx.ToolResult{Tool: tool, Result: map[string]any{
				"error":         "Cannot cancel order in this status",
				"currentStatus": order.Status,
			}}
		}
		return contractx.ToolResult{Tool: tool, Result: map[string]any{
			"success":      true,
			"orderId":      order.ID,
			"message":      "Order cancelled successfully",
			"refundAmount": order.Total,
			"refundETA":    "3-5 business days",
		}}

	default:
		return unknownTool(tool)
	}
}
