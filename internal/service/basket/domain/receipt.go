package domain

import (
	"fmt"
	"strings"
)

// ReceiptEvent is the message handed to the notification collaborator after a
// checkout fulfilled at least one line. Delivery is best effort and never
// invalidates the checkout.
type ReceiptEvent struct {
	EventID string `json:"eventId"`
	UserID  int    `json:"userId"`
	ToEmail string `json:"toEmail"`
	Body    string `json:"body"`
}

// RenderReceipt formats the plain-text receipt body for the purchased lines.
func RenderReceipt(lines []Line) string {
	var sb strings.Builder
	sb.WriteString("Thank you for your purchase!\n\n")
	total := 0
	for i, line := range lines {
		fmt.Fprintf(&sb, "%d. %s: $%d x %d\n", i+1, line.Name, line.Cost, line.Quantity)
		total += line.Cost * line.Quantity
	}
	fmt.Fprintf(&sb, "\nTotal Amount: $%d", total)
	return sb.String()
}
