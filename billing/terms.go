package billing

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// DueOnReceipt is the term for invoices payable immediately.
const DueOnReceipt = "Due on Receipt"

// ResolveTerm returns the payment term implied by the two dates.
func ResolveTerm(issue civil.Date, due *civil.Date) string {
	if due == nil || !due.After(issue) {
		return DueOnReceipt
	}
	return fmt.Sprintf("%d days", due.DaysSince(issue))
}
