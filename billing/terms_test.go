package billing

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
)

func date(y, m, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func datePtr(y, m, d int) *civil.Date {
	v := date(y, m, d)
	return &v
}

func TestResolveTerm(t *testing.T) {
	issue := date(2024, 1, 1)

	tests := []struct {
		name string
		due  *civil.Date
		want string
	}{
		{"same day", datePtr(2024, 1, 1), DueOnReceipt},
		{"due before issue", datePtr(2023, 12, 25), DueOnReceipt},
		{"no due date", nil, DueOnReceipt},
		{"thirty days", datePtr(2024, 1, 31), "30 days"},
		{"one day", datePtr(2024, 1, 2), "1 days"},
		{"across leap day", datePtr(2024, 3, 1), "60 days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTerm(issue, tt.due))
		})
	}
}
