package subscriptions

import (
	"fmt"
	"time"

	"github.com/propdesk/propdesk-backend/pkg/enums"
	pkgerrors "github.com/propdesk/propdesk-backend/pkg/errors"
)

// AddPeriod returns t advanced by one billing period. Day-of-month clamps to
// the shorter target month (Jan 31 + 1 month = Feb 29 in a leap year), unlike
// time.AddDate which overflows into the following month.
func AddPeriod(t time.Time, cycle enums.BillingCycle) (time.Time, error) {
	switch cycle {
	case enums.BillingCycleMonthly:
		return addMonths(t, 1), nil
	case enums.BillingCycleAnnually:
		return addMonths(t, 12), nil
	default:
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid billing cycle %q", cycle))
	}
}

func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	total := int(month) - 1 + months
	targetYear := year + total/12
	targetMonth := time.Month(total%12 + 1)

	if last := daysIn(targetYear, targetMonth); day > last {
		day = last
	}

	return time.Date(targetYear, targetMonth, day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	// day 0 of the next month is the last day of this month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
