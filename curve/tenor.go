package curve

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meenmo/hwlib/utils"
)

// addTenor advances date by a tenor string like "1W", "3M", "10Y" or "0D".
func addTenor(date time.Time, tenor string) (time.Time, error) {
	tenor = strings.TrimSpace(strings.ToUpper(tenor))
	if len(tenor) < 2 {
		return time.Time{}, fmt.Errorf("invalid tenor %q", tenor)
	}
	n, err := strconv.Atoi(tenor[:len(tenor)-1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid tenor %q: %w", tenor, err)
	}
	switch tenor[len(tenor)-1] {
	case 'D':
		return date.AddDate(0, 0, n), nil
	case 'W':
		return date.AddDate(0, 0, 7*n), nil
	case 'M':
		return utils.AddMonth(date, n), nil
	case 'Y':
		return utils.AddMonth(date, 12*n), nil
	}
	return time.Time{}, fmt.Errorf("invalid tenor unit in %q", tenor)
}
