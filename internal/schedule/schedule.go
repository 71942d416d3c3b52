// Package schedule maps a customer's weekly delivery schedule to concrete
// calendar dates and gates order submission by per-day deadlines.
package schedule

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Weekday indexes days 0=Monday .. 6=Sunday, matching the schedule storage
// format. Note this differs from time.Weekday, which starts at Sunday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return dayNames[d]
}

// Valid reports whether d is within 0..6.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// FromTime converts a time.Time weekday (Sunday=0) to the Monday=0 indexing.
func FromTime(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// OrderWindow holds the ordering constraint for one delivery day: orders must
// be placed no later than Deadline on OrderDay.
type OrderWindow struct {
	OrderDay Weekday `json:"order_day"`
	Deadline string  `json:"deadline"` // 24-hour "HH:MM"
}

func (w OrderWindow) deadlineMinutes() (int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(w.Deadline, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("schedule: invalid deadline %q: %w", w.Deadline, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("schedule: invalid deadline %q", w.Deadline)
	}
	return hour*60 + minute, nil
}

// Schedule maps a delivery day to its order window. An empty schedule means
// the customer has no deliveries configured.
type Schedule map[Weekday]OrderWindow

// Validate checks day indices and deadline formats. Used when back-office
// actors update a customer's schedule.
func (s Schedule) Validate() error {
	for day, window := range s {
		if !day.Valid() {
			return fmt.Errorf("schedule: invalid delivery day %d", int(day))
		}
		if !window.OrderDay.Valid() {
			return fmt.Errorf("schedule: invalid order day %d for delivery day %s", int(window.OrderDay), day)
		}
		if _, err := window.deadlineMinutes(); err != nil {
			return err
		}
	}
	return nil
}

// DeliveryDays returns the configured delivery day names in calendar order.
func (s Schedule) DeliveryDays() []string {
	days := s.sortedDays()
	names := make([]string, 0, len(days))
	for _, day := range days {
		names = append(names, day.String())
	}
	return names
}

// NextDelivery describes the soonest upcoming delivery slot.
type NextDelivery struct {
	Day     Weekday
	DayName string
	Date    time.Time // calendar date, midnight in now's location
}

// Next returns the soonest delivery day strictly after today's weekday,
// wrapping to the earliest configured day next week. Today's own delivery
// day counts as already past. ok is false when the schedule is empty.
func (s Schedule) Next(now time.Time) (NextDelivery, bool) {
	days := s.sortedDays()
	if len(days) == 0 {
		return NextDelivery{}, false
	}

	today := FromTime(now)
	for _, day := range days {
		if day > today {
			return makeNext(day, now, int(day-today)), true
		}
	}

	// Wrap to the earliest day next week.
	first := days[0]
	return makeNext(first, now, (7-int(today))+int(first)), true
}

func makeNext(day Weekday, now time.Time, daysAhead int) NextDelivery {
	date := now.AddDate(0, 0, daysAhead)
	return NextDelivery{
		Day:     day,
		DayName: day.String(),
		Date:    time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location()),
	}
}

// CanOrder reports whether an order for deliveryDay may still be placed at
// now. On the order day itself the deadline is exclusive: exactly at the
// deadline is too late. Any weekday past the order day is late; any weekday
// before it is open. The comparison is numeric within the Monday-based week,
// so an order day late in the week reads as "passed" early the next week.
func (s Schedule) CanOrder(deliveryDay Weekday, now time.Time) bool {
	window, ok := s[deliveryDay]
	if !ok {
		return false
	}

	today := FromTime(now)
	switch {
	case today == window.OrderDay:
		deadline, err := window.deadlineMinutes()
		if err != nil {
			return false
		}
		return now.Hour()*60+now.Minute() < deadline
	case today > window.OrderDay:
		return false
	default:
		return true
	}
}

func (s Schedule) sortedDays() []Weekday {
	days := make([]Weekday, 0, len(s))
	for day := range s {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// Value-side JSON helpers for JSONB storage.

func (s Schedule) MarshalJSONB() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

func ScheduleFromJSONB(data []byte) (Schedule, error) {
	if len(data) == 0 {
		return Schedule{}, nil
	}
	var s Schedule
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schedule: failed to decode schedule: %w", err)
	}
	return s, nil
}
