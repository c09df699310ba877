package calendar

import (
	"errors"
	"time"
)

type RecurrenceFrequency int

const (
	FreqDaily RecurrenceFrequency = iota
	FreqWeekly
)

// RecurringRule описывает правило повторения рабочих окон специалиста
// (хранится в schedules.rules).
type RecurringRule struct {
	Freq      RecurrenceFrequency
	Interval  int            // шаг: каждые Interval дней/недель (>=1)
	Weekdays  []time.Weekday // для FreqWeekly
	StartTime time.Time      // начальное начало окна
	Duration  time.Duration  // длительность окна
	Until     *time.Time     // опционально: дата/время окончания
	Count     *int           // опционально: максимальное количество повторений
	// Исключения по датам (используем дату без времени).
	Exceptions map[time.Time]struct{}
}

// ExpandRecurringRule разворачивает правило повторений в набор интервалов
// внутри окна window. Интервалы, полностью лежащие вне window, отбрасываются.
func ExpandRecurringRule(rule RecurringRule, window TimeRange) ([]TimeRange, error) {
	if rule.Duration <= 0 {
		return nil, errors.New("recurring rule: duration must be positive")
	}
	if rule.Interval <= 0 {
		rule.Interval = 1
	}
	if rule.StartTime.IsZero() {
		return nil, errors.New("recurring rule: StartTime is required")
	}
	if !window.End.After(window.Start) {
		return []TimeRange{}, nil
	}

	var result []TimeRange
	countGenerated := 0

	cur := rule.StartTime

	for {
		// Ограничение по Until
		if rule.Until != nil && cur.After(*rule.Until) {
			break
		}
		// Ограничение по Count
		if rule.Count != nil && countGenerated >= *rule.Count {
			break
		}
		occStart := cur
		occEnd := cur.Add(rule.Duration)

		// Для weekly учитываем только нужные дни недели.
		if rule.Freq == FreqWeekly && len(rule.Weekdays) > 0 {
			if !containsWeekday(rule.Weekdays, occStart.Weekday()) {
				cur = nextOccurrence(rule, cur)
				continue
			}
		}

		// Проверка исключений по дате.
		if isException(rule, occStart) {
			cur = nextOccurrence(rule, cur)
			continue
		}

		occRange := TimeRange{Start: occStart, End: occEnd}

		// Если интервал пересекается с окном — включаем.
		if rangesOverlap(occRange, window, false) {
			result = append(result, occRange)
			countGenerated++
		} else if occEnd.After(window.End) && occStart.After(window.End) {
			// Дальнейшие повторения точно будут дальше окна.
			break
		}

		cur = nextOccurrence(rule, cur)
	}

	return result, nil
}

func nextOccurrence(rule RecurringRule, cur time.Time) time.Time {
	switch rule.Freq {
	case FreqWeekly:
		if len(rule.Weekdays) > 0 {
			// По дням — недельный шаг применяется на границе недели.
			return cur.AddDate(0, 0, 1)
		}
		return cur.AddDate(0, 0, 7*rule.Interval)
	default:
		return cur.AddDate(0, 0, rule.Interval)
	}
}

func containsWeekday(list []time.Weekday, w time.Weekday) bool {
	for _, d := range list {
		if d == w {
			return true
		}
	}
	return false
}

func isException(rule RecurringRule, t time.Time) bool {
	if rule.Exceptions == nil {
		return false
	}
	day := dateOnly(t)
	_, ok := rule.Exceptions[day]
	return ok
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
