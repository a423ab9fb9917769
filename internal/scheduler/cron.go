package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер стандартных 5-польных cron-выражений.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	_, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

// NextFire вычисляет ближайшее время срабатывания после from.
func NextFire(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return schedule.Next(from).UTC(), nil
}

// firesAt проверяет, срабатывает ли выражение ровно в минуту minute.
// minute должна быть усечена до минутной границы.
func firesAt(cronExpr string, minute time.Time) (bool, error) {
	next, err := NextFire(cronExpr, minute.Add(-time.Second))
	if err != nil {
		return false, err
	}
	return next.Equal(minute.UTC()), nil
}
