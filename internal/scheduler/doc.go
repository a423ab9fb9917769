// Package scheduler реализует запуск runs по cron-расписаниям.
//
// Scheduler периодически проверяет включённые schedules и запускает
// run для каждого, чьё cron-выражение срабатывает в текущую минуту.
//
// Структура:
//   - scheduler.go — основная логика (Start, Tick)
//   - cron.go      — парсинг cron-выражений и вычисление срабатываний
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Schedules: scheduleRepo,
//	    Starter:   orch,
//	    Logger:    logger,
//	})
//	go sched.Start(ctx)
//
// Дедупликация срабатываний хранится в памяти процесса: сервер один,
// leader election не требуется.
package scheduler
