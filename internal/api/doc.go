// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go           — Handler с DI (хранилища, orchestrator, registry, logger)
//   - routes.go            — регистрация маршрутов
//   - middleware.go        — middleware (logging, recovery)
//   - response.go          — унифицированные JSON-ответы и обработка ошибок
//   - dto.go               — Data Transfer Objects (request/response)
//   - workflow_handler.go  — обработчики для /workflows и /validate-graph
//   - run_handler.go       — обработчики для /runs и /hooks
//   - schedule_handler.go  — обработчики для /schedules
//
// API предоставляет REST endpoints для управления workflows, runs и schedules.
package api
