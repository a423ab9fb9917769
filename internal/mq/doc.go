// Package mq публикует события жизненного цикла runs в RabbitMQ.
//
// Структура:
//   - broker.go    — исходящее соединение с ленивым reconnect
//   - topology.go  — объявление exchange, queue, binding
//   - publisher.go — сборка и публикация событий
//
// Поток событий исходящий: сервер выполняет runs сам и только
// публикует run.created / run.finished для внешних потребителей.
// Consumer-стороны в сервере нет, поэтому Broker не держит фонового
// наблюдателя за соединением: обрыв обнаруживается при следующей
// публикации, канал пересоздаётся на месте.
//
// Exchange:
//   - cascade.events (topic) — события runs, routing keys run.*
package mq
