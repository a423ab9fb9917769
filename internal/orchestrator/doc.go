// Package orchestrator управляет жизненным циклом runs.
//
// Orchestrator отвечает за:
//   - Валидацию графа до создания run (невалидный граф — нет записи в БД)
//   - Создание run в статусе pending
//   - Выполнение графа в фоновой горутине через executor
//   - Фиксацию статусов run — единственный писатель строки run
//   - Публикацию событий run.created / run.finished
//   - Graceful shutdown: активные runs отменяются и финализируются
//
// Orchestrator — это "мозг" системы, который координирует выполнение.
package orchestrator
