// Package executor выполняет граф одного run.
//
// Модель выполнения:
//   - строго последовательно, по одному узлу, в топологическом порядке;
//   - вход узла — {params, upstream, trigger}, где upstream содержит
//     outputs только прямых родителей;
//   - fail-fast: первая ошибка узла завершает run со статусом failed,
//     outputs уже выполненных узлов сохраняются;
//   - каждый стартовавший узел получает запись NodeRun (running →
//     терминальный статус); узлы после точки падения записей не имеют.
//
// Executor не владеет статусом run: он возвращает терминальный статус
// и outputs, фиксирует их orchestrator.
package executor
