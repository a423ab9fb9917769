// Package engine содержит валидатор графа workflow.
//
// Включает:
//   - graph.go  — построение провалидированного Graph: уникальность ID,
//     целостность рёбер, ацикличность, топологический порядок,
//     индекс родителей/потомков
//   - errors.go — sentinel-ошибки валидации и ValidationError
//
// Engine чистый: не выполняет I/O и не имеет побочных эффектов.
// Порядок выполнения для фиксированного графа детерминирован.
package engine
