package engine

import (
	"fmt"
	"sort"

	"github.com/shaiso/Cascade/internal/domain"
)

// Graph — провалидированный граф workflow с вычисленным порядком
// выполнения и индексом родителей/потомков.
//
// Значение неизменяемо после Build и безопасно переиспользуется
// между runs одного workflow, пока граф не перезаписан.
type Graph struct {
	source domain.Graph

	// order — топологический порядок ID узлов.
	order []string

	// parents — node id → ID прямых предшественников.
	parents map[string][]string

	// children — node id → ID прямых потомков.
	children map[string][]string

	// byID — node id → узел.
	byID map[string]*domain.Node
}

// Build валидирует граф и строит порядок выполнения.
//
// Проверки, по порядку, каждая со своим видом ошибки:
//  1. уникальность ID узлов (ErrDuplicateNode)
//  2. ссылочная целостность рёбер (ErrDanglingEdge)
//  3. ацикличность (ErrCycle)
//
// Топологический порядок детерминирован: при нескольких одновременно
// готовых узлах выбирается тот, что объявлен раньше.
// Build не выполняет I/O и не имеет побочных эффектов.
func Build(g domain.Graph) (*Graph, error) {
	if len(g.Nodes) == 0 {
		return nil, &ValidationError{Message: "graph has no nodes", Err: ErrEmptyGraph}
	}

	byID := make(map[string]*domain.Node, len(g.Nodes))
	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.ID == "" {
			return nil, newNodeError("", "node has empty ID", ErrEmptyNodeID)
		}
		if _, exists := byID[node.ID]; exists {
			return nil, newNodeError(node.ID,
				fmt.Sprintf("duplicate node ID: %s", node.ID), ErrDuplicateNode)
		}
		byID[node.ID] = node
	}

	parents := make(map[string][]string, len(g.Nodes))
	children := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		if _, ok := byID[e.From]; !ok {
			return nil, newEdgeError(e.ID,
				fmt.Sprintf("references unknown node: %s", e.From), ErrDanglingEdge)
		}
		if _, ok := byID[e.To]; !ok {
			return nil, newEdgeError(e.ID,
				fmt.Sprintf("references unknown node: %s", e.To), ErrDanglingEdge)
		}
		parents[e.To] = append(parents[e.To], e.From)
		children[e.From] = append(children[e.From], e.To)
	}

	order, err := toposort(g.Nodes, children)
	if err != nil {
		return nil, err
	}

	return &Graph{
		source:   g,
		order:    order,
		parents:  parents,
		children: children,
		byID:     byID,
	}, nil
}

// toposort выполняет топологическую сортировку устранением узлов
// без неразрешённых входящих зависимостей (алгоритм Кана).
//
// Из одновременно готовых узлов всегда выбирается объявленный раньше,
// поэтому порядок воспроизводим между запусками одного графа.
func toposort(nodes []domain.Node, children map[string][]string) ([]string, error) {
	indeg := make(map[string]int, len(nodes))
	for _, n := range nodes {
		indeg[n.ID] = 0
	}
	for _, dependents := range children {
		for _, to := range dependents {
			indeg[to]++
		}
	}

	emitted := make(map[string]bool, len(nodes))
	order := make([]string, 0, len(nodes))

	for len(order) < len(nodes) {
		// Первый по порядку объявления узел с indeg == 0.
		picked := ""
		for _, n := range nodes {
			if !emitted[n.ID] && indeg[n.ID] == 0 {
				picked = n.ID
				break
			}
		}
		if picked == "" {
			return nil, cycleError(nodes, emitted)
		}

		emitted[picked] = true
		order = append(order, picked)
		for _, to := range children[picked] {
			indeg[to]--
		}
	}

	return order, nil
}

// cycleError строит ErrCycle, перечисляя узлы, оставшиеся в цикле.
func cycleError(nodes []domain.Node, emitted map[string]bool) error {
	remaining := make([]string, 0)
	for _, n := range nodes {
		if !emitted[n.ID] {
			remaining = append(remaining, n.ID)
		}
	}
	sort.Strings(remaining)
	return &ValidationError{
		Message: fmt.Sprintf("cycle involving nodes %v", remaining),
		Err:     ErrCycle,
	}
}

// Source возвращает исходный domain.Graph.
func (g *Graph) Source() domain.Graph {
	return g.source
}

// Order возвращает топологический порядок ID узлов.
func (g *Graph) Order() []string {
	return g.order
}

// Node возвращает узел по ID или nil.
func (g *Graph) Node(id string) *domain.Node {
	return g.byID[id]
}

// Parents возвращает ID прямых предшественников узла.
func (g *Graph) Parents(id string) []string {
	return g.parents[id]
}

// Children возвращает ID прямых потомков узла.
func (g *Graph) Children(id string) []string {
	return g.children[id]
}

// Size возвращает количество узлов.
func (g *Graph) Size() int {
	return len(g.source.Nodes)
}
