package domain

import "encoding/json"

// Node — узел графа workflow.
//
// ID уникален в рамках графа, Type — ключ в реестре блоков,
// Params — произвольная JSON-конфигурация блока.
// После старта run узел неизменяем.
type Node struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// Edge — направленное ребро графа. From и To ссылаются на Node.ID.
type Edge struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph — DAG, описывающий логику одного workflow.
//
// Инварианты (проверяются в engine.Build):
//   - ID узлов попарно уникальны
//   - каждое ребро ссылается на объявленные узлы
//   - граф ацикличен
//
// Graph принадлежит ровно одному Workflow и при обновлении
// заменяется целиком — история не хранится.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// ParseGraph парсит граф из wire-формата
// {nodes: [{id, type, params}], edges: [{id, from, to}]}.
func ParseGraph(raw []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(raw, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// Marshal сериализует граф в wire-формат.
func (g Graph) Marshal() ([]byte, error) {
	return json.Marshal(g)
}

// NodeByID возвращает узел по ID или nil, если узла нет.
func (g Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}
