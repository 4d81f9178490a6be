package category

import (
	"sort"

	"storefront/catalog-service/internal/app/catalog/entity"
)

// Node - категория в дереве; children хранит индексы в Tree.nodes
type Node struct {
	ID       int64
	Name     string
	Slug     string
	ParentID *int64

	children []int
}

// Tree - дерево категорий, собранное из одной плоской выборки.
// Узлы лежат в срезе, связи - индексы, поэтому построение O(n) без рекурсии.
type Tree struct {
	nodes  []Node
	bySlug map[string]int
	byID   map[int64]int
}

// Build строит дерево из строк таблицы categories.
// Строка с неизвестным parent_id становится корнем.
func Build(rows []entity.Category) *Tree {
	t := &Tree{
		nodes:  make([]Node, 0, len(rows)),
		bySlug: make(map[string]int, len(rows)),
		byID:   make(map[int64]int, len(rows)),
	}

	for _, r := range rows {
		idx := len(t.nodes)
		t.nodes = append(t.nodes, Node{ID: r.ID, Name: r.Name, Slug: r.Slug, ParentID: r.ParentID})
		t.bySlug[r.Slug] = idx
		t.byID[r.ID] = idx
	}

	for i := range t.nodes {
		parentID := t.nodes[i].ParentID
		if parentID == nil {
			continue
		}
		if p, ok := t.byID[*parentID]; ok && p != i {
			t.nodes[p].children = append(t.nodes[p].children, i)
		}
	}

	return t
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

// Lookup ищет категорию по slug
func (t *Tree) Lookup(slug string) (Node, bool) {
	idx, ok := t.bySlug[slug]
	if !ok {
		return Node{}, false
	}
	return t.nodes[idx], true
}

// DescendantAndSelfIDs возвращает id категории и всех её потомков (обход в глубину).
// Посещенные узлы не обходятся повторно, так что цикл в данных не зацикливает обход.
func (t *Tree) DescendantAndSelfIDs(slug string) ([]int64, bool) {
	start, ok := t.bySlug[slug]
	if !ok {
		return nil, false
	}

	visited := make(map[int]struct{})
	stack := []int{start}
	var ids []int64

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[idx]; seen {
			continue
		}
		visited[idx] = struct{}{}
		ids = append(ids, t.nodes[idx].ID)

		children := t.nodes[idx].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return ids, true
}

// Children возвращает прямых потомков категории, отсортированных по имени
func (t *Tree) Children(slug string) []Node {
	idx, ok := t.bySlug[slug]
	if !ok {
		return nil
	}

	out := make([]Node, 0, len(t.nodes[idx].children))
	for _, c := range t.nodes[idx].children {
		out = append(out, t.nodes[c])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
