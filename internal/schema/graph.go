package schema

import "fmt"

// DependencyGraph orders tables so that every referenced table precedes the
// tables referencing it. Ties keep the order in which tables were added.
type DependencyGraph struct {
	names []string
	deps  map[string][]string
	order []string
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		deps: make(map[string][]string),
	}
}

func (g *DependencyGraph) AddTable(name string, dependencies []string) {
	if _, ok := g.deps[name]; !ok {
		g.names = append(g.names, name)
	}
	g.deps[name] = dependencies
}

func (g *DependencyGraph) BuildInsertionOrder() ([]string, error) {
	visited := make(map[string]bool)
	temp := make(map[string]bool)
	var order []string

	var visit func(string, []string) error
	visit = func(tableName string, path []string) error {
		if temp[tableName] {
			return fmt.Errorf("circular dependency detected: %v -> %s", path, tableName)
		}
		if visited[tableName] {
			return nil
		}
		deps, known := g.deps[tableName]
		if !known {
			return fmt.Errorf("table %s depends on undeclared table %s", path[len(path)-1], tableName)
		}

		temp[tableName] = true
		for _, dep := range deps {
			if dep == tableName {
				continue
			}
			if err := visit(dep, append(path, tableName)); err != nil {
				return err
			}
		}

		temp[tableName] = false
		visited[tableName] = true
		order = append(order, tableName)
		return nil
	}

	for _, name := range g.names {
		if !visited[name] {
			if err := visit(name, nil); err != nil {
				return nil, err
			}
		}
	}

	g.order = order
	return order, nil
}

func (g *DependencyGraph) GetOrder() []string {
	return g.order
}
