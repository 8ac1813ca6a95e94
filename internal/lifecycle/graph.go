package lifecycle

// Edge is one directed move in the lifecycle graph.
type Edge struct {
	From  ContentStatus
	Event Event
	To    ContentStatus
}

// Edges expands the transition table into individual edges.
func Edges() []Edge {
	var edges []Edge
	for _, event := range eventOrder {
		rule := rules[event]
		for _, from := range rule.From {
			edges = append(edges, Edge{From: from, Event: event, To: rule.To})
		}
	}
	return edges
}

// Outgoing lists the edges leaving status.
func Outgoing(status ContentStatus) []Edge {
	var out []Edge
	for _, edge := range Edges() {
		if edge.From == status {
			out = append(out, edge)
		}
	}
	return out
}

// ShortestPath returns the fewest events that move a topic from one status to
// another. The boolean is false when to is unreachable.
func ShortestPath(from, to ContentStatus) ([]Event, bool) {
	if !from.Valid() || !to.Valid() {
		return nil, false
	}
	if from == to {
		return nil, true
	}
	type step struct {
		status ContentStatus
		path   []Event
	}
	visited := map[ContentStatus]bool{from: true}
	queue := []step{{status: from}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, edge := range Outgoing(current.status) {
			if visited[edge.To] {
				continue
			}
			path := append(append([]Event(nil), current.path...), edge.Event)
			if edge.To == to {
				return path, true
			}
			visited[edge.To] = true
			queue = append(queue, step{status: edge.To, path: path})
		}
	}
	return nil, false
}

// Owner returns the role that acts on topics sitting in status. Every
// non-terminal stage is owned by exactly one role; the boolean is false for
// the terminal stage and unknown values.
func Owner(status ContentStatus) (Role, bool) {
	for _, edge := range Outgoing(status) {
		return rules[edge.Event].Role, true
	}
	return "", false
}
