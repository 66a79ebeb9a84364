// Package stage builds and executes the dependency graph of run stages
// declared in groundwork.toml.
package stage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/iancoleman/strcase"
	tfdag "github.com/sourcegraph/tf-dag/dag"

	"github.com/groundworkhq/groundwork/cmd/internal/runcfg"
)

// Runner executes one stage.
type Runner func(ctx context.Context) error

// Node is one stage vertex in the execution graph.
type Node struct {
	Stage string
	Run   Runner
}

// Name returns the normalized stage id.
func (n *Node) Name() string {
	return n.Stage
}

// Build constructs the acyclic stage graph from configuration. Stage
// names are normalized to kebab-case before lookup, so "BootstrapRoles"
// and "bootstrap-roles" declare the same stage.
func Build(stages []runcfg.StageConfig, runners map[string]Runner) (*tfdag.AcyclicGraph, error) {
	var graph tfdag.AcyclicGraph
	nodes := make(map[string]*Node, len(stages))

	for _, stage := range stages {
		name := strcase.ToKebab(stage.Name)
		run, ok := runners[name]
		if !ok {
			return nil, errors.Newf("no runner for stage %q", name)
		}
		node := &Node{Stage: name, Run: run}
		nodes[name] = node
		graph.Add(node)
	}

	for _, stage := range stages {
		node := nodes[strcase.ToKebab(stage.Name)]
		for _, dep := range stage.DependsOn {
			depNode, ok := nodes[strcase.ToKebab(dep)]
			if !ok {
				return nil, errors.Newf("stage %q depends on undeclared stage %q", stage.Name, dep)
			}
			graph.Connect(tfdag.BasicEdge(node, depNode))
		}
	}

	graph.TransitiveReduction()

	if cycles := graph.Cycles(); len(cycles) > 0 {
		return nil, errors.New("dependency cycle detected in stage graph")
	}
	return &graph, nil
}

// Execute walks the graph, running every stage after its dependencies.
func Execute(ctx context.Context, graph *tfdag.AcyclicGraph) error {
	return graph.Walk(func(vertex tfdag.Vertex) error {
		node, ok := vertex.(*Node)
		if !ok {
			return errors.Newf("unexpected vertex type: %T", vertex)
		}
		if err := node.Run(ctx); err != nil {
			return errors.Wrapf(err, "stage %s", node.Stage)
		}
		return nil
	})
}
