package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/iancoleman/strcase"

	"github.com/groundworkhq/groundwork/cmd/internal/stage"
)

type RunCmd struct{}

func (c *RunCmd) Run(deps *cmddeps) error {
	if len(deps.cfg.Stages) == 0 {
		return errors.New("no stages declared in groundwork.toml")
	}

	ctx := context.Background()
	rt, err := deps.newRuntime(ctx)
	if err != nil {
		return err
	}

	runners := make(map[string]stage.Runner, len(deps.cfg.Stages))
	for _, st := range deps.cfg.Stages {
		name := strcase.ToKebab(st.Name)
		run, ok := rt.stageRunner(name)
		if !ok {
			return errors.Newf("unknown stage %q", st.Name)
		}
		runners[name] = run
	}

	graph, err := stage.Build(deps.cfg.Stages, runners)
	if err != nil {
		return err
	}
	return stage.Execute(ctx, graph)
}
