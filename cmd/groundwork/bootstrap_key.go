package main

import "context"

type BootstrapKeyCmd struct{}

func (c *BootstrapKeyCmd) Run(deps *cmddeps) error {
	ctx := context.Background()
	rt, err := deps.newRuntime(ctx)
	if err != nil {
		return err
	}
	return rt.runBootstrapKey(ctx)
}
