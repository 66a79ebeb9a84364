package main

import "context"

type BootstrapRolesCmd struct{}

func (c *BootstrapRolesCmd) Run(deps *cmddeps) error {
	ctx := context.Background()
	rt, err := deps.newRuntime(ctx)
	if err != nil {
		return err
	}
	return rt.runBootstrapRoles(ctx)
}
