package main

import "context"

type BootstrapAccountsCmd struct{}

func (c *BootstrapAccountsCmd) Run(deps *cmddeps) error {
	ctx := context.Background()
	rt, err := deps.newRuntime(ctx)
	if err != nil {
		return err
	}
	return rt.runBootstrapAccounts(ctx)
}
