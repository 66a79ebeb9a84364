package main

import "context"

type OrgDeployCmd struct{}

func (c *OrgDeployCmd) Run(deps *cmddeps) error {
	ctx := context.Background()
	rt, err := deps.newRuntime(ctx)
	if err != nil {
		return err
	}
	return rt.runOrganization(ctx)
}
