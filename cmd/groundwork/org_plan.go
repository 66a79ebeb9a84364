package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

type OrgPlanCmd struct{}

func (c *OrgPlanCmd) Run(deps *cmddeps) error {
	ctx := context.Background()
	rt, err := deps.newRuntime(ctx)
	if err != nil {
		return err
	}

	plan, err := rt.orgModule().Plan(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join([]string{"OU", "EXISTS", "REGISTERED", "INVITES", "ACTIONS"}, "\t"))
	for _, unit := range plan {
		var actions []string
		if !unit.ExistsInOrg {
			actions = append(actions, "create")
		}
		if !unit.Relation.Ignore && unit.NeedsRegistration() {
			actions = append(actions, "register")
		}
		if len(unit.AccountsToInvite) > 0 {
			actions = append(actions, "invite")
		}
		if len(actions) == 0 {
			actions = append(actions, "none")
		}
		fmt.Fprintln(w, strings.Join([]string{
			unit.Relation.CompletePath,
			fmt.Sprintf("%t", unit.ExistsInOrg),
			fmt.Sprintf("%t", unit.RegisteredInCt),
			fmt.Sprintf("%d", len(unit.AccountsToInvite)),
			strings.Join(actions, ","),
		}, "\t"))
	}
	return w.Flush()
}
