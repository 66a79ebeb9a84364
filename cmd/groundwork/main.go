package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/groundworkhq/groundwork/cmd/internal/runcfg"
)

type App struct {
	ConfigBucket string `help:"Load accelerator configuration from this S3 bucket instead of the local config directory."`

	Org struct {
		Plan   OrgPlanCmd   `cmd:"" help:"Show the per-OU action plan without changing anything."`
		Deploy OrgDeployCmd `cmd:"" help:"Reconcile the organization: create OUs, register baselines, invite and move accounts."`
	} `cmd:"" help:"Organization control-plane commands."`

	Bootstrap struct {
		Roles    BootstrapRolesCmd    `cmd:"" help:"Create the four Control Tower service roles."`
		Key      BootstrapKeyCmd      `cmd:"" help:"Create the Control Tower KMS key and alias."`
		Accounts BootstrapAccountsCmd `cmd:"" help:"Create the LogArchive and Audit shared accounts."`
	} `cmd:"" help:"Landing zone bring-up commands."`

	Run RunCmd `cmd:"" help:"Execute the stages declared in groundwork.toml in dependency order."`
}

func main() {
	cfg, err := runcfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var app App
	ctx := kong.Parse(&app,
		kong.Name("groundwork"),
		kong.Description("AWS landing zone orchestration CLI."),
		kong.Bind(cfg),
	)

	deps := &cmddeps{cfg: cfg, configBucket: app.ConfigBucket}

	if err := ctx.Run(deps); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
