package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/service/controltower"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/groundworkhq/groundwork/appkit"
	"github.com/groundworkhq/groundwork/cmd/internal/runcfg"
	"github.com/groundworkhq/groundwork/creds"
	"github.com/groundworkhq/groundwork/gwconfig"
	"github.com/groundworkhq/groundwork/landingzone"
	"github.com/groundworkhq/groundwork/organization"
)

// cmddeps carries the parsed workspace configuration and the global CLI
// flags into subcommand Run methods. AWS wiring happens lazily in
// newRuntime so commands that fail config validation never touch AWS.
type cmddeps struct {
	cfg          *runcfg.Config
	configBucket string
}

// runtime is the fully wired execution environment for one command.
type runtime struct {
	logger    *zap.Logger
	gw        *gwconfig.Config
	awsCfg    aws.Config
	accountID string
	partition string
}

func (d *cmddeps) newRuntime(ctx context.Context) (*runtime, error) {
	env, err := appkit.ParseEnv()
	if err != nil {
		return nil, err
	}
	logger, err := appkit.NewLogger(env.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}

	awsCfg, err := appkit.NewAWSConfig(ctx, d.cfg.Aws.Region, d.cfg.Aws.Profile)
	if err != nil {
		return nil, err
	}

	var gw *gwconfig.Config
	if d.configBucket != "" {
		gw, err = gwconfig.LoadFromS3(ctx, s3.NewFromConfig(awsCfg), d.configBucket, env.ConfigPrefix)
	} else {
		gw, err = gwconfig.Load(d.cfg.ConfigPath())
	}
	if err != nil {
		return nil, err
	}
	if gw.Global.HomeRegion != "" {
		awsCfg.Region = gw.Global.HomeRegion
	}

	ident, err := sts.NewFromConfig(awsCfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, errors.Wrap(err, "resolving caller identity")
	}
	callerArn, err := arn.Parse(aws.ToString(ident.Arn))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing caller arn %q", aws.ToString(ident.Arn))
	}

	return &runtime{
		logger:    logger,
		gw:        gw,
		awsCfg:    awsCfg,
		accountID: aws.ToString(ident.Account),
		partition: callerArn.Partition,
	}, nil
}

// orgModule wires the organization orchestrator against real clients.
func (rt *runtime) orgModule() *organization.Module {
	orgClient := organizations.NewFromConfig(rt.awsCfg)
	broker := creds.NewBroker(rt.awsCfg, sts.NewFromConfig(rt.awsCfg), rt.gw.Global.AccessRole(), rt.logger)

	return organization.NewModule(organization.ModuleProps{
		Config:        rt.gw,
		Organizations: orgClient,
		ControlTower:  controltower.NewFromConfig(rt.awsCfg),
		Connect: func(ctx context.Context, accountID string) (organization.MemberAPI, error) {
			memberCfg, err := broker.ConfigFor(ctx, accountID)
			if err != nil {
				return nil, err
			}
			return organizations.NewFromConfig(memberCfg), nil
		},
		Logger: rt.logger,
	})
}

// Stage implementations shared by the subcommands and `groundwork run`.

func (rt *runtime) runOrganization(ctx context.Context) error {
	status, err := rt.orgModule().Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, status)
	return nil
}

func (rt *runtime) runBootstrapRoles(ctx context.Context) error {
	roles := landingzone.NewServiceRoles(iam.NewFromConfig(rt.awsCfg), rt.partition, rt.logger)
	if err := roles.Create(ctx); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Created Control Tower service roles.")
	return nil
}

func (rt *runtime) runBootstrapKey(ctx context.Context) error {
	key := landingzone.NewKey(kms.NewFromConfig(rt.awsCfg), rt.partition, rt.accountID, rt.logger)
	keyArn, err := key.Create(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Created Control Tower key %s with alias %s.\n", keyArn, landingzone.ControlTowerKeyAlias)
	return nil
}

func (rt *runtime) runBootstrapAccounts(ctx context.Context) error {
	shared := landingzone.NewSharedAccounts(
		organizations.NewFromConfig(rt.awsCfg),
		rt.gw.Global.AccessRole(),
		rt.logger,
	)
	if err := shared.Create(ctx, &rt.gw.Accounts); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Created shared accounts.")
	return nil
}

// stageRunner maps a stage name from groundwork.toml to its implementation.
func (rt *runtime) stageRunner(name string) (func(ctx context.Context) error, bool) {
	switch name {
	case runcfg.StageBootstrapRoles:
		return rt.runBootstrapRoles, true
	case runcfg.StageBootstrapKey:
		return rt.runBootstrapKey, true
	case runcfg.StageBootstrapAccounts:
		return rt.runBootstrapAccounts, true
	case runcfg.StageOrganization:
		return rt.runOrganization, true
	}
	return nil, false
}
