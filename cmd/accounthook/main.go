// Command accounthook is the Lambda handler for account lifecycle
// events. EventBridge delivers Control Tower CreateManagedAccount and
// Organizations CreateAccountResult events; the handler loads the
// accelerator configuration from S3 and moves the new account into its
// configured organizational unit.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/groundworkhq/groundwork/appkit"
	"github.com/groundworkhq/groundwork/gwconfig"
	"github.com/groundworkhq/groundwork/lifecycle"
)

type handler struct {
	env        appkit.Environment
	s3         *s3.Client
	reconciler *lifecycle.Reconciler
	logger     *zap.Logger
}

func newHandler(env appkit.Environment, s3Client *s3.Client, org *organizations.Client, logger *zap.Logger) (*handler, error) {
	if env.ConfigBucket == "" {
		return nil, errors.New("GW_CONFIG_BUCKET is required")
	}
	return &handler{
		env:        env,
		s3:         s3Client,
		reconciler: lifecycle.NewReconciler(org, logger),
		logger:     logger,
	}, nil
}

func (h *handler) Handle(ctx context.Context, event events.CloudWatchEvent) error {
	accountID, err := lifecycle.AccountID(event)
	if err != nil {
		return err
	}
	h.logger.Info("handling account lifecycle event",
		zap.String("account", accountID),
		zap.String("detail-type", event.DetailType))

	cfg, err := gwconfig.LoadFromS3(ctx, h.s3, h.env.ConfigBucket, h.env.ConfigPrefix)
	if err != nil {
		return err
	}
	status, err := h.reconciler.ReconcileAccount(ctx, cfg, accountID)
	if err != nil {
		return err
	}
	h.logger.Info("account lifecycle event handled", zap.String("status", status))
	return nil
}

func main() {
	var h *handler
	app := appkit.New(
		appkit.WithAWSClient(func(cfg aws.Config) *s3.Client {
			return s3.NewFromConfig(cfg)
		}),
		appkit.WithAWSClient(func(cfg aws.Config) *organizations.Client {
			return organizations.NewFromConfig(cfg)
		}),
		fx.Provide(newHandler),
		fx.Populate(&h),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer app.Stop(ctx) //nolint:errcheck // the Lambda runtime terminates the process

	lambda.Start(h.Handle)
}
