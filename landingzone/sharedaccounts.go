package landingzone

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/groundworkhq/groundwork/gwconfig"
)

const accountPollInterval = 1 * time.Minute

// AccountAPI is the subset of the Organizations client the shared
// account provisioner uses.
type AccountAPI interface {
	CreateAccount(ctx context.Context, params *organizations.CreateAccountInput, optFns ...func(*organizations.Options)) (*organizations.CreateAccountOutput, error)
	DescribeCreateAccountStatus(ctx context.Context, params *organizations.DescribeCreateAccountStatusInput, optFns ...func(*organizations.Options)) (*organizations.DescribeCreateAccountStatusOutput, error)
}

// SharedAccounts creates the LogArchive and Audit accounts the landing
// zone requires. Failures are collected per account and reported
// together after every account has been attempted.
type SharedAccounts struct {
	client       AccountAPI
	logger       *zap.Logger
	accessRole   string
	pollInterval time.Duration
}

// NewSharedAccounts creates the provisioner. accessRole is the
// organization access role created in each new account.
func NewSharedAccounts(client AccountAPI, accessRole string, logger *zap.Logger) *SharedAccounts {
	return &SharedAccounts{
		client:       client,
		logger:       logger,
		accessRole:   accessRole,
		pollInterval: accountPollInterval,
	}
}

// Create creates both shared accounts from configuration and polls each
// creation to a terminal state. The configuration must contain exactly
// the two non-Management mandatory accounts.
func (s *SharedAccounts) Create(ctx context.Context, accounts *gwconfig.AccountsConfig) error {
	shared := accounts.SharedAccounts()
	if len(shared) != 2 {
		return errors.New("accounts-config.yaml file do not have both shared account (LogArchive and Audit) details.")
	}

	var failures []error
	for _, acct := range shared {
		if err := s.createAccount(ctx, acct); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

func (s *SharedAccounts) createAccount(ctx context.Context, acct gwconfig.AccountConfig) error {
	out, err := s.client.CreateAccount(ctx, &organizations.CreateAccountInput{
		AccountName: aws.String(acct.Name),
		Email:       aws.String(acct.Email),
		RoleName:    aws.String(s.accessRole),
	})
	if err != nil {
		return errors.Wrapf(err, "creating account %s (%s)", acct.Name, acct.Email)
	}

	requestID := aws.ToString(out.CreateAccountStatus.Id)
	s.logger.Info("creating shared account",
		zap.String("name", acct.Name),
		zap.String("request", requestID))
	return s.waitForAccount(ctx, acct.Name, requestID)
}

// waitForAccount polls the creation request every minute until it leaves
// IN_PROGRESS. Account creation is bounded on the AWS side, so there is
// no overall timeout here.
func (s *SharedAccounts) waitForAccount(ctx context.Context, name, requestID string) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		out, err := s.client.DescribeCreateAccountStatus(ctx, &organizations.DescribeCreateAccountStatusInput{
			CreateAccountRequestId: aws.String(requestID),
		})
		if err != nil {
			return errors.Wrapf(err, "polling creation of account %s", name)
		}
		status := out.CreateAccountStatus

		switch status.State {
		case orgtypes.CreateAccountStateSucceeded:
			s.logger.Info("created shared account",
				zap.String("name", name),
				zap.String("account", aws.ToString(status.AccountId)))
			return nil
		case orgtypes.CreateAccountStateInProgress:
			s.logger.Info("shared account creation in progress", zap.String("name", name))
		default:
			return errors.Newf("creation of account %s failed: %s; review the AWS Organizations console",
				name, string(status.FailureReason))
		}

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "waiting for creation of account %s", name)
		case <-ticker.C:
		}
	}
}
