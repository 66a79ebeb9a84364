// Package creds resolves cross-account temporary credentials. The broker
// assumes the management access role in member accounts via STS, but
// short-circuits to the ambient credentials when the caller already is
// the target account.
package creds

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// STSAPI is the subset of the STS client the broker uses.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// Broker hands out aws.Configs scoped to member accounts.
type Broker struct {
	base     aws.Config
	client   STSAPI
	roleName string
	logger   *zap.Logger
}

// NewBroker creates a broker that assumes roleName in target accounts,
// starting from the given management-account configuration.
func NewBroker(base aws.Config, client STSAPI, roleName string, logger *zap.Logger) *Broker {
	return &Broker{base: base, client: client, roleName: roleName, logger: logger}
}

// ConfigFor returns an aws.Config carrying credentials valid in the given
// account. When the caller identity already belongs to that account the
// base configuration is returned unchanged.
func (b *Broker) ConfigFor(ctx context.Context, accountID string) (aws.Config, error) {
	ident, err := b.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "resolving caller identity")
	}
	if aws.ToString(ident.Account) == accountID {
		b.logger.Debug("already in target account, skipping assume-role",
			zap.String("account", accountID))
		return b.base, nil
	}

	roleArn, err := b.roleArn(aws.ToString(ident.Arn), accountID)
	if err != nil {
		return aws.Config{}, err
	}
	b.logger.Info("assuming role in member account",
		zap.String("account", accountID),
		zap.String("role", b.roleName))

	provider := stscreds.NewAssumeRoleProvider(b.client, roleArn)
	cfg := b.base.Copy()
	cfg.Credentials = aws.NewCredentialsCache(provider)
	return cfg, nil
}

// roleArn builds the member-account role ARN in the caller's partition.
func (b *Broker) roleArn(callerArn, accountID string) (string, error) {
	parsed, err := arn.Parse(callerArn)
	if err != nil {
		return "", errors.Wrapf(err, "parsing caller arn %q", callerArn)
	}
	return fmt.Sprintf("arn:%s:iam::%s:role/%s", parsed.Partition, accountID, b.roleName), nil
}
