package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/groundworkhq/groundwork/gwconfig"
	"github.com/groundworkhq/groundwork/organization"
)

// API is the Organizations surface the reconciler uses.
type API interface {
	organization.OrganizationsLister
	DescribeAccount(ctx context.Context, params *organizations.DescribeAccountInput, optFns ...func(*organizations.Options)) (*organizations.DescribeAccountOutput, error)
	ListParents(ctx context.Context, params *organizations.ListParentsInput, optFns ...func(*organizations.Options)) (*organizations.ListParentsOutput, error)
	MoveAccount(ctx context.Context, params *organizations.MoveAccountInput, optFns ...func(*organizations.Options)) (*organizations.MoveAccountOutput, error)
}

// Reconciler places one account into its configured OU.
type Reconciler struct {
	client API
	reader *organization.Reader
	logger *zap.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(client API, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		client: client,
		reader: organization.NewReader(client),
		logger: logger,
	}
}

// ReconcileAccount looks up the account's configured OU by email and
// moves the account there unless it is already in place. Accounts
// without a configuration entry or without a target OU are left alone.
func (r *Reconciler) ReconcileAccount(ctx context.Context, cfg *gwconfig.Config, accountID string) (string, error) {
	desc, err := r.client.DescribeAccount(ctx, &organizations.DescribeAccountInput{
		AccountId: aws.String(accountID),
	})
	if err != nil {
		return "", errors.Wrapf(err, "describing account %s", accountID)
	}
	email := aws.ToString(desc.Account.Email)

	acct, ok := accountByEmail(&cfg.Accounts, email)
	if !ok {
		return fmt.Sprintf("account %s (%s) is not in accounts-config.yaml; nothing to do", accountID, email), nil
	}
	if acct.OrganizationalUnit == "" {
		return fmt.Sprintf("account %s (%s) has no target organizational unit; nothing to do", acct.Name, accountID), nil
	}

	idx, err := r.reader.UnitIndex(ctx)
	if err != nil {
		return "", err
	}
	dest, ok := idx.Lookup(acct.OrganizationalUnit)
	if !ok {
		return "", errors.Newf("organizational unit %q configured for account %s does not exist in the organization",
			acct.OrganizationalUnit, acct.Name)
	}

	currentParent, err := r.currentParent(ctx, accountID)
	if err != nil {
		return "", err
	}
	if currentParent == dest.ID {
		return fmt.Sprintf("account %s (%s) is already in organizational unit %s; nothing to do",
			acct.Name, accountID, dest.Path), nil
	}

	_, err = r.client.MoveAccount(ctx, &organizations.MoveAccountInput{
		AccountId:           aws.String(accountID),
		SourceParentId:      aws.String(currentParent),
		DestinationParentId: aws.String(dest.ID),
	})
	if err != nil {
		return "", errors.Wrapf(err, "moving account %s into organizational unit %q", accountID, dest.Path)
	}
	r.logger.Info("moved account into configured organizational unit",
		zap.String("account", accountID),
		zap.String("path", dest.Path))
	return fmt.Sprintf("Moved account %s (%s) into organizational unit %s (%s).",
		acct.Name, accountID, dest.Path, dest.ID), nil
}

func (r *Reconciler) currentParent(ctx context.Context, accountID string) (string, error) {
	out, err := r.client.ListParents(ctx, &organizations.ListParentsInput{
		ChildId: aws.String(accountID),
	})
	if err != nil {
		return "", errors.Wrapf(err, "listing parents of account %s", accountID)
	}
	if len(out.Parents) == 0 {
		return "", errors.Newf("account %s has no parent in the organization", accountID)
	}
	return aws.ToString(out.Parents[0].Id), nil
}

func accountByEmail(accounts *gwconfig.AccountsConfig, email string) (gwconfig.AccountConfig, bool) {
	for _, acct := range accounts.All() {
		if strings.EqualFold(acct.Email, email) {
			return acct, true
		}
	}
	return gwconfig.AccountConfig{}, false
}
