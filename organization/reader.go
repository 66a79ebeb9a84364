package organization

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/cockroachdb/errors"
)

// OrganizationsLister is the read-only subset of the AWS Organizations
// client used to snapshot existing state.
type OrganizationsLister interface {
	DescribeOrganization(ctx context.Context, params *organizations.DescribeOrganizationInput, optFns ...func(*organizations.Options)) (*organizations.DescribeOrganizationOutput, error)
	ListRoots(ctx context.Context, params *organizations.ListRootsInput, optFns ...func(*organizations.Options)) (*organizations.ListRootsOutput, error)
	ListOrganizationalUnitsForParent(ctx context.Context, params *organizations.ListOrganizationalUnitsForParentInput, optFns ...func(*organizations.Options)) (*organizations.ListOrganizationalUnitsForParentOutput, error)
	ListAccounts(ctx context.Context, params *organizations.ListAccountsInput, optFns ...func(*organizations.Options)) (*organizations.ListAccountsOutput, error)
}

// Reader snapshots existing AWS Organizations state: the OU tree and the
// member account list.
type Reader struct {
	client OrganizationsLister
}

// NewReader creates a Reader over the given Organizations client.
func NewReader(client OrganizationsLister) *Reader {
	return &Reader{client: client}
}

// VerifyOrganization confirms AWS Organizations is active and reachable
// for the caller.
func (r *Reader) VerifyOrganization(ctx context.Context) (*orgtypes.Organization, error) {
	out, err := r.client.DescribeOrganization(ctx, &organizations.DescribeOrganizationInput{})
	if err != nil {
		return nil, errors.Wrap(err, "describing organization: AWS Organizations must be enabled in the management account")
	}
	return out.Organization, nil
}

// UnitIndex walks the OU tree depth-first from the organization root and
// returns the complete path index.
func (r *Reader) UnitIndex(ctx context.Context) (*UnitIndex, error) {
	rootID, err := r.rootID(ctx)
	if err != nil {
		return nil, err
	}
	idx := NewUnitIndex(rootID, nil)
	if err := r.walk(ctx, idx, rootID, "", 0); err != nil {
		return nil, err
	}
	return idx, nil
}

func (r *Reader) rootID(ctx context.Context) (string, error) {
	var token *string
	for {
		out, err := r.client.ListRoots(ctx, &organizations.ListRootsInput{NextToken: token})
		if err != nil {
			return "", errors.Wrap(err, "listing organization roots")
		}
		if len(out.Roots) > 0 {
			return aws.ToString(out.Roots[0].Id), nil
		}
		token = out.NextToken
		if token == nil {
			return "", errors.New("organization has no root")
		}
	}
}

func (r *Reader) walk(ctx context.Context, idx *UnitIndex, parentID, parentPath string, parentLevel int) error {
	var token *string
	for {
		out, err := r.client.ListOrganizationalUnitsForParent(ctx, &organizations.ListOrganizationalUnitsForParentInput{
			ParentId:  aws.String(parentID),
			NextToken: token,
		})
		if err != nil {
			return errors.Wrapf(err, "listing organizational units under %s", parentID)
		}
		for _, ou := range out.OrganizationalUnits {
			path := aws.ToString(ou.Name)
			if parentPath != "" {
				path = parentPath + "/" + path
			}
			key := UnitKey{
				Path:       path,
				ID:         aws.ToString(ou.Id),
				Arn:        aws.ToString(ou.Arn),
				Level:      parentLevel + 1,
				ParentPath: parentPath,
				ParentID:   parentID,
			}
			idx.Add(key)
			if err := r.walk(ctx, idx, key.ID, key.Path, key.Level); err != nil {
				return err
			}
		}
		token = out.NextToken
		if token == nil {
			return nil
		}
	}
}

// Accounts lists every account in the organization.
func (r *Reader) Accounts(ctx context.Context) ([]orgtypes.Account, error) {
	var accounts []orgtypes.Account
	var token *string
	for {
		out, err := r.client.ListAccounts(ctx, &organizations.ListAccountsInput{NextToken: token})
		if err != nil {
			return nil, errors.Wrap(err, "listing organization accounts")
		}
		accounts = append(accounts, out.Accounts...)
		token = out.NextToken
		if token == nil {
			return accounts, nil
		}
	}
}
