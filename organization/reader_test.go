package organization_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"

	"github.com/groundworkhq/groundwork/organization"
)

// fakeOrgLister serves a fixed OU tree with one page per parent, plus a
// paginated account list.
type fakeOrgLister struct {
	children     map[string][]orgtypes.OrganizationalUnit
	accountPages [][]orgtypes.Account
}

func (f *fakeOrgLister) DescribeOrganization(_ context.Context, _ *organizations.DescribeOrganizationInput, _ ...func(*organizations.Options)) (*organizations.DescribeOrganizationOutput, error) {
	return &organizations.DescribeOrganizationOutput{
		Organization: &orgtypes.Organization{Id: aws.String("o-1")},
	}, nil
}

func (f *fakeOrgLister) ListRoots(_ context.Context, _ *organizations.ListRootsInput, _ ...func(*organizations.Options)) (*organizations.ListRootsOutput, error) {
	return &organizations.ListRootsOutput{
		Roots: []orgtypes.Root{{Id: aws.String("r-1"), Arn: aws.String("arn:aws:organizations::111111111111:root/o-1/r-1")}},
	}, nil
}

func (f *fakeOrgLister) ListOrganizationalUnitsForParent(_ context.Context, params *organizations.ListOrganizationalUnitsForParentInput, _ ...func(*organizations.Options)) (*organizations.ListOrganizationalUnitsForParentOutput, error) {
	return &organizations.ListOrganizationalUnitsForParentOutput{
		OrganizationalUnits: f.children[aws.ToString(params.ParentId)],
	}, nil
}

func (f *fakeOrgLister) ListAccounts(_ context.Context, params *organizations.ListAccountsInput, _ ...func(*organizations.Options)) (*organizations.ListAccountsOutput, error) {
	page := 0
	if params.NextToken != nil {
		page = 1
	}
	out := &organizations.ListAccountsOutput{Accounts: f.accountPages[page]}
	if page == 0 && len(f.accountPages) > 1 {
		out.NextToken = aws.String("page-2")
	}
	return out, nil
}

func ou(id, name string) orgtypes.OrganizationalUnit {
	return orgtypes.OrganizationalUnit{
		Id:   aws.String(id),
		Arn:  aws.String("arn:aws:organizations::111111111111:ou/o-1/" + id),
		Name: aws.String(name),
	}
}

func TestUnitIndexWalksTreeDepthFirst(t *testing.T) {
	t.Parallel()
	fake := &fakeOrgLister{
		children: map[string][]orgtypes.OrganizationalUnit{
			"r-1":      {ou("ou-infra", "Infrastructure"), ou("ou-work", "Workloads")},
			"ou-infra": {ou("ou-net", "Network")},
		},
	}
	reader := organization.NewReader(fake)

	idx, err := reader.UnitIndex(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if idx.RootID() != "r-1" {
		t.Errorf("root = %q, want r-1", idx.RootID())
	}

	net, ok := idx.Lookup("Infrastructure/Network")
	if !ok {
		t.Fatal("nested OU missing from index")
	}
	if net.ID != "ou-net" || net.Level != 2 || net.ParentPath != "Infrastructure" || net.ParentID != "ou-infra" {
		t.Errorf("nested key = %+v", net)
	}
	if _, ok := idx.Lookup("Workloads"); !ok {
		t.Error("sibling OU missing from index")
	}
}

func TestAccountsPaginates(t *testing.T) {
	t.Parallel()
	fake := &fakeOrgLister{
		accountPages: [][]orgtypes.Account{
			{{Id: aws.String("111111111111")}},
			{{Id: aws.String("222222222222")}},
		},
	}
	reader := organization.NewReader(fake)

	accounts, err := reader.Accounts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(accounts))
	}
}
