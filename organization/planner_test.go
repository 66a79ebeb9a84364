package organization_test

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cttypes "github.com/aws/aws-sdk-go-v2/service/controltower/types"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"

	"github.com/groundworkhq/groundwork/gwconfig"
	"github.com/groundworkhq/groundwork/organization"
)

func testRelations(t *testing.T, paths ...string) []gwconfig.OuRelation {
	t.Helper()
	cfg := gwconfig.OrganizationConfig{}
	for _, p := range paths {
		cfg.OrganizationalUnits = append(cfg.OrganizationalUnits, gwconfig.OrganizationalUnitConfig{Name: p})
	}
	return cfg.OuRelations()
}

func findUnit(t *testing.T, plan []*organization.PlannedUnit, path string) *organization.PlannedUnit {
	t.Helper()
	for _, u := range plan {
		if u.Relation.CompletePath == path {
			return u
		}
	}
	t.Fatalf("plan has no unit for %q", path)
	return nil
}

func TestBuildPlanExistence(t *testing.T) {
	t.Parallel()
	idx := organization.NewUnitIndex("r-1", []organization.UnitKey{
		{Path: "Infrastructure", ID: "ou-infra", Arn: "arn:aws:organizations::111:ou/o-1/ou-infra", Level: 1},
	})

	plan := organization.BuildPlan(organization.PlannerInput{
		Relations: testRelations(t, "Infrastructure", "Infrastructure/Network"),
		Index:     idx,
		Accounts:  &gwconfig.AccountsConfig{},
	})

	if got := findUnit(t, plan, "Infrastructure"); !got.ExistsInOrg {
		t.Error("Infrastructure should exist in org")
	}
	if got := findUnit(t, plan, "Infrastructure/Network"); got.ExistsInOrg {
		t.Error("Infrastructure/Network should not exist in org")
	}
}

func TestBuildPlanRegistrationStatus(t *testing.T) {
	t.Parallel()
	ouArn := "arn:aws:organizations::111:ou/o-1/ou-infra"
	idx := organization.NewUnitIndex("r-1", []organization.UnitKey{
		{Path: "Infrastructure", ID: "ou-infra", Arn: ouArn, Level: 1},
	})

	plan := organization.BuildPlan(organization.PlannerInput{
		Relations:   testRelations(t, "Infrastructure"),
		Index:       idx,
		LandingZone: &organization.LandingZone{Version: "3.3"},
		EnabledBaselines: []cttypes.EnabledBaselineSummary{{
			TargetIdentifier: aws.String(ouArn),
			StatusSummary:    &cttypes.EnablementStatusSummary{Status: cttypes.EnablementStatusFailed},
		}},
		Accounts: &gwconfig.AccountsConfig{},
	})

	unit := findUnit(t, plan, "Infrastructure")
	if !unit.RegisteredInCt {
		t.Error("unit should be registered")
	}
	if unit.BaselineStatus != cttypes.EnablementStatusFailed {
		t.Errorf("status = %s, want FAILED", unit.BaselineStatus)
	}
	if !unit.NeedsRegistration() {
		t.Error("FAILED registration should need re-registration")
	}
}

func TestBuildPlanSucceededNeedsNoRegistration(t *testing.T) {
	t.Parallel()
	ouArn := "arn:aws:organizations::111:ou/o-1/ou-infra"
	idx := organization.NewUnitIndex("r-1", []organization.UnitKey{
		{Path: "Infrastructure", ID: "ou-infra", Arn: ouArn, Level: 1},
	})

	plan := organization.BuildPlan(organization.PlannerInput{
		Relations:   testRelations(t, "Infrastructure"),
		Index:       idx,
		LandingZone: &organization.LandingZone{Version: "3.3"},
		EnabledBaselines: []cttypes.EnabledBaselineSummary{{
			TargetIdentifier: aws.String(ouArn),
			StatusSummary:    &cttypes.EnablementStatusSummary{Status: cttypes.EnablementStatusSucceeded},
		}},
		Accounts: &gwconfig.AccountsConfig{},
	})

	if findUnit(t, plan, "Infrastructure").NeedsRegistration() {
		t.Error("SUCCEEDED registration must not be re-issued")
	}
}

func TestBuildPlanFiltersSecurityOu(t *testing.T) {
	t.Parallel()
	plan := organization.BuildPlan(organization.PlannerInput{
		Relations:   testRelations(t, "Security", "Workloads"),
		Index:       organization.NewUnitIndex("r-1", nil),
		LandingZone: &organization.LandingZone{SecurityOuName: "Security"},
		Accounts:    &gwconfig.AccountsConfig{},
	})

	for _, unit := range plan {
		if unit.Relation.CompletePath == "Security" {
			t.Fatal("security OU must be excluded from the plan")
		}
	}
	findUnit(t, plan, "Workloads")
}

func TestBuildPlanAccountsToInvite(t *testing.T) {
	t.Parallel()
	accounts := &gwconfig.AccountsConfig{
		WorkloadAccounts: []gwconfig.AccountConfig{
			{Name: "app1", Email: "app1@example.com", OrganizationalUnit: "Workloads", AccountID: "111111111111"},
			{Name: "app2", Email: "app2@example.com", OrganizationalUnit: "Workloads", AccountID: "222222222222"},
			{Name: "app3", Email: "app3@example.com", OrganizationalUnit: "Other", AccountID: "333333333333"},
		},
	}

	plan := organization.BuildPlan(organization.PlannerInput{
		Relations: testRelations(t, "Workloads"),
		Index:     organization.NewUnitIndex("r-1", nil),
		OrgAccounts: []orgtypes.Account{
			{Id: aws.String("222222222222"), Email: aws.String("app2@example.com")},
		},
		Accounts: accounts,
	})

	unit := findUnit(t, plan, "Workloads")
	if len(unit.AccountsToInvite) != 1 || unit.AccountsToInvite[0].AccountID != "111111111111" {
		t.Fatalf("AccountsToInvite = %+v, want only app1", unit.AccountsToInvite)
	}
}

func TestBuildPlanIgnoredOuSkipsInvites(t *testing.T) {
	t.Parallel()
	cfg := gwconfig.OrganizationConfig{
		OrganizationalUnits: []gwconfig.OrganizationalUnitConfig{{Name: "Sandbox", Ignore: true}},
	}
	accounts := &gwconfig.AccountsConfig{
		WorkloadAccounts: []gwconfig.AccountConfig{
			{Name: "sb", Email: "sb@example.com", OrganizationalUnit: "Sandbox", AccountID: "444444444444"},
		},
	}

	plan := organization.BuildPlan(organization.PlannerInput{
		Relations: cfg.OuRelations(),
		Index:     organization.NewUnitIndex("r-1", nil),
		Accounts:  accounts,
	})

	if unit := findUnit(t, plan, "Sandbox"); len(unit.AccountsToInvite) != 0 {
		t.Fatalf("ignored OU must have no invite candidates, got %+v", unit.AccountsToInvite)
	}
}
