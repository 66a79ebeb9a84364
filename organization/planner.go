package organization

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	cttypes "github.com/aws/aws-sdk-go-v2/service/controltower/types"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"

	"github.com/groundworkhq/groundwork/gwconfig"
)

// PlannedUnit is the per-OU action plan produced by BuildPlan: whether
// the OU exists, whether it is registered with Control Tower, and which
// configured accounts still need an invitation.
type PlannedUnit struct {
	Relation         gwconfig.OuRelation
	ExistsInOrg      bool
	Existing         UnitKey
	RegisteredInCt   bool
	BaselineStatus   cttypes.EnablementStatus
	AccountsToInvite []gwconfig.AccountConfig
}

// NeedsRegistration reports whether the unit requires an EnableBaseline
// call: it is either unregistered or its last registration FAILED.
// SUCCEEDED registrations are never re-issued.
func (u *PlannedUnit) NeedsRegistration() bool {
	return !u.RegisteredInCt || u.BaselineStatus == cttypes.EnablementStatusFailed
}

// PlannerInput carries the desired state and the live-state snapshots
// the plan is derived from.
type PlannerInput struct {
	Relations        []gwconfig.OuRelation
	Index            *UnitIndex
	EnabledBaselines []cttypes.EnabledBaselineSummary
	OrgAccounts      []orgtypes.Account
	Accounts         *gwconfig.AccountsConfig
	LandingZone      *LandingZone
}

// BuildPlan reconciles desired OUs against existing state. It is pure:
// no AWS calls, no mutation of its inputs. When a landing zone exists,
// its security OU is excluded entirely — Control Tower manages it and
// this module must never create or re-register it.
func BuildPlan(in PlannerInput) []*PlannedUnit {
	members := make(map[string]struct{}, len(in.OrgAccounts))
	for _, acct := range in.OrgAccounts {
		members[aws.ToString(acct.Id)] = struct{}{}
	}

	var plan []*PlannedUnit
	for _, rel := range in.Relations {
		if in.LandingZone != nil && in.LandingZone.SecurityOuName != "" &&
			rel.CompletePath == in.LandingZone.SecurityOuName {
			continue
		}

		unit := &PlannedUnit{Relation: rel}
		if key, ok := in.Index.Lookup(rel.CompletePath); ok {
			unit.ExistsInOrg = true
			unit.Existing = key
			if in.LandingZone != nil {
				unit.RegisteredInCt, unit.BaselineStatus = registrationStatus(in.EnabledBaselines, key.Arn)
			}
		}
		if in.Accounts != nil && !rel.Ignore {
			for _, acct := range in.Accounts.InviteCandidates(rel.CompletePath) {
				if _, present := members[acct.AccountID]; !present {
					unit.AccountsToInvite = append(unit.AccountsToInvite, acct)
				}
			}
		}
		plan = append(plan, unit)
	}
	return plan
}

func registrationStatus(enabled []cttypes.EnabledBaselineSummary, targetArn string) (bool, cttypes.EnablementStatus) {
	for _, b := range enabled {
		if aws.ToString(b.TargetIdentifier) == targetArn {
			var status cttypes.EnablementStatus
			if b.StatusSummary != nil {
				status = b.StatusSummary.Status
			}
			return true, status
		}
	}
	return false, ""
}
