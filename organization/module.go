package organization

import (
	"context"

	cttypes "github.com/aws/aws-sdk-go-v2/service/controltower/types"
	"go.uber.org/zap"

	"github.com/groundworkhq/groundwork/gwconfig"
)

// OrganizationsAPI is the full management-account surface of the AWS
// Organizations client the module uses. *organizations.Client satisfies it.
type OrganizationsAPI interface {
	OrganizationsLister
	UnitCreatorAPI
	InviteAPI
	MoveAPI
}

// ControlTowerAPI is the full surface of the Control Tower client the
// module uses. *controltower.Client satisfies it.
type ControlTowerAPI interface {
	ControlTowerLister
	BaselineAPI
}

// ModuleProps wires a Module.
type ModuleProps struct {
	Config        *gwconfig.Config
	Organizations OrganizationsAPI
	ControlTower  ControlTowerAPI
	Connect       MemberConnector
	Logger        *zap.Logger
}

// Module is the organization control-plane orchestrator entry point.
type Module struct {
	cfg       *gwconfig.Config
	reader    *Reader
	ctReader  *ControlTowerReader
	creator   *Creator
	registrar *Registrar
	inviter   *Inviter
	mover     *Mover
	logger    *zap.Logger
}

// NewModule assembles the orchestrator from its collaborators.
func NewModule(props ModuleProps) *Module {
	return &Module{
		cfg:       props.Config,
		reader:    NewReader(props.Organizations),
		ctReader:  NewControlTowerReader(props.ControlTower),
		creator:   NewCreator(props.Organizations, props.Logger),
		registrar: NewRegistrar(props.ControlTower, props.Logger),
		inviter:   NewInviter(props.Organizations, props.Connect, props.Logger),
		mover:     NewMover(props.Organizations, props.Logger),
		logger:    props.Logger,
	}
}

// snapshot holds the live-state reads a plan is derived from.
type snapshot struct {
	index       *UnitIndex
	plan        []*PlannedUnit
	landingZone *LandingZone
	baselines   []cttypes.BaselineSummary
	input       PlannerInput
}

// Plan snapshots live state and reconciles it against configuration
// without mutating anything. It backs both the dry-run surface and the
// first phase of Run.
func (m *Module) Plan(ctx context.Context) ([]*PlannedUnit, error) {
	snap, err := m.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.plan, nil
}

func (m *Module) snapshot(ctx context.Context) (*snapshot, error) {
	if _, err := m.reader.VerifyOrganization(ctx); err != nil {
		return nil, err
	}
	index, err := m.reader.UnitIndex(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := m.reader.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	in := PlannerInput{
		Relations:   m.cfg.Organization.OuRelations(),
		Index:       index,
		OrgAccounts: accounts,
		Accounts:    &m.cfg.Accounts,
	}
	var baselines []cttypes.BaselineSummary
	if m.cfg.Global.ControlTower.Enable {
		zone, err := m.ctReader.LandingZone(ctx)
		if err != nil {
			return nil, err
		}
		in.LandingZone = zone
		if zone != nil {
			if in.EnabledBaselines, err = m.ctReader.EnabledBaselines(ctx); err != nil {
				return nil, err
			}
			if baselines, err = m.ctReader.Baselines(ctx); err != nil {
				return nil, err
			}
		}
	}

	return &snapshot{
		index:       index,
		plan:        BuildPlan(in),
		landingZone: in.LandingZone,
		baselines:   baselines,
		input:       in,
	}, nil
}

// Run executes one full orchestration pass and returns the
// newline-joined status report of every action taken. Any fatal
// condition aborts the run with an error; there is no partial-success
// report.
func (m *Module) Run(ctx context.Context) (string, error) {
	if !m.cfg.Organization.Enable {
		return "organization management is disabled in organization-config.yaml; no actions taken", nil
	}

	snap, err := m.snapshot(ctx)
	if err != nil {
		return "", err
	}

	report := &Report{}
	for _, unit := range snap.plan {
		if err := m.reconcileUnit(ctx, snap, unit, report); err != nil {
			return "", err
		}
	}
	if report.Empty() {
		return "organization already matches configuration; no actions taken", nil
	}
	return report.String(), nil
}

// reconcileUnit drives one OU through create, register, and
// invite-and-move, in that order. The OU must exist before registration
// or account movement can target it.
func (m *Module) reconcileUnit(ctx context.Context, snap *snapshot, unit *PlannedUnit, report *Report) error {
	key := unit.Existing
	if !unit.ExistsInOrg {
		created, err := m.creator.Create(ctx, unit.Relation, snap.index)
		if err != nil {
			return err
		}
		key = created
		unit.ExistsInOrg = true
		unit.Existing = created
		report.Addf("Created organizational unit %s (%s).", key.Path, key.ID)
	}

	if snap.landingZone != nil && !unit.Relation.Ignore {
		registered, err := m.registrar.Register(ctx, unit, key, snap.landingZone,
			snap.baselines, snap.input.EnabledBaselines)
		if err != nil {
			return err
		}
		if registered {
			report.Addf("Registered organizational unit %s with the %s baseline.", key.Path, controlTowerBaselineName)
		}
	}

	if unit.Relation.Ignore || len(unit.AccountsToInvite) == 0 {
		return nil
	}
	pending, err := m.inviter.PendingInvites(ctx, unit.AccountsToInvite)
	if err != nil {
		return err
	}
	for _, acct := range pending {
		if err := m.inviter.Invite(ctx, acct); err != nil {
			return err
		}
		report.Addf("Invited account %s (%s) into the organization.", acct.Name, acct.AccountID)

		dest, err := m.mover.Move(ctx, acct.AccountID, unit.Relation.CompletePath, snap.index)
		if err != nil {
			return err
		}
		report.Addf("Moved account %s (%s) into organizational unit %s (%s).", acct.Name, acct.AccountID, dest.Path, dest.ID)
	}
	return nil
}
