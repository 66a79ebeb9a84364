package organization

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/groundworkhq/groundwork/gwconfig"
)

// UnitCreatorAPI is the subset of the Organizations client the creator uses.
type UnitCreatorAPI interface {
	CreateOrganizationalUnit(ctx context.Context, params *organizations.CreateOrganizationalUnitInput, optFns ...func(*organizations.Options)) (*organizations.CreateOrganizationalUnitOutput, error)
}

// Creator issues CreateOrganizationalUnit calls and records the new OUs
// in the shared index so later children in the same run can resolve them
// as parents.
type Creator struct {
	client UnitCreatorAPI
	logger *zap.Logger
}

// NewCreator creates a Creator.
func NewCreator(client UnitCreatorAPI, logger *zap.Logger) *Creator {
	return &Creator{client: client, logger: logger}
}

// Create creates the OU described by rel under its parent and appends it
// to the index. The parent must already be indexed: configuration order
// is parent-before-child, so a missing parent means the hierarchy is
// malformed.
func (c *Creator) Create(ctx context.Context, rel gwconfig.OuRelation, idx *UnitIndex) (UnitKey, error) {
	parentID := idx.RootID()
	if rel.ParentPath != "" {
		parent, ok := idx.Lookup(rel.ParentPath)
		if !ok {
			return UnitKey{}, errors.Mark(
				errors.Newf("creating organizational unit %q: parent %q not found; organization-config.yaml must list parent OUs before their children",
					rel.CompletePath, rel.ParentPath),
				ErrConfig,
			)
		}
		parentID = parent.ID
	}

	out, err := c.client.CreateOrganizationalUnit(ctx, &organizations.CreateOrganizationalUnitInput{
		Name:     aws.String(rel.Name),
		ParentId: aws.String(parentID),
	})
	if err != nil {
		var dup *orgtypes.DuplicateOrganizationalUnitException
		if errors.As(err, &dup) {
			c.logger.Warn("organizational unit already exists; it was created outside this run",
				zap.String("path", rel.CompletePath),
				zap.String("parent", parentID))
		}
		return UnitKey{}, errors.Wrapf(err, "creating organizational unit %q under %s", rel.CompletePath, parentID)
	}

	key := UnitKey{
		Path:       rel.CompletePath,
		ID:         aws.ToString(out.OrganizationalUnit.Id),
		Arn:        aws.ToString(out.OrganizationalUnit.Arn),
		Level:      rel.Level,
		ParentPath: rel.ParentPath,
		ParentID:   parentID,
	}
	idx.Add(key)
	c.logger.Info("created organizational unit",
		zap.String("path", key.Path),
		zap.String("id", key.ID))
	return key, nil
}
