package organization

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// MoveAPI is the subset of the Organizations client the mover uses.
type MoveAPI interface {
	MoveAccount(ctx context.Context, params *organizations.MoveAccountInput, optFns ...func(*organizations.Options)) (*organizations.MoveAccountOutput, error)
}

// Mover relocates freshly accepted accounts from the organization root
// into their configured destination OU. MoveAccount is synchronous, so
// no polling is involved.
type Mover struct {
	client MoveAPI
	logger *zap.Logger
}

// NewMover creates a Mover.
func NewMover(client MoveAPI, logger *zap.Logger) *Mover {
	return &Mover{client: client, logger: logger}
}

// Move relocates the account from the organization root into the OU at
// destPath. The destination must already be indexed, i.e. created or
// listed earlier in the same run.
func (m *Mover) Move(ctx context.Context, accountID, destPath string, idx *UnitIndex) (UnitKey, error) {
	dest, ok := idx.Lookup(destPath)
	if !ok {
		return UnitKey{}, errors.Mark(
			errors.Newf("moving account %s: destination organizational unit %q not found in the organization",
				accountID, destPath),
			ErrConfig,
		)
	}

	_, err := m.client.MoveAccount(ctx, &organizations.MoveAccountInput{
		AccountId:           aws.String(accountID),
		SourceParentId:      aws.String(idx.RootID()),
		DestinationParentId: aws.String(dest.ID),
	})
	if err != nil {
		return UnitKey{}, errors.Wrapf(err, "moving account %s into organizational unit %q", accountID, destPath)
	}
	m.logger.Info("moved account into organizational unit",
		zap.String("account", accountID),
		zap.String("path", destPath),
		zap.String("ou", dest.ID))
	return dest, nil
}
