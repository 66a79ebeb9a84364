package organization

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/groundworkhq/groundwork/gwconfig"
)

const (
	handshakePollInterval = 1 * time.Minute
	handshakePollTimeout  = 10 * time.Minute
)

// InviteAPI is the management-account subset of the Organizations client
// the inviter uses.
type InviteAPI interface {
	DescribeAccount(ctx context.Context, params *organizations.DescribeAccountInput, optFns ...func(*organizations.Options)) (*organizations.DescribeAccountOutput, error)
	InviteAccountToOrganization(ctx context.Context, params *organizations.InviteAccountToOrganizationInput, optFns ...func(*organizations.Options)) (*organizations.InviteAccountToOrganizationOutput, error)
	ListHandshakesForOrganization(ctx context.Context, params *organizations.ListHandshakesForOrganizationInput, optFns ...func(*organizations.Options)) (*organizations.ListHandshakesForOrganizationOutput, error)
	CancelHandshake(ctx context.Context, params *organizations.CancelHandshakeInput, optFns ...func(*organizations.Options)) (*organizations.CancelHandshakeOutput, error)
}

// MemberAPI is the invitee-side subset of the Organizations client, used
// with credentials assumed in the target account.
type MemberAPI interface {
	AcceptHandshake(ctx context.Context, params *organizations.AcceptHandshakeInput, optFns ...func(*organizations.Options)) (*organizations.AcceptHandshakeOutput, error)
	ListHandshakesForAccount(ctx context.Context, params *organizations.ListHandshakesForAccountInput, optFns ...func(*organizations.Options)) (*organizations.ListHandshakesForAccountOutput, error)
}

// MemberConnector builds an invitee-side Organizations client for the
// given account, typically by assuming the management access role there.
type MemberConnector func(ctx context.Context, accountID string) (MemberAPI, error)

// Inviter runs the two-party invitation handshake: invite from the
// management account, accept from the invitee account, polled to
// acceptance. Any failure mid-protocol cancels the open handshake before
// the error propagates, so no orphaned invitation is left behind.
type Inviter struct {
	client       InviteAPI
	connect      MemberConnector
	logger       *zap.Logger
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewInviter creates an Inviter with the production polling cadence
// (every minute, 10 minute limit).
func NewInviter(client InviteAPI, connect MemberConnector, logger *zap.Logger) *Inviter {
	return &Inviter{
		client:       client,
		connect:      connect,
		logger:       logger,
		pollInterval: handshakePollInterval,
		pollTimeout:  handshakePollTimeout,
	}
}

// PendingInvites re-checks organization membership for every candidate
// concurrently and returns, in input order, the candidates still outside
// the organization. The checks are read-only, so the concurrent batch is
// safe.
func (i *Inviter) PendingInvites(ctx context.Context, candidates []gwconfig.AccountConfig) ([]gwconfig.AccountConfig, error) {
	outside := make([]bool, len(candidates))
	grp, grpCtx := errgroup.WithContext(ctx)
	for idx, acct := range candidates {
		grp.Go(func() error {
			_, err := i.client.DescribeAccount(grpCtx, &organizations.DescribeAccountInput{
				AccountId: aws.String(acct.AccountID),
			})
			if err != nil {
				var notFound *orgtypes.AccountNotFoundException
				if errors.As(err, &notFound) {
					outside[idx] = true
					return nil
				}
				return errors.Wrapf(err, "checking membership of account %s", acct.AccountID)
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	var pending []gwconfig.AccountConfig
	for idx, acct := range candidates {
		if outside[idx] {
			pending = append(pending, acct)
		} else {
			i.logger.Info("account already in organization, skipping invitation",
				zap.String("account", acct.AccountID),
				zap.String("name", acct.Name))
		}
	}
	return pending, nil
}

// Invite runs the full invite-and-accept sequence for one account.
func (i *Inviter) Invite(ctx context.Context, acct gwconfig.AccountConfig) error {
	out, err := i.client.InviteAccountToOrganization(ctx, &organizations.InviteAccountToOrganizationInput{
		Target: &orgtypes.HandshakeParty{
			Id:   aws.String(acct.AccountID),
			Type: orgtypes.HandshakePartyTypeAccount,
		},
	})
	if err != nil {
		// The SDK may have created the handshake before failing.
		i.cancelOpenHandshakeFor(ctx, acct.AccountID)
		return errors.Wrapf(err, "inviting account %s (%s) to the organization", acct.AccountID, acct.Email)
	}
	handshakeID := aws.ToString(out.Handshake.Id)
	i.logger.Info("invited account to organization",
		zap.String("account", acct.AccountID),
		zap.String("handshake", handshakeID))

	if err := i.accept(ctx, acct, handshakeID); err != nil {
		i.cancel(ctx, acct.AccountID, handshakeID)
		return err
	}
	return nil
}

// accept assumes into the invitee account and accepts the handshake,
// polling until acceptance is visible when the accept response is not
// already terminal.
func (i *Inviter) accept(ctx context.Context, acct gwconfig.AccountConfig, handshakeID string) error {
	member, err := i.connect(ctx, acct.AccountID)
	if err != nil {
		return errors.Wrapf(err, "assuming role in account %s to accept handshake %s", acct.AccountID, handshakeID)
	}

	out, err := member.AcceptHandshake(ctx, &organizations.AcceptHandshakeInput{
		HandshakeId: aws.String(handshakeID),
	})
	if err != nil {
		return errors.Wrapf(err, "accepting handshake %s from account %s", handshakeID, acct.AccountID)
	}
	if out.Handshake != nil && out.Handshake.State == orgtypes.HandshakeStateAccepted {
		return nil
	}
	return i.waitForAcceptance(ctx, member, acct.AccountID, handshakeID)
}

func (i *Inviter) waitForAcceptance(ctx context.Context, member MemberAPI, accountID, handshakeID string) error {
	deadline := time.Now().Add(i.pollTimeout)
	ticker := time.NewTicker(i.pollInterval)
	defer ticker.Stop()

	// The first check is immediate; the interval applies between
	// subsequent polls.
	for {
		state, err := i.handshakeState(ctx, member, handshakeID)
		if err != nil {
			return err
		}
		switch state {
		case orgtypes.HandshakeStateAccepted:
			return nil
		case orgtypes.HandshakeStateCanceled, orgtypes.HandshakeStateDeclined, orgtypes.HandshakeStateExpired:
			return errors.Newf("handshake %s for account %s reached state %s; the invitation cannot complete",
				handshakeID, accountID, state)
		}

		if time.Now().After(deadline) {
			return errors.Newf("handshake %s for account %s was not accepted within %s; review the AWS Organizations console",
				handshakeID, accountID, i.pollTimeout)
		}
		i.logger.Info("waiting for handshake acceptance",
			zap.String("account", accountID),
			zap.String("handshake", handshakeID),
			zap.String("state", string(state)))

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "waiting for handshake %s", handshakeID)
		case <-ticker.C:
		}
	}
}

func (i *Inviter) handshakeState(ctx context.Context, member MemberAPI, handshakeID string) (orgtypes.HandshakeState, error) {
	var token *string
	for {
		out, err := member.ListHandshakesForAccount(ctx, &organizations.ListHandshakesForAccountInput{
			Filter:    &orgtypes.HandshakeFilter{ActionType: orgtypes.ActionTypeInviteAccountToOrganization},
			NextToken: token,
		})
		if err != nil {
			return "", errors.Wrapf(err, "listing handshakes while waiting for %s", handshakeID)
		}
		for _, h := range out.Handshakes {
			if aws.ToString(h.Id) == handshakeID {
				return h.State, nil
			}
		}
		token = out.NextToken
		if token == nil {
			return "", errors.Newf("handshake %s disappeared while waiting for acceptance", handshakeID)
		}
	}
}

// cancel best-effort cancels a known handshake. The original protocol
// error must propagate, so cancellation failures are only logged.
func (i *Inviter) cancel(ctx context.Context, accountID, handshakeID string) {
	if _, err := i.client.CancelHandshake(ctx, &organizations.CancelHandshakeInput{
		HandshakeId: aws.String(handshakeID),
	}); err != nil {
		i.logger.Warn("canceling handshake after failed invitation",
			zap.String("account", accountID),
			zap.String("handshake", handshakeID),
			zap.Error(err))
		return
	}
	i.logger.Info("canceled handshake after failed invitation",
		zap.String("account", accountID),
		zap.String("handshake", handshakeID))
}

// cancelOpenHandshakeFor looks up any open invitation for the account
// and cancels it. Used when the invite call itself errors: at most one
// open handshake may exist per account, and leaving one behind would
// block a later retry.
func (i *Inviter) cancelOpenHandshakeFor(ctx context.Context, accountID string) {
	var token *string
	for {
		out, err := i.client.ListHandshakesForOrganization(ctx, &organizations.ListHandshakesForOrganizationInput{
			Filter:    &orgtypes.HandshakeFilter{ActionType: orgtypes.ActionTypeInviteAccountToOrganization},
			NextToken: token,
		})
		if err != nil {
			i.logger.Warn("listing handshakes for cleanup",
				zap.String("account", accountID),
				zap.Error(err))
			return
		}
		for _, h := range out.Handshakes {
			if !handshakeTargets(h, accountID) {
				continue
			}
			if h.State == orgtypes.HandshakeStateOpen || h.State == orgtypes.HandshakeStateRequested {
				i.cancel(ctx, accountID, aws.ToString(h.Id))
				return
			}
		}
		token = out.NextToken
		if token == nil {
			return
		}
	}
}

func handshakeTargets(h orgtypes.Handshake, accountID string) bool {
	for _, p := range h.Parties {
		if p.Type == orgtypes.HandshakePartyTypeAccount && aws.ToString(p.Id) == accountID {
			return true
		}
	}
	return false
}
