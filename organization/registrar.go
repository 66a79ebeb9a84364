package organization

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/controltower"
	"github.com/aws/aws-sdk-go-v2/service/controltower/document"
	cttypes "github.com/aws/aws-sdk-go-v2/service/controltower/types"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	baselinePollInterval = 2 * time.Minute
	baselinePollTimeout  = 60 * time.Minute

	identityCenterParameterKey = "IdentityCenterEnabledBaselineArn"
)

// BaselineAPI is the subset of the Control Tower client the registrar uses.
type BaselineAPI interface {
	EnableBaseline(ctx context.Context, params *controltower.EnableBaselineInput, optFns ...func(*controltower.Options)) (*controltower.EnableBaselineOutput, error)
	GetBaselineOperation(ctx context.Context, params *controltower.GetBaselineOperationInput, optFns ...func(*controltower.Options)) (*controltower.GetBaselineOperationOutput, error)
}

// Registrar enables the Control Tower baseline on an OU and blocks until
// the asynchronous operation reaches a terminal state. Control Tower
// serializes baseline operations itself, so one OU is registered at a
// time.
type Registrar struct {
	client       BaselineAPI
	logger       *zap.Logger
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewRegistrar creates a Registrar with the production polling cadence
// (every 2 minutes, 60 minute limit).
func NewRegistrar(client BaselineAPI, logger *zap.Logger) *Registrar {
	return &Registrar{
		client:       client,
		logger:       logger,
		pollInterval: baselinePollInterval,
		pollTimeout:  baselinePollTimeout,
	}
}

// Register enables (or, after a FAILED registration, re-enables) the
// AWSControlTowerBaseline on the target OU and polls the operation to
// completion. Registrations whose prior status is any non-FAILED
// terminal value are skipped.
func (r *Registrar) Register(
	ctx context.Context,
	unit *PlannedUnit,
	target UnitKey,
	zone *LandingZone,
	baselines []cttypes.BaselineSummary,
	enabled []cttypes.EnabledBaselineSummary,
) (bool, error) {
	if !unit.NeedsRegistration() {
		r.logger.Debug("organizational unit already registered, skipping",
			zap.String("path", target.Path),
			zap.String("status", string(unit.BaselineStatus)))
		return false, nil
	}
	if unit.RegisteredInCt {
		r.logger.Info("previous baseline registration failed, retrying",
			zap.String("path", target.Path))
	}

	baselineArn, ok := baselineArnByName(baselines, controlTowerBaselineName)
	if !ok {
		return false, errors.Mark(
			errors.Newf("baseline %q is not available in this account; the Control Tower landing zone is misconfigured",
				controlTowerBaselineName),
			ErrConfig,
		)
	}

	input := &controltower.EnableBaselineInput{
		BaselineIdentifier: aws.String(baselineArn),
		BaselineVersion:    aws.String(zone.BaselineVersion()),
		TargetIdentifier:   aws.String(target.Arn),
	}
	if zone.IdentityCenterEnabled {
		idcArn, ok := identityCenterEnabledArn(baselines, enabled)
		if !ok {
			return false, errors.Mark(
				errors.Newf("landing zone %s declares Identity Center access but baseline %q is not enabled; landing zone state is inconsistent",
					zone.Arn, identityCenterBaselineName),
				ErrConfig,
			)
		}
		input.Parameters = []cttypes.EnabledBaselineParameter{{
			Key:   aws.String(identityCenterParameterKey),
			Value: document.NewLazyDocument(idcArn),
		}}
	}

	out, err := r.client.EnableBaseline(ctx, input)
	if err != nil {
		return false, errors.Wrapf(err, "enabling baseline on organizational unit %q", target.Path)
	}

	if err := r.waitForOperation(ctx, target.Path, aws.ToString(out.OperationIdentifier)); err != nil {
		return false, err
	}
	return true, nil
}

// waitForOperation polls GetBaselineOperation until the operation leaves
// IN_PROGRESS. FAILED and timeout abort the whole run: downstream
// correctness depends on the OU being properly baselined.
func (r *Registrar) waitForOperation(ctx context.Context, path, operationID string) error {
	deadline := time.Now().Add(r.pollTimeout)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	// The first check is immediate; the interval applies between
	// subsequent polls.
	for {
		out, err := r.client.GetBaselineOperation(ctx, &controltower.GetBaselineOperationInput{
			OperationIdentifier: aws.String(operationID),
		})
		if err != nil {
			return errors.Wrapf(err, "polling baseline operation %s for organizational unit %q", operationID, path)
		}
		op := out.BaselineOperation
		if op == nil {
			return errors.Newf("baseline operation %s for organizational unit %q returned no operation detail", operationID, path)
		}

		switch op.Status {
		case cttypes.BaselineOperationStatusSucceeded:
			return nil
		case cttypes.BaselineOperationStatusFailed:
			return errors.Newf("baseline registration of organizational unit %q failed: %s; review the AWS Control Tower console",
				path, aws.ToString(op.StatusMessage))
		}

		if time.Now().After(deadline) {
			return errors.Newf("baseline registration of organizational unit %q did not complete within %s; review operation %s in the AWS Control Tower console",
				path, r.pollTimeout, operationID)
		}
		r.logger.Info("baseline registration in progress",
			zap.String("path", path),
			zap.String("operation", operationID))

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "waiting for baseline registration of organizational unit %q", path)
		case <-ticker.C:
		}
	}
}

func baselineArnByName(baselines []cttypes.BaselineSummary, name string) (string, bool) {
	for _, b := range baselines {
		if aws.ToString(b.Name) == name {
			return aws.ToString(b.Arn), true
		}
	}
	return "", false
}

// identityCenterEnabledArn resolves the ARN of the enabled Identity
// Center baseline, which EnableBaseline requires as a parameter when the
// landing zone governs Identity Center access.
func identityCenterEnabledArn(baselines []cttypes.BaselineSummary, enabled []cttypes.EnabledBaselineSummary) (string, bool) {
	idcBaseline, ok := baselineArnByName(baselines, identityCenterBaselineName)
	if !ok {
		return "", false
	}
	for _, e := range enabled {
		if aws.ToString(e.BaselineIdentifier) == idcBaseline {
			return aws.ToString(e.Arn), true
		}
	}
	return "", false
}
