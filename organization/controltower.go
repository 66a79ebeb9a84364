package organization

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/controltower"
	cttypes "github.com/aws/aws-sdk-go-v2/service/controltower/types"
	"github.com/cockroachdb/errors"
)

// Baseline names fixed by the Control Tower control plane.
const (
	controlTowerBaselineName   = "AWSControlTowerBaseline"
	identityCenterBaselineName = "IdentityCenterBaseline"
)

// landing zone version → baseline version, per the Control Tower
// compatibility table. Versions newer than the table use "4.0".
var baselineVersionByLandingZone = map[string]string{
	"2.0": "1.0", "2.1": "1.0", "2.2": "1.0", "2.3": "1.0",
	"2.4": "1.0", "2.5": "1.0", "2.6": "1.0", "2.7": "1.0",
	"2.8": "2.0", "2.9": "2.0",
	"3.0": "3.0", "3.1": "3.0",
}

// ControlTowerLister is the read-only subset of the Control Tower client
// used to snapshot landing zone and baseline state.
type ControlTowerLister interface {
	ListLandingZones(ctx context.Context, params *controltower.ListLandingZonesInput, optFns ...func(*controltower.Options)) (*controltower.ListLandingZonesOutput, error)
	GetLandingZone(ctx context.Context, params *controltower.GetLandingZoneInput, optFns ...func(*controltower.Options)) (*controltower.GetLandingZoneOutput, error)
	ListBaselines(ctx context.Context, params *controltower.ListBaselinesInput, optFns ...func(*controltower.Options)) (*controltower.ListBaselinesOutput, error)
	ListEnabledBaselines(ctx context.Context, params *controltower.ListEnabledBaselinesInput, optFns ...func(*controltower.Options)) (*controltower.ListEnabledBaselinesOutput, error)
}

// LandingZone is the resolved Control Tower landing zone state relevant
// to baseline registration.
type LandingZone struct {
	Arn                   string
	Version               string
	GovernedRegions       []string
	SecurityOuName        string
	IdentityCenterEnabled bool
}

// BaselineVersion returns the baseline version compatible with the
// landing zone version.
func (z *LandingZone) BaselineVersion() string {
	if v, ok := baselineVersionByLandingZone[z.Version]; ok {
		return v
	}
	return "4.0"
}

// ControlTowerReader snapshots Control Tower control-plane state.
type ControlTowerReader struct {
	client ControlTowerLister
}

// NewControlTowerReader creates a reader over the given Control Tower client.
func NewControlTowerReader(client ControlTowerLister) *ControlTowerReader {
	return &ControlTowerReader{client: client}
}

// LandingZone resolves the deployed landing zone, or nil when none exists.
// At most one landing zone can exist per management account; the first
// listed entry is used.
func (r *ControlTowerReader) LandingZone(ctx context.Context) (*LandingZone, error) {
	zones, err := r.client.ListLandingZones(ctx, &controltower.ListLandingZonesInput{})
	if err != nil {
		return nil, errors.Wrap(err, "listing landing zones")
	}
	if len(zones.LandingZones) == 0 {
		return nil, nil
	}
	arn := aws.ToString(zones.LandingZones[0].Arn)

	out, err := r.client.GetLandingZone(ctx, &controltower.GetLandingZoneInput{
		LandingZoneIdentifier: aws.String(arn),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "getting landing zone %s", arn)
	}
	detail := out.LandingZone

	zone := &LandingZone{
		Arn:     arn,
		Version: aws.ToString(detail.Version),
	}
	if detail.Manifest != nil {
		var manifest map[string]any
		if err := detail.Manifest.UnmarshalSmithyDocument(&manifest); err != nil {
			return nil, errors.Wrapf(err, "decoding landing zone manifest for %s", arn)
		}
		zone.GovernedRegions = manifestStrings(manifest, "governedRegions")
		zone.SecurityOuName = manifestString(manifest, "organizationStructure", "security", "name")
		zone.IdentityCenterEnabled = manifestBool(manifest, "accessManagement", "enabled")
	}
	return zone, nil
}

// Baselines lists every baseline available to the account.
func (r *ControlTowerReader) Baselines(ctx context.Context) ([]cttypes.BaselineSummary, error) {
	var baselines []cttypes.BaselineSummary
	var token *string
	for {
		out, err := r.client.ListBaselines(ctx, &controltower.ListBaselinesInput{NextToken: token})
		if err != nil {
			return nil, errors.Wrap(err, "listing baselines")
		}
		baselines = append(baselines, out.Baselines...)
		token = out.NextToken
		if token == nil {
			return baselines, nil
		}
	}
}

// EnabledBaselines lists every currently enabled baseline with its
// target and enablement status.
func (r *ControlTowerReader) EnabledBaselines(ctx context.Context) ([]cttypes.EnabledBaselineSummary, error) {
	var enabled []cttypes.EnabledBaselineSummary
	var token *string
	for {
		out, err := r.client.ListEnabledBaselines(ctx, &controltower.ListEnabledBaselinesInput{NextToken: token})
		if err != nil {
			return nil, errors.Wrap(err, "listing enabled baselines")
		}
		enabled = append(enabled, out.EnabledBaselines...)
		token = out.NextToken
		if token == nil {
			return enabled, nil
		}
	}
}

// manifest navigation helpers. The landing zone manifest arrives as an
// untyped smithy document; missing keys yield zero values.

func manifestValue(m map[string]any, path ...string) any {
	var current any = m
	for _, key := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = node[key]
	}
	return current
}

func manifestString(m map[string]any, path ...string) string {
	s, _ := manifestValue(m, path...).(string)
	return s
}

func manifestBool(m map[string]any, path ...string) bool {
	b, _ := manifestValue(m, path...).(bool)
	return b
}

func manifestStrings(m map[string]any, path ...string) []string {
	items, _ := manifestValue(m, path...).([]any)
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
