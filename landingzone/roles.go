package landingzone

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Control Tower requires these exact role names in the management account.
const (
	adminRoleName            = "AWSControlTowerAdmin"
	cloudTrailRoleName       = "AWSControlTowerCloudTrailRole"
	configAggregatorRoleName = "AWSControlTowerConfigAggregatorRoleForOrganizations"
	stackSetRoleName         = "AWSControlTowerStackSetRole"

	serviceRolePath  = "/service-role/"
	roleWaitDuration = 2 * time.Minute
)

// RoleAPI is the subset of the IAM client the role provisioner uses.
type RoleAPI interface {
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
	CreateRole(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error)
	PutRolePolicy(ctx context.Context, params *iam.PutRolePolicyInput, optFns ...func(*iam.Options)) (*iam.PutRolePolicyOutput, error)
	AttachRolePolicy(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error)
}

// ServiceRoles creates the four Control Tower service roles. All four
// must be absent before any is created: a pre-existing role is assumed
// to be operator-managed and is never overwritten.
type ServiceRoles struct {
	client      RoleAPI
	logger      *zap.Logger
	partition   string
	waitForRole func(ctx context.Context, name string) error
}

// NewServiceRoles creates a provisioner for the given AWS partition
// (e.g. "aws", "aws-us-gov").
func NewServiceRoles(client RoleAPI, partition string, logger *zap.Logger) *ServiceRoles {
	s := &ServiceRoles{client: client, logger: logger, partition: partition}
	waiter := iam.NewRoleExistsWaiter(client)
	s.waitForRole = func(ctx context.Context, name string) error {
		return waiter.Wait(ctx, &iam.GetRoleInput{RoleName: aws.String(name)}, roleWaitDuration)
	}
	return s
}

type roleSpec struct {
	name             string
	trustService     string
	managedPolicyArn string
	inlinePolicyName string
	inlinePolicy     *policyDocument
}

func (s *ServiceRoles) specs() []roleSpec {
	return []roleSpec{
		{
			name:             adminRoleName,
			trustService:     "controltower.amazonaws.com",
			managedPolicyArn: fmt.Sprintf("arn:%s:iam::aws:policy/service-role/AWSControlTowerServiceRolePolicy", s.partition),
			inlinePolicyName: "AWSControlTowerAdminPolicy",
			inlinePolicy: &policyDocument{
				Version: "2012-10-17",
				Statement: []policyStatement{{
					Effect:   "Allow",
					Action:   []string{"ec2:DescribeAvailabilityZones"},
					Resource: "*",
				}},
			},
		},
		{
			name:             cloudTrailRoleName,
			trustService:     "cloudtrail.amazonaws.com",
			inlinePolicyName: "AWSControlTowerCloudTrailRolePolicy",
			inlinePolicy: &policyDocument{
				Version: "2012-10-17",
				Statement: []policyStatement{{
					Effect:   "Allow",
					Action:   []string{"logs:CreateLogStream", "logs:PutLogEvents"},
					Resource: fmt.Sprintf("arn:%s:logs:*:*:log-group:aws-controltower/CloudTrailLogs:*", s.partition),
				}},
			},
		},
		{
			name:             configAggregatorRoleName,
			trustService:     "config.amazonaws.com",
			managedPolicyArn: fmt.Sprintf("arn:%s:iam::aws:policy/service-role/AWSConfigRoleForOrganizations", s.partition),
		},
		{
			name:             stackSetRoleName,
			trustService:     "cloudformation.amazonaws.com",
			inlinePolicyName: "AWSControlTowerStackSetRolePolicy",
			inlinePolicy: &policyDocument{
				Version: "2012-10-17",
				Statement: []policyStatement{{
					Effect:   "Allow",
					Action:   []string{"sts:AssumeRole"},
					Resource: fmt.Sprintf("arn:%s:iam::*:role/AWSControlTowerExecution", s.partition),
				}},
			},
		},
	}
}

// Create verifies none of the required roles pre-exist, then creates
// each with its trust policy and permissions, waiting for IAM
// propagation before returning.
func (s *ServiceRoles) Create(ctx context.Context) error {
	specs := s.specs()

	var existing []string
	for _, spec := range specs {
		_, err := s.client.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(spec.name)})
		if err == nil {
			existing = append(existing, spec.name)
			continue
		}
		var notFound *iamtypes.NoSuchEntityException
		if !errors.As(err, &notFound) {
			return errors.Wrapf(err, "checking for role %s", spec.name)
		}
	}
	if len(existing) > 0 {
		return errors.Mark(
			errors.Newf("Control Tower service roles already exist: %s; delete them or deploy the landing zone without bootstrapping",
				strings.Join(existing, ", ")),
			ErrPreexisting,
		)
	}

	for _, spec := range specs {
		if err := s.create(ctx, spec); err != nil {
			return err
		}
	}
	return nil
}

func (s *ServiceRoles) create(ctx context.Context, spec roleSpec) error {
	trust, err := json.Marshal(servicePrincipalTrust(spec.trustService))
	if err != nil {
		return errors.Wrapf(err, "marshaling trust policy for %s", spec.name)
	}
	_, err = s.client.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(spec.name),
		Path:                     aws.String(serviceRolePath),
		AssumeRolePolicyDocument: aws.String(string(trust)),
	})
	if err != nil {
		return errors.Wrapf(err, "creating role %s", spec.name)
	}

	if spec.managedPolicyArn != "" {
		_, err = s.client.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
			RoleName:  aws.String(spec.name),
			PolicyArn: aws.String(spec.managedPolicyArn),
		})
		if err != nil {
			return errors.Wrapf(err, "attaching %s to role %s", spec.managedPolicyArn, spec.name)
		}
	}
	if spec.inlinePolicy != nil {
		policy, err := json.Marshal(spec.inlinePolicy)
		if err != nil {
			return errors.Wrapf(err, "marshaling inline policy for %s", spec.name)
		}
		_, err = s.client.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
			RoleName:       aws.String(spec.name),
			PolicyName:     aws.String(spec.inlinePolicyName),
			PolicyDocument: aws.String(string(policy)),
		})
		if err != nil {
			return errors.Wrapf(err, "putting inline policy on role %s", spec.name)
		}
	}

	// IAM is eventually consistent; Control Tower setup fails if it does
	// not observe the role yet.
	if err := s.waitForRole(ctx, spec.name); err != nil {
		return errors.Wrapf(err, "waiting for role %s to propagate", spec.name)
	}
	s.logger.Info("created Control Tower service role", zap.String("role", spec.name))
	return nil
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Sid       string         `json:"Sid,omitempty"`
	Effect    string         `json:"Effect"`
	Principal map[string]any `json:"Principal,omitempty"`
	Action    any            `json:"Action"`
	Resource  any            `json:"Resource,omitempty"`
}

func servicePrincipalTrust(service string) *policyDocument {
	return &policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string]any{"Service": service},
			Action:    "sts:AssumeRole",
		}},
	}
}
