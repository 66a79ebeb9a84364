package landingzone

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ControlTowerKeyAlias is the alias reserved for the landing zone
// encryption key.
const ControlTowerKeyAlias = "alias/aws-controltower/key"

// KeyAPI is the subset of the KMS client the key provisioner uses.
type KeyAPI interface {
	ListAliases(ctx context.Context, params *kms.ListAliasesInput, optFns ...func(*kms.Options)) (*kms.ListAliasesOutput, error)
	CreateKey(ctx context.Context, params *kms.CreateKeyInput, optFns ...func(*kms.Options)) (*kms.CreateKeyOutput, error)
	CreateAlias(ctx context.Context, params *kms.CreateAliasInput, optFns ...func(*kms.Options)) (*kms.CreateAliasOutput, error)
}

// Key provisions the symmetric CMK Control Tower uses to encrypt
// CloudTrail and Config data, bound to the reserved alias.
type Key struct {
	client    KeyAPI
	logger    *zap.Logger
	partition string
	accountID string
}

// NewKey creates a key provisioner for the management account in the
// given partition.
func NewKey(client KeyAPI, partition, accountID string, logger *zap.Logger) *Key {
	return &Key{client: client, logger: logger, partition: partition, accountID: accountID}
}

// Create verifies the reserved alias is unused, creates the CMK with a
// policy granting account-root administration and scoped CloudTrail and
// Config service access, and binds the alias. Returns the key ARN.
func (k *Key) Create(ctx context.Context) (string, error) {
	taken, err := k.aliasExists(ctx)
	if err != nil {
		return "", err
	}
	if taken {
		return "", errors.Mark(
			errors.Newf("KMS alias %s already exists; it is reserved for the Control Tower landing zone key",
				ControlTowerKeyAlias),
			ErrPreexisting,
		)
	}

	policy, err := json.Marshal(k.keyPolicy())
	if err != nil {
		return "", errors.Wrap(err, "marshaling key policy")
	}
	out, err := k.client.CreateKey(ctx, &kms.CreateKeyInput{
		Description: aws.String("Control Tower landing zone encryption key"),
		KeySpec:     kmstypes.KeySpecSymmetricDefault,
		KeyUsage:    kmstypes.KeyUsageTypeEncryptDecrypt,
		Policy:      aws.String(string(policy)),
	})
	if err != nil {
		return "", errors.Wrap(err, "creating Control Tower key")
	}
	keyID := aws.ToString(out.KeyMetadata.KeyId)

	_, err = k.client.CreateAlias(ctx, &kms.CreateAliasInput{
		AliasName:   aws.String(ControlTowerKeyAlias),
		TargetKeyId: aws.String(keyID),
	})
	if err != nil {
		return "", errors.Wrapf(err, "binding alias %s to key %s", ControlTowerKeyAlias, keyID)
	}

	arn := aws.ToString(out.KeyMetadata.Arn)
	k.logger.Info("created Control Tower key",
		zap.String("key", keyID),
		zap.String("alias", ControlTowerKeyAlias))
	return arn, nil
}

func (k *Key) aliasExists(ctx context.Context) (bool, error) {
	var marker *string
	for {
		out, err := k.client.ListAliases(ctx, &kms.ListAliasesInput{Marker: marker})
		if err != nil {
			return false, errors.Wrap(err, "listing KMS aliases")
		}
		for _, alias := range out.Aliases {
			if aws.ToString(alias.AliasName) == ControlTowerKeyAlias {
				return true, nil
			}
		}
		if !out.Truncated {
			return false, nil
		}
		marker = out.NextMarker
	}
}

func (k *Key) keyPolicy() *policyDocument {
	return &policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Sid:       "Allow administration by the account root",
				Effect:    "Allow",
				Principal: map[string]any{"AWS": fmt.Sprintf("arn:%s:iam::%s:root", k.partition, k.accountID)},
				Action:    "kms:*",
				Resource:  "*",
			},
			{
				Sid:    "Allow CloudTrail and Config to use the key",
				Effect: "Allow",
				Principal: map[string]any{
					"Service": []string{"cloudtrail.amazonaws.com", "config.amazonaws.com"},
				},
				Action:   []string{"kms:GenerateDataKey*", "kms:Decrypt", "kms:DescribeKey"},
				Resource: "*",
			},
		},
	}
}
