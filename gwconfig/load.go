package gwconfig

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Configuration file names within a configuration directory or S3 prefix.
const (
	GlobalConfigFile       = "global-config.yaml"
	AccountsConfigFile     = "accounts-config.yaml"
	OrganizationConfigFile = "organization-config.yaml"
)

// Config bundles the three accelerator configuration documents.
type Config struct {
	Global       GlobalConfig
	Accounts     AccountsConfig
	Organization OrganizationConfig
}

// ObjectGetter fetches configuration objects from S3. *s3.Client satisfies it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Load reads and validates the three configuration files from dir.
func Load(dir string) (*Config, error) {
	return load(func(name string) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", name)
		}
		return data, nil
	})
}

// LoadFromS3 reads and validates the three configuration files from the
// given bucket, under an optional key prefix.
func LoadFromS3(ctx context.Context, client ObjectGetter, bucket, prefix string) (*Config, error) {
	return load(func(name string) ([]byte, error) {
		key := name
		if prefix != "" {
			key = prefix + "/" + name
		}
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, errors.Wrapf(err, "fetching s3://%s/%s", bucket, key)
		}
		defer out.Body.Close()
		data, err := io.ReadAll(out.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "reading s3://%s/%s", bucket, key)
		}
		return data, nil
	})
}

func load(read func(name string) ([]byte, error)) (*Config, error) {
	var cfg Config
	validate := validator.New(validator.WithRequiredStructEnabled())

	parse := func(name string, dst any) error {
		data, err := read(name)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, dst); err != nil {
			return errors.Wrapf(err, "parsing %s", name)
		}
		if err := validate.Struct(dst); err != nil {
			return errors.Wrapf(err, "invalid %s", name)
		}
		return nil
	}

	if err := parse(GlobalConfigFile, &cfg.Global); err != nil {
		return nil, err
	}
	if err := parse(AccountsConfigFile, &cfg.Accounts); err != nil {
		return nil, err
	}
	if err := parse(OrganizationConfigFile, &cfg.Organization); err != nil {
		return nil, err
	}
	return &cfg, nil
}
