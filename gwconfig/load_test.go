package gwconfig_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"

	"github.com/groundworkhq/groundwork/gwconfig"
)

const testGlobalYaml = `homeRegion: us-east-1
managementAccountAccessRole: OrgAccess
controlTower:
  enable: true
  landingZone:
    version: "3.3"
    logging:
      loggingBucketRetentionDays: 365
      accessLoggingBucketRetentionDays: 3650
      organizationTrail: true
    security:
      enableIdentityCenterAccess: true
`

const testAccountsYaml = `mandatoryAccounts:
  - name: Management
    email: mgmt@example.com
  - name: LogArchive
    email: logs@example.com
    organizationalUnit: Security
  - name: Audit
    email: audit@example.com
    organizationalUnit: Security
workloadAccounts:
  - name: app1
    email: app1@example.com
    organizationalUnit: Workloads
    accountId: "333333333333"
`

const testOrganizationYaml = `enable: true
organizationalUnits:
  - name: Security
  - name: Infrastructure/Network
  - name: Workloads
`

func writeConfigDir(t *testing.T, globalYaml string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		gwconfig.GlobalConfigFile:       globalYaml,
		gwconfig.AccountsConfigFile:     testAccountsYaml,
		gwconfig.OrganizationConfigFile: testOrganizationYaml,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoad(t *testing.T) {
	t.Parallel()
	cfg, err := gwconfig.Load(writeConfigDir(t, testGlobalYaml))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Global.HomeRegion != "us-east-1" {
		t.Errorf("home region = %q", cfg.Global.HomeRegion)
	}
	if !cfg.Global.ControlTower.Enable || cfg.Global.ControlTower.LandingZone.Version != "3.3" {
		t.Errorf("control tower config = %+v", cfg.Global.ControlTower)
	}
	if !cfg.Global.ControlTower.LandingZone.Security.EnableIdentityCenterAccess {
		t.Error("identity center access not parsed")
	}
	if len(cfg.Accounts.MandatoryAccounts) != 3 || len(cfg.Accounts.WorkloadAccounts) != 1 {
		t.Errorf("accounts = %+v", cfg.Accounts)
	}
	if !cfg.Organization.Enable || len(cfg.Organization.OrganizationalUnits) != 3 {
		t.Errorf("organization = %+v", cfg.Organization)
	}
}

func TestLoadValidatesRequiredFields(t *testing.T) {
	t.Parallel()
	dir := writeConfigDir(t, "managementAccountAccessRole: OrgAccess\n")

	_, err := gwconfig.Load(dir)
	if err == nil {
		t.Fatal("missing homeRegion must fail validation")
	}
	if !strings.Contains(err.Error(), gwconfig.GlobalConfigFile) {
		t.Errorf("error does not name the offending file: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := gwconfig.Load(t.TempDir())
	if err == nil {
		t.Fatal("empty directory must fail")
	}
	if !strings.Contains(err.Error(), gwconfig.GlobalConfigFile) {
		t.Errorf("error does not name the missing file: %v", err)
	}
}

type fakeObjectGetter struct {
	objects map[string]string
	keys    []string
}

func (f *fakeObjectGetter) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Key)
	f.keys = append(f.keys, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.Newf("NoSuchKey: %s", key)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestLoadFromS3(t *testing.T) {
	t.Parallel()
	getter := &fakeObjectGetter{objects: map[string]string{
		"config/" + gwconfig.GlobalConfigFile:       testGlobalYaml,
		"config/" + gwconfig.AccountsConfigFile:     testAccountsYaml,
		"config/" + gwconfig.OrganizationConfigFile: testOrganizationYaml,
	}}

	cfg, err := gwconfig.LoadFromS3(context.Background(), getter, "gw-config", "config")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Global.HomeRegion != "us-east-1" {
		t.Errorf("home region = %q", cfg.Global.HomeRegion)
	}
	if len(getter.keys) != 3 || getter.keys[0] != "config/"+gwconfig.GlobalConfigFile {
		t.Errorf("fetched keys = %v", getter.keys)
	}
}

func TestLoadFromS3WithoutPrefix(t *testing.T) {
	t.Parallel()
	getter := &fakeObjectGetter{objects: map[string]string{
		gwconfig.GlobalConfigFile:       testGlobalYaml,
		gwconfig.AccountsConfigFile:     testAccountsYaml,
		gwconfig.OrganizationConfigFile: testOrganizationYaml,
	}}

	if _, err := gwconfig.LoadFromS3(context.Background(), getter, "gw-config", ""); err != nil {
		t.Fatal(err)
	}
}
