package landingzone

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"go.uber.org/zap"

	"github.com/groundworkhq/groundwork/gwconfig"
)

type fakeAccountClient struct {
	// statesByName scripts the creation states returned per account,
	// consumed in order.
	statesByName map[string][]orgtypes.CreateAccountState
	stateIdx     map[string]int
	failReasons  map[string]orgtypes.CreateAccountFailureReason

	createCalls []organizations.CreateAccountInput
}

func (f *fakeAccountClient) CreateAccount(_ context.Context, params *organizations.CreateAccountInput, _ ...func(*organizations.Options)) (*organizations.CreateAccountOutput, error) {
	f.createCalls = append(f.createCalls, *params)
	return &organizations.CreateAccountOutput{
		CreateAccountStatus: &orgtypes.CreateAccountStatus{
			Id:          aws.String("car-" + aws.ToString(params.AccountName)),
			AccountName: params.AccountName,
			State:       orgtypes.CreateAccountStateInProgress,
		},
	}, nil
}

func (f *fakeAccountClient) DescribeCreateAccountStatus(_ context.Context, params *organizations.DescribeCreateAccountStatusInput, _ ...func(*organizations.Options)) (*organizations.DescribeCreateAccountStatusOutput, error) {
	name := strings.TrimPrefix(aws.ToString(params.CreateAccountRequestId), "car-")
	if f.stateIdx == nil {
		f.stateIdx = make(map[string]int)
	}
	states := f.statesByName[name]
	state := states[len(states)-1]
	if f.stateIdx[name] < len(states) {
		state = states[f.stateIdx[name]]
		f.stateIdx[name]++
	}
	return &organizations.DescribeCreateAccountStatusOutput{
		CreateAccountStatus: &orgtypes.CreateAccountStatus{
			Id:            params.CreateAccountRequestId,
			AccountName:   aws.String(name),
			State:         state,
			FailureReason: f.failReasons[name],
		},
	}, nil
}

func testSharedAccounts(client *fakeAccountClient) *SharedAccounts {
	return &SharedAccounts{
		client:       client,
		logger:       zap.NewNop(),
		accessRole:   gwconfig.DefaultManagementAccountAccessRole,
		pollInterval: time.Millisecond,
	}
}

func sharedAccountsConfig() *gwconfig.AccountsConfig {
	return &gwconfig.AccountsConfig{
		MandatoryAccounts: []gwconfig.AccountConfig{
			{Name: gwconfig.ManagementAccountName, Email: "mgmt@example.com"},
			{Name: gwconfig.LogArchiveAccountName, Email: "logs@example.com"},
			{Name: gwconfig.AuditAccountName, Email: "audit@example.com"},
		},
	}
}

func TestSharedAccountsCreateBoth(t *testing.T) {
	t.Parallel()
	client := &fakeAccountClient{
		statesByName: map[string][]orgtypes.CreateAccountState{
			gwconfig.LogArchiveAccountName: {
				orgtypes.CreateAccountStateInProgress,
				orgtypes.CreateAccountStateSucceeded,
			},
			gwconfig.AuditAccountName: {orgtypes.CreateAccountStateSucceeded},
		},
	}
	shared := testSharedAccounts(client)

	if err := shared.Create(context.Background(), sharedAccountsConfig()); err != nil {
		t.Fatal(err)
	}
	if len(client.createCalls) != 2 {
		t.Fatalf("got %d CreateAccount calls, want 2", len(client.createCalls))
	}
	first := client.createCalls[0]
	if aws.ToString(first.AccountName) != gwconfig.LogArchiveAccountName ||
		aws.ToString(first.Email) != "logs@example.com" ||
		aws.ToString(first.RoleName) != gwconfig.DefaultManagementAccountAccessRole {
		t.Errorf("first creation = %+v", first)
	}
	if client.stateIdx[gwconfig.LogArchiveAccountName] != 2 {
		t.Errorf("polled LogArchive %d times, want 2", client.stateIdx[gwconfig.LogArchiveAccountName])
	}
}

func TestSharedAccountsRequiresBoth(t *testing.T) {
	t.Parallel()
	client := &fakeAccountClient{}
	shared := testSharedAccounts(client)

	cfg := &gwconfig.AccountsConfig{
		MandatoryAccounts: []gwconfig.AccountConfig{
			{Name: gwconfig.ManagementAccountName, Email: "mgmt@example.com"},
			{Name: gwconfig.LogArchiveAccountName, Email: "logs@example.com"},
		},
	}
	err := shared.Create(context.Background(), cfg)
	if err == nil {
		t.Fatal("missing shared account must be rejected")
	}
	want := "accounts-config.yaml file do not have both shared account (LogArchive and Audit) details."
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
	if len(client.createCalls) != 0 {
		t.Error("no account may be created with incomplete configuration")
	}
}

// A failed first account must not stop the second attempt; both outcomes
// are reported together.
func TestSharedAccountsAttemptsAllBeforeReporting(t *testing.T) {
	t.Parallel()
	client := &fakeAccountClient{
		statesByName: map[string][]orgtypes.CreateAccountState{
			gwconfig.LogArchiveAccountName: {orgtypes.CreateAccountStateFailed},
			gwconfig.AuditAccountName:      {orgtypes.CreateAccountStateSucceeded},
		},
		failReasons: map[string]orgtypes.CreateAccountFailureReason{
			gwconfig.LogArchiveAccountName: orgtypes.CreateAccountFailureReasonEmailAlreadyExists,
		},
	}
	shared := testSharedAccounts(client)

	err := shared.Create(context.Background(), sharedAccountsConfig())
	if err == nil {
		t.Fatal("failed creation must be reported")
	}
	if !strings.Contains(err.Error(), gwconfig.LogArchiveAccountName) {
		t.Errorf("error does not name the failed account: %v", err)
	}
	if !strings.Contains(err.Error(), string(orgtypes.CreateAccountFailureReasonEmailAlreadyExists)) {
		t.Errorf("error does not carry the failure reason: %v", err)
	}
	if len(client.createCalls) != 2 {
		t.Errorf("got %d CreateAccount calls, want 2; every account must be attempted", len(client.createCalls))
	}
}
