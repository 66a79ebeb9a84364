package gwconfig

// Mandatory account names fixed by the Control Tower landing zone.
const (
	ManagementAccountName = "Management"
	LogArchiveAccountName = "LogArchive"
	AuditAccountName      = "Audit"
)

// AccountsConfig mirrors accounts-config.yaml.
type AccountsConfig struct {
	MandatoryAccounts []AccountConfig `yaml:"mandatoryAccounts" validate:"required,dive"`
	WorkloadAccounts  []AccountConfig `yaml:"workloadAccounts" validate:"dive"`
}

// AccountConfig describes one account in the organization. AccountID is
// set only for pre-existing accounts that must be invited into the
// organization rather than created.
type AccountConfig struct {
	Name               string `yaml:"name" validate:"required"`
	Description        string `yaml:"description"`
	Email              string `yaml:"email" validate:"required,email"`
	OrganizationalUnit string `yaml:"organizationalUnit"`
	AccountID          string `yaml:"accountId"`
}

// All returns mandatory accounts followed by workload accounts.
func (c *AccountsConfig) All() []AccountConfig {
	all := make([]AccountConfig, 0, len(c.MandatoryAccounts)+len(c.WorkloadAccounts))
	all = append(all, c.MandatoryAccounts...)
	all = append(all, c.WorkloadAccounts...)
	return all
}

// ManagementAccount returns the mandatory Management account entry.
func (c *AccountsConfig) ManagementAccount() (AccountConfig, bool) {
	for _, acct := range c.MandatoryAccounts {
		if acct.Name == ManagementAccountName {
			return acct, true
		}
	}
	return AccountConfig{}, false
}

// SharedAccounts returns the mandatory accounts other than Management,
// i.e. the LogArchive and Audit accounts the landing zone requires.
func (c *AccountsConfig) SharedAccounts() []AccountConfig {
	var shared []AccountConfig
	for _, acct := range c.MandatoryAccounts {
		if acct.Name != ManagementAccountName {
			shared = append(shared, acct)
		}
	}
	return shared
}

// AccountsForOu returns every configured account targeting the given OU path.
func (c *AccountsConfig) AccountsForOu(path string) []AccountConfig {
	var accts []AccountConfig
	for _, acct := range c.All() {
		if acct.OrganizationalUnit == path {
			accts = append(accts, acct)
		}
	}
	return accts
}

// InviteCandidates returns accounts targeting the given OU path that carry
// an account id, meaning they pre-exist outside the organization and must
// be invited in.
func (c *AccountsConfig) InviteCandidates(path string) []AccountConfig {
	var accts []AccountConfig
	for _, acct := range c.AccountsForOu(path) {
		if acct.AccountID != "" {
			accts = append(accts, acct)
		}
	}
	return accts
}
