package gwconfig

// DefaultManagementAccountAccessRole is the role assumed in member
// accounts when no managementAccountAccessRole is configured. It matches
// the role Control Tower provisions in enrolled accounts.
const DefaultManagementAccountAccessRole = "AWSControlTowerExecution"

// GlobalConfig mirrors global-config.yaml.
type GlobalConfig struct {
	HomeRegion                  string             `yaml:"homeRegion" validate:"required"`
	ManagementAccountAccessRole string             `yaml:"managementAccountAccessRole"`
	ControlTower                ControlTowerConfig `yaml:"controlTower"`
}

// ControlTowerConfig holds the Control Tower enablement flag and the
// landing zone settings used during bring-up and baseline registration.
type ControlTowerConfig struct {
	Enable      bool               `yaml:"enable"`
	LandingZone *LandingZoneConfig `yaml:"landingZone"`
}

// LandingZoneConfig mirrors the controlTower.landingZone block.
type LandingZoneConfig struct {
	Version  string                    `yaml:"version" validate:"required"`
	Logging  LandingZoneLoggingConfig  `yaml:"logging"`
	Security LandingZoneSecurityConfig `yaml:"security"`
}

type LandingZoneLoggingConfig struct {
	LoggingBucketRetentionDays       int  `yaml:"loggingBucketRetentionDays"`
	AccessLoggingBucketRetentionDays int  `yaml:"accessLoggingBucketRetentionDays"`
	OrganizationTrail                bool `yaml:"organizationTrail"`
}

type LandingZoneSecurityConfig struct {
	EnableIdentityCenterAccess bool `yaml:"enableIdentityCenterAccess"`
}

// AccessRole returns the configured management account access role,
// falling back to the Control Tower default.
func (c *GlobalConfig) AccessRole() string {
	if c.ManagementAccountAccessRole != "" {
		return c.ManagementAccountAccessRole
	}
	return DefaultManagementAccountAccessRole
}
