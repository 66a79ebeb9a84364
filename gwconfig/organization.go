package gwconfig

import "strings"

// OrganizationConfig mirrors organization-config.yaml.
type OrganizationConfig struct {
	Enable              bool                       `yaml:"enable"`
	OrganizationalUnits []OrganizationalUnitConfig `yaml:"organizationalUnits" validate:"dive"`
}

// OrganizationalUnitConfig names one OU by its complete path, e.g.
// "Infrastructure/Network". Ignored OUs exist structurally but are
// excluded from Control Tower registration and account invitation.
type OrganizationalUnitConfig struct {
	Name   string `yaml:"name" validate:"required"`
	Ignore bool   `yaml:"ignore"`
}

// OuRelation is one node of the desired OU hierarchy after flattening.
type OuRelation struct {
	Name         string
	CompletePath string
	ParentPath   string
	Level        int
	Ignore       bool
}

// OuRelations flattens the configured OU paths into a parent-before-child
// ordered list. Intermediate path segments are materialized even when not
// listed explicitly; they are never marked ignore unless listed with the
// flag themselves.
func (c *OrganizationConfig) OuRelations() []OuRelation {
	var relations []OuRelation
	index := make(map[string]int)

	add := func(path string, ignore bool) {
		if i, ok := index[path]; ok {
			if ignore {
				relations[i].Ignore = true
			}
			return
		}
		segments := strings.Split(path, "/")
		rel := OuRelation{
			Name:         segments[len(segments)-1],
			CompletePath: path,
			Level:        len(segments),
			Ignore:       ignore,
		}
		if len(segments) > 1 {
			rel.ParentPath = strings.Join(segments[:len(segments)-1], "/")
		}
		index[path] = len(relations)
		relations = append(relations, rel)
	}

	for _, ou := range c.OrganizationalUnits {
		segments := strings.Split(ou.Name, "/")
		for depth := 1; depth < len(segments); depth++ {
			add(strings.Join(segments[:depth], "/"), false)
		}
		add(ou.Name, ou.Ignore)
	}
	return relations
}
