// Package tenant maps a request to the physical table of its tenant.
//
// Sources are tried in a fixed order and the first non-blank one wins:
//
//  1. an explicit parameter (query "tenant", "company" or "firma", then the body's "tenant")
//  2. the deployment stage variable "table"
//  3. the first group in the "cognito:groups" identity claim
package tenant

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	StageVariableKey = "table"
	GroupsClaim      = "cognito:groups"

	maxTenantLength = 64
)

// Query parameter names accepted for an explicit tenant, in lookup order.
var tenantParams = []string{"tenant", "company", "firma"}

var (
	ErrMissingTenant = errors.New("tenant could not be resolved")
	ErrInvalidTenant = errors.New("invalid tenant name")
)

// No dots: gorm reads "a.b" as schema.table, so a dotted tenant would not
// address one postgres table.
var tenantPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type Source string

const (
	SourceParameter Source = "parameter"
	SourceStage     Source = "stage"
	SourceClaim     Source = "claim"
)

// Input is the slice of a request the resolver looks at.
type Input struct {
	Query          map[string]string
	BodyTenant     string
	StageVariables map[string]string
	Claims         map[string]string
}

type Resolution struct {
	Tenant string
	Table  string
	Source Source
}

type Resolver struct {
	prefix string
}

func NewResolver(prefix string) *Resolver {
	return &Resolver{prefix: prefix}
}

// Resolve returns the tenant and its table name.
func (r *Resolver) Resolve(in Input) (Resolution, error) {
	tenant, source := pick(in)
	if tenant == "" {
		return Resolution{}, ErrMissingTenant
	}
	if len(tenant) > maxTenantLength || !tenantPattern.MatchString(tenant) {
		return Resolution{}, fmt.Errorf("%w: %q", ErrInvalidTenant, tenant)
	}
	return Resolution{
		Tenant: tenant,
		Table:  r.prefix + tenant,
		Source: source,
	}, nil
}

func pick(in Input) (string, Source) {
	for _, key := range tenantParams {
		if v := strings.TrimSpace(in.Query[key]); v != "" {
			return v, SourceParameter
		}
	}
	if v := strings.TrimSpace(in.BodyTenant); v != "" {
		return v, SourceParameter
	}
	if v := strings.TrimSpace(in.StageVariables[StageVariableKey]); v != "" {
		return v, SourceStage
	}
	if groups := ParseGroups(in.Claims[GroupsClaim]); len(groups) > 0 {
		return groups[0], SourceClaim
	}
	return "", ""
}

// ParseGroups splits a groups claim. API Gateway flattens JSON arrays into
// strings such as "[acme globex]" or "[acme, globex]"; plain "acme,globex"
// is accepted too.
func ParseGroups(claim string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '(', ')', '"':
			return -1
		}
		return r
	}, claim)

	fields := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	return fields
}
