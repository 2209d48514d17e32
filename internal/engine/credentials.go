package engine

import (
	"errors"
	"regexp"

	"rpc-pool-go/internal/config"
)

// placeholderPattern matches ${NAME} and ${NAME:-default}.
// Group 1: name, group 2: ":-default" marker, group 3: default value.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// CredentialResolver substitutes credential placeholders in URI templates.
type CredentialResolver struct {
	creds config.Credentials
}

// NewCredentialResolver binds a resolver to a startup credential snapshot.
func NewCredentialResolver(creds config.Credentials) *CredentialResolver {
	return &CredentialResolver{creds: creds}
}

// Resolve returns template with every placeholder replaced. It fails closed
// with a *MissingCredentialError on the first placeholder that has neither a
// value nor a default.
func (r *CredentialResolver) Resolve(template string) (string, error) {
	var firstErr error

	resolved := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		if firstErr != nil {
			return match
		}
		sub := placeholderPattern.FindStringSubmatch(match)
		name := sub[1]
		if value, ok := r.creds.Lookup(name); ok {
			return value
		}
		if sub[2] != "" {
			return sub[3]
		}
		firstErr = &MissingCredentialError{Name: name}
		return match
	})

	if firstErr != nil {
		return "", firstErr
	}
	return resolved, nil
}

// ResolveAll resolves every template, skipping the ones with missing
// credentials. Skipped templates are reported through the returned error,
// which joins one *MissingCredentialError per skipped URI.
func (r *CredentialResolver) ResolveAll(templates []string) ([]string, error) {
	resolved := make([]string, 0, len(templates))
	var errs []error
	for _, tpl := range templates {
		uri, err := r.Resolve(tpl)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		resolved = append(resolved, uri)
	}
	return resolved, errors.Join(errs...)
}
