// Package catalog holds the static table of Google Cloud endpoints used by
// the provisioning pipeline and the connectivity probe.
//
// The catalog is loaded once at start-up, either from the embedded
// default.yaml or from an operator-supplied override file, and is never
// mutated afterwards. Accessors return copies.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"nathanbeddoewebdev/gcpm/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

const (
	// PlaceholderKey is replaced with the URL-escaped API key.
	PlaceholderKey = "{key}"

	// PlaceholderProject is replaced with the URL-escaped project ID.
	PlaceholderProject = "{project}"
)

var placeholderRe = regexp.MustCompile(`\{[^{}]*\}`)

// Endpoints are the base URLs of the APIs the pipeline calls.
type Endpoints struct {
	ResourceManager string `yaml:"resource_manager" json:"resourceManager"`
	Firebase        string `yaml:"firebase" json:"firebase"`
	ServiceUsage    string `yaml:"service_usage" json:"serviceUsage"`
	Identity        string `yaml:"identity" json:"identity"`
	Firestore       string `yaml:"firestore" json:"firestore"`
	Storage         string `yaml:"storage" json:"storage"`
	Billing         string `yaml:"billing" json:"billing"`
}

// Fields returns the endpoints keyed by their YAML name, in file order.
func (e Endpoints) Fields() [][2]string {
	return [][2]string{
		{"resource_manager", e.ResourceManager},
		{"firebase", e.Firebase},
		{"service_usage", e.ServiceUsage},
		{"identity", e.Identity},
		{"firestore", e.Firestore},
		{"storage", e.Storage},
		{"billing", e.Billing},
	}
}

// file is the on-disk shape of a catalog document.
type file struct {
	Endpoints Endpoints          `yaml:"endpoints"`
	Checks    []domain.CheckSpec `yaml:"checks"`
}

// Catalog is an immutable endpoint table.
type Catalog struct {
	endpoints Endpoints
	checks    []domain.CheckSpec
}

// New builds and validates a catalog.
func New(endpoints Endpoints, checks []domain.CheckSpec) (*Catalog, error) {
	c := &Catalog{
		endpoints: endpoints,
		checks:    append([]domain.CheckSpec(nil), checks...),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

// Load reads a catalog override from path. An empty path returns Default.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse: %w", err)
	}
	return New(f.Endpoints, f.Checks)
}

// Validate checks that every endpoint is an absolute URL and every check
// template only uses known placeholders.
func (c *Catalog) Validate() error {
	var errs []error
	for _, kv := range c.endpoints.Fields() {
		if err := validateURL(kv[1]); err != nil {
			errs = append(errs, fmt.Errorf("endpoint %s: %w", kv[0], err))
		}
	}

	if len(c.checks) == 0 {
		errs = append(errs, errors.New("no connectivity checks defined"))
	}
	seen := make(map[string]bool, len(c.checks))
	for i, check := range c.checks {
		name := strings.TrimSpace(check.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("check %d: name is required", i+1))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("check %q: duplicate name", name))
		}
		seen[name] = true

		for _, ph := range placeholderRe.FindAllString(check.URLTemplate, -1) {
			if ph != PlaceholderKey && ph != PlaceholderProject {
				errs = append(errs, fmt.Errorf("check %q: unknown placeholder %s", name, ph))
			}
		}
		if err := validateURL(placeholderRe.ReplaceAllString(check.URLTemplate, "x")); err != nil {
			errs = append(errs, fmt.Errorf("check %q: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog: invalid: %w", errors.Join(errs...))
	}
	return nil
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

// Endpoints returns the API base URLs.
func (c *Catalog) Endpoints() Endpoints { return c.endpoints }

// Checks returns the connectivity checks in declaration order.
func (c *Catalog) Checks() []domain.CheckSpec {
	return append([]domain.CheckSpec(nil), c.checks...)
}

// ResolveURL substitutes the API key and project ID into a check template.
func ResolveURL(template, apiKey, projectID string) string {
	r := strings.NewReplacer(
		PlaceholderKey, url.QueryEscape(apiKey),
		PlaceholderProject, url.PathEscape(projectID),
	)
	return r.Replace(template)
}
