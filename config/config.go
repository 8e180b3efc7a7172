package config

import (
	"fmt"
	"os"
	"regexp"

	yaml "gopkg.in/yaml.v2"
)

// DefaultRef is the git ref every commit is written against when the config
// file does not name one.
const DefaultRef = "refs/heads/main"

// DefaultAuthorEmailPattern synthesizes an email from a bare svn author
// name, since svn commits carry no email of their own.
const DefaultAuthorEmailPattern = "%s@svn.local"

// BranchMapping maps an svn path prefix, such as "branches/release-1.0" or
// "tags/", to a ref prefix. Only cmd/svngraph consults this, to label copy
// edges with a branch name; the translation core's node resolver has no
// concept of branches and never reads it.
type BranchMapping struct {
	Prefix string `yaml:"prefix"`
	Ref    string `yaml:"ref"`
}

// Config holds the things a real import needs beyond what the dump stream
// itself carries: the originating repository's URL (the dump format itself
// only ever carries its UUID, via the UUID header, so there is no separate
// config fallback for that), how to turn a bare svn author into a commit
// identity, and how cmd/svngraph should label branches it discovers from
// copy-from relationships.
type Config struct {
	RepoURL            string          `yaml:"repo_url"`
	DefaultRef         string          `yaml:"default_ref"`
	AuthorEmailPattern string          `yaml:"author_email_pattern"`
	BranchMappings     []BranchMapping `yaml:"branch_mappings"`
}

// Unmarshal parses content as YAML config, applying defaults first so a
// partial or empty file still produces a usable Config.
func Unmarshal(content []byte) (*Config, error) {
	cfg := &Config{
		DefaultRef:         DefaultRef,
		AuthorEmailPattern: DefaultAuthorEmailPattern,
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v. make sure to use 'single quotes' around strings with special characters (like match patterns)", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile loads and parses a config file.
func LoadConfigFile(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load %v: %v", filename, err)
	}
	cfg, err := LoadConfigString(content)
	if err != nil {
		return nil, fmt.Errorf("failed to load %v: %v", filename, err)
	}
	return cfg, nil
}

// LoadConfigString parses config from an in-memory byte slice.
func LoadConfigString(content []byte) (*Config, error) {
	return Unmarshal(content)
}

func (c *Config) validate() error {
	if c.AuthorEmailPattern == "" {
		c.AuthorEmailPattern = DefaultAuthorEmailPattern
	}
	for _, m := range c.BranchMappings {
		if _, err := regexp.Compile(m.Prefix); err != nil {
			return fmt.Errorf("failed to parse branch mapping prefix '%s' as a regex", m.Prefix)
		}
	}
	return nil
}

// AuthorEmail synthesizes an email address for an svn author name using
// the configured pattern.
func (c *Config) AuthorEmail(author string) string {
	if author == "" {
		author = "unknown"
	}
	return fmt.Sprintf(c.AuthorEmailPattern, author)
}

// RefForPath returns the git ref a path under a copy-from relationship
// belongs to, by matching BranchMappings in order, falling back to
// DefaultRef when nothing matches. Used only by cmd/svngraph.
func (c *Config) RefForPath(path string) string {
	for _, m := range c.BranchMappings {
		re, err := regexp.Compile(m.Prefix)
		if err != nil {
			continue
		}
		if re.MatchString(path) {
			return m.Ref
		}
	}
	return c.DefaultRef
}
