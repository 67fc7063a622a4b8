package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	scanerrors "github.com/gounthar/lacework-security-scanner-plugin/internal/errors"
	"github.com/gounthar/lacework-security-scanner-plugin/internal/scanner"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Environment variables read by the build step. LW_ACCOUNT_NAME and
// LW_ACCESS_TOKEN are also read by lw-scanner itself.
const (
	EnvAccountName = "LW_ACCOUNT_NAME"
	EnvAccessToken = "LW_ACCESS_TOKEN"
	EnvBuildID     = "BUILD_ID"
	EnvJobName     = "JOB_NAME"
	EnvBuildRoot   = "LW_BUILD_ROOT"
	EnvWorkspace   = "WORKSPACE"
)

// Keys shared by flags, the config file and the environment.
const (
	KeyAccountName         = "account-name"
	KeyAccessTokenFile     = "access-token-file"
	KeyImageName           = "image-name"
	KeyImageTag            = "image-tag"
	KeyCustomFlags         = "custom-flags"
	KeyFixableOnly         = "fixable"
	KeyNoPull              = "no-pull"
	KeyEvaluatePolicies    = "policy"
	KeySaveToLacework      = "save"
	KeyScanLibraryPackages = "scan-library-packages"
	KeyTags                = "tags"
	KeyOutputHTMLName      = "html-file"
	KeyBuildID             = "build-id"
	KeyBuildPlan           = "build-plan"
	KeyBuildRoot           = "build-root"
	KeyWorkspace           = "workspace"
)

const DefaultOutputHTMLName = "lw-scanner-report.html"

// Config is the fully resolved input of one build step.
type Config struct {
	Options   scanner.ScanOptions
	BuildRoot string
	Workspace string
}

// RegisterFlags adds the evaluate flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyAccountName, "", "Lacework account name (ignored when "+EnvAccountName+" is set)")
	fs.String(KeyAccessTokenFile, "", "file holding the Lacework access token (ignored when "+EnvAccessToken+" is set)")
	fs.String(KeyImageName, "", "name of the image to evaluate")
	fs.String(KeyImageTag, "", "tag of the image to evaluate")
	fs.String(KeyCustomFlags, "", "additional lw-scanner flags, split shell-style")
	fs.Bool(KeyFixableOnly, false, "only report vulnerabilities with a fix")
	fs.Bool(KeyNoPull, false, "do not pull the image before scanning")
	fs.Bool(KeyEvaluatePolicies, false, "evaluate Lacework policies")
	fs.Bool(KeySaveToLacework, false, "save the results to Lacework")
	fs.Bool(KeyScanLibraryPackages, false, "scan library packages")
	fs.String(KeyTags, "", "comma separated tags attached to the scan")
	fs.String(KeyOutputHTMLName, DefaultOutputHTMLName, "name of the HTML report in the workspace")
	fs.String(KeyBuildID, "", "build identifier (default $"+EnvBuildID+")")
	fs.String(KeyBuildPlan, "", "build plan name (default $"+EnvJobName+")")
	fs.String(KeyBuildRoot, "", "directory for scratch and report files (default $"+EnvBuildRoot+")")
	fs.String(KeyWorkspace, "", "directory receiving the final artifacts (default $"+EnvWorkspace+")")
}

// New returns a viper instance bound to fs and the build environment.
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.AllowEmptyEnv(true)
	v.SetConfigType("yaml")

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	for key, env := range map[string]string{
		KeyBuildID:   EnvBuildID,
		KeyBuildPlan: EnvJobName,
		KeyBuildRoot: EnvBuildRoot,
		KeyWorkspace: EnvWorkspace,
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return v, nil
}

// ReadFile merges a YAML config file into v.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// Load resolves the build step configuration. Image name and tag have
// ${VAR} references expanded against the environment. The presence of
// LW_ACCOUNT_NAME or LW_ACCESS_TOKEN, even empty, means the scanner picks the
// credential up itself.
func Load(v *viper.Viper) (*Config, error) {
	_, accountOverride := os.LookupEnv(EnvAccountName)
	_, tokenOverride := os.LookupEnv(EnvAccessToken)

	accountName := v.GetString(KeyAccountName)
	if accountOverride {
		accountName = ""
	}
	accessToken := ""
	if path := v.GetString(KeyAccessTokenFile); path != "" && !tokenOverride {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, scanerrors.NewConfigError("read access token", err)
		}
		accessToken = strings.TrimSpace(string(data))
	}

	cfg := &Config{
		Options: scanner.ScanOptions{
			AccountName:         accountName,
			AccessToken:         accessToken,
			ImageName:           os.ExpandEnv(v.GetString(KeyImageName)),
			ImageTag:            os.ExpandEnv(v.GetString(KeyImageTag)),
			CustomFlags:         v.GetString(KeyCustomFlags),
			FixableOnly:         v.GetBool(KeyFixableOnly),
			NoPull:              v.GetBool(KeyNoPull),
			EvaluatePolicies:    v.GetBool(KeyEvaluatePolicies),
			SaveToLacework:      v.GetBool(KeySaveToLacework),
			ScanLibraryPackages: v.GetBool(KeyScanLibraryPackages),
			Tags:                v.GetString(KeyTags),
			OutputHTMLName:      v.GetString(KeyOutputHTMLName),
			BuildID:             v.GetString(KeyBuildID),
			BuildPlan:           v.GetString(KeyBuildPlan),
			AccountNameOverride: accountOverride,
			AccessTokenOverride: tokenOverride,
		},
		BuildRoot: v.GetString(KeyBuildRoot),
		Workspace: v.GetString(KeyWorkspace),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields the build step itself depends on. Image name
// and tag are left to lw-scanner.
func (c *Config) Validate() error {
	var missing []string
	if c.Options.OutputHTMLName == "" {
		missing = append(missing, KeyOutputHTMLName)
	}
	if c.BuildRoot == "" {
		missing = append(missing, KeyBuildRoot)
	}
	if c.Workspace == "" {
		missing = append(missing, KeyWorkspace)
	}
	if len(missing) > 0 {
		return scanerrors.NewConfigError("load config",
			errors.Newf("missing required settings: %s", strings.Join(missing, ", ")))
	}
	return nil
}
