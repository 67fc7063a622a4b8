package scanner

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/shlex"
)

// Mask replaces secret tokens whenever an Argv is rendered for humans.
const Mask = "********"

var whitespaceRun = regexp.MustCompile(`\s+`)

// Arg is a single command line token. Secret tokens are passed to the
// process unchanged but never rendered by String.
type Arg struct {
	Value  string
	Secret bool
}

// Plain returns a token that may be logged as is.
func Plain(v string) Arg { return Arg{Value: v} }

// Secret returns a token that is masked in every rendering.
func Secret(v string) Arg { return Arg{Value: v, Secret: true} }

func (a Arg) String() string {
	if a.Secret {
		return Mask
	}
	return a.Value
}

// Argv is an ordered argument list that carries its own masking state.
type Argv []Arg

// Strings returns the raw values for handing to the process.
func (a Argv) Strings() []string {
	out := make([]string, len(a))
	for i, arg := range a {
		out[i] = arg.Value
	}
	return out
}

// String renders the argument list with secret tokens masked.
func (a Argv) String() string {
	parts := make([]string, len(a))
	for i, arg := range a {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}

func (a *Argv) add(values ...string) {
	for _, v := range values {
		*a = append(*a, Plain(v))
	}
}

// BuildArgs assembles the lw-scanner command line for opts. htmlPath is the
// file the scanner is told to write its report to.
func BuildArgs(opts ScanOptions, htmlPath string) (Argv, error) {
	absHTML, err := filepath.Abs(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve html report path %s: %w", htmlPath, err)
	}

	var args Argv
	args.add(Binary, "image", "evaluate", opts.ImageName, opts.ImageTag)

	// Credentials already present in the scanner's environment win.
	if !opts.AccountNameOverride {
		args.add("--account-name", opts.AccountName)
	}
	if !opts.AccessTokenOverride {
		args.add("--access-token")
		args = append(args, Secret(opts.AccessToken))
	}

	args.add("--build-id", opts.BuildID)
	args.add("--build-plan", NormalizeBuildPlan(opts.BuildPlan))

	args.add("--html")
	args.add("--html-file", absHTML)

	if opts.FixableOnly {
		args.add("--fixable")
	}
	if opts.NoPull {
		args.add("--no-pull")
	}
	if opts.EvaluatePolicies {
		args.add("--policy")
	}
	if opts.SaveToLacework {
		args.add("--save")
	}
	if opts.ScanLibraryPackages {
		args.add("--scan-library-packages")
	}

	if opts.Tags != "" {
		args.add("--tags", opts.Tags)
	}

	if opts.CustomFlags != "" {
		custom, err := shlex.Split(opts.CustomFlags)
		if err != nil {
			return nil, fmt.Errorf("failed to tokenize custom flags: %w", err)
		}
		args.add(custom...)
	}

	return args, nil
}

// NormalizeBuildPlan strips every whitespace run from a job name.
func NormalizeBuildPlan(plan string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(plan), "")
}
