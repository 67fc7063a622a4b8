package scanner

const (
	// Binary is the scanner executable looked up on PATH.
	Binary = "lw-scanner"

	// StylesheetName is the fixed name of the externalized report stylesheet.
	StylesheetName = "laceworkstyles.css"

	// CaptureName is the scratch file holding the scanner's combined output.
	CaptureName = "output"
)

// ScanOptions - parameters for a single lw-scanner image evaluation
type ScanOptions struct {
	// AccountName is ignored when AccountNameOverride is set.
	AccountName string
	// AccessToken is only ever rendered masked. Ignored when AccessTokenOverride is set.
	AccessToken string

	ImageName string
	ImageTag  string

	// CustomFlags is appended last, split shell-style. No other escaping is applied.
	CustomFlags string

	FixableOnly         bool
	NoPull              bool
	EvaluatePolicies    bool
	SaveToLacework      bool
	ScanLibraryPackages bool

	// Tags is a comma separated list handed to --tags verbatim.
	Tags string

	OutputHTMLName string

	BuildID   string
	BuildPlan string

	// AccountNameOverride and AccessTokenOverride report that the scanner will
	// pick the credential up from its own environment (LW_ACCOUNT_NAME,
	// LW_ACCESS_TOKEN), so the explicit flag must not be passed.
	AccountNameOverride bool
	AccessTokenOverride bool
}

// ScanResult - outcome of one pipeline run
type ScanResult struct {
	// ExitCode is the scanner's own exit code, or -1 when the step itself failed.
	ExitCode int
	HTMLPath string
	CSSPath  string
}
