// Package version exposes build metadata injected at link time:
//
//	-X 'github.com/brandloom/brandloom/pkg/version.Version=v1.0.0'
//	-X 'github.com/brandloom/brandloom/pkg/version.CommitHash=abc123'
//	-X 'github.com/brandloom/brandloom/pkg/version.BuildDate=2024-01-01T00:00:00Z'
package version

var (
	Version    = "unknown"
	CommitHash = "unknown"
	// BuildDate is RFC3339.
	BuildDate = "unknown"
)

// Info bundles the build metadata for JSON output.
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildDate  string `json:"build_date"`
}

func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildDate:  BuildDate,
	}
}

func GetVersion() string    { return Version }
func GetCommitHash() string { return CommitHash }
func GetBuildDate() string  { return BuildDate }
