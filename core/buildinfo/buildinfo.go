package buildinfo

// Set at link time, for example:
//
//	-X 'github.com/m3rciful/expensebot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/expensebot/core/buildinfo.Commit=1f0c2ab'
//	-X 'github.com/m3rciful/expensebot/core/buildinfo.Date=2026-10-01T08:00:00Z'
var (
	// Version is the release tag of the binary.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = "local"
	// Date is the RFC3339 build time.
	Date = ""
)
