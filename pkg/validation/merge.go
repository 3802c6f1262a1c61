package validation

// Report combines local and advisory issues. Only local issues decide
// whether the configuration can be saved.
type Report struct {
	Local  []string `json:"local"`
	Remote []string `json:"remote,omitempty"`
	Issues []string `json:"issues"`
}

// Savable reports whether local validation passed
func (r Report) Savable() bool {
	return len(r.Local) == 0
}

// Merge unions local and remote issues, local first, dropping duplicates.
// A nil remote list (advisory skipped or failed) leaves the local outcome as is.
func Merge(local, remote []string) Report {
	merged := make([]string, 0, len(local)+len(remote))
	seen := make(map[string]bool, len(local)+len(remote))
	for _, list := range [][]string{local, remote} {
		for _, issue := range list {
			if seen[issue] {
				continue
			}
			seen[issue] = true
			merged = append(merged, issue)
		}
	}
	return Report{Local: local, Remote: remote, Issues: merged}
}
