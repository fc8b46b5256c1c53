package bpmn

// IsContained reports whether id names a task, event or gateway owned by any of the
// given sub-processes, or a sub-process nested inside one of them, at any depth.
// An empty collection contains nothing.
func IsContained(id string, subProcesses []*SubProcess) bool {
	for _, sp := range subProcesses {
		if sp.Owns(id) {
			return true
		}
		if _, ok := sp.Child(id); ok {
			return true
		}
		if IsContained(id, sp.SubProcesses) {
			return true
		}
	}
	return false
}
