// Package terminal executes allow-listed commands with bounded timeouts,
// serving as the command-execution collaborator for the workspace.
package terminal

// defaultDenyList blocks commands that can damage the host even when no
// allow-list is configured.
var defaultDenyList = []string{
	"rm", "rmdir", "dd", "mkfs", "format", "fdisk", "parted",
	"shutdown", "reboot", "halt", "poweroff", "init", "telinit",
}

// Filter decides which commands may run.
//
// Two modes: when AllowList is non-nil only listed commands pass; when
// AllowList is nil, any command passes unless it appears on DenyList.
type Filter struct {
	AllowList []string
	DenyList  []string
}

// NewAllowFilter builds a filter that admits only the given commands.
func NewAllowFilter(commands []string) Filter {
	return Filter{AllowList: commands}
}

// NewDenyFilter builds a filter that admits everything except the given
// commands, defaulting to the built-in deny list.
func NewDenyFilter(commands []string) Filter {
	if commands == nil {
		commands = append([]string(nil), defaultDenyList...)
	}
	return Filter{DenyList: commands}
}

// Allowed reports whether the command may run.
func (f Filter) Allowed(command string) bool {
	if f.AllowList != nil {
		return contains(f.AllowList, command)
	}
	return !contains(f.DenyList, command)
}

// RejectionReason explains why a command was refused.
func (f Filter) RejectionReason(command string) string {
	if f.AllowList != nil && !contains(f.AllowList, command) {
		return "command " + command + " is not on the allow list"
	}
	if contains(f.DenyList, command) {
		return "command " + command + " is on the deny list"
	}
	return "command " + command + " is not allowed"
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
