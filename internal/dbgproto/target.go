package dbgproto

// TargetConfig is the mutable record describing what to launch: the
// executable path, its arguments, and its working directory. It is owned
// by the session engine as one instance per Engine, deliberately never a
// package-level global, and is read by Launch/Run and written by
// SetTarget/SetArgs/CwdSet/Launch.
type TargetConfig struct {
	ExecutablePath string
	HasExecutable  bool
	Arguments      []string
	WorkingDir     string
	HasWorkingDir  bool
}

// SetExecutable records the executable path.
func (t *TargetConfig) SetExecutable(path string) {
	t.ExecutablePath = path
	t.HasExecutable = true
}

// SetArguments replaces the stored target arguments. A nil or empty args
// clears them.
func (t *TargetConfig) SetArguments(args []string) {
	t.Arguments = args
}

// SetWorkingDir records the working directory.
func (t *TargetConfig) SetWorkingDir(path string) {
	t.WorkingDir = path
	t.HasWorkingDir = true
}
