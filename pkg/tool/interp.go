package tool

import (
	"os"
	"os/exec"

	"github.com/astrokit/crpipe/pkg/cerr"
)

// EnvInterpreter names the environment override for the interpreter path.
const EnvInterpreter = "CRPIPE_PYTHON"

// wellKnownInterpreters is the ordered list of install locations probed when
// no explicit override is set.
var wellKnownInterpreters = []string{
	"/usr/local/bin/python3",
	"/opt/homebrew/bin/python3",
	"/opt/local/bin/python3",
	"/usr/bin/python3",
}

// ResolveInterpreter finds the interpreter that runs the tool scripts:
// an explicit environment override first, then the well-known install
// locations, then a search-path lookup. Failure to resolve any interpreter
// is a launch error raised before a process is ever spawned. getenv may be
// nil, in which case os.Getenv is used.
func ResolveInterpreter(getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	if override := getenv(EnvInterpreter); override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", cerr.Newf(cerr.CodeLaunch, "interpreter override %s=%s: %v", EnvInterpreter, override, err)
		}
		return override, nil
	}

	for _, candidate := range wellKnownInterpreters {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	for _, name := range []string{"python3", "python"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", cerr.Newf(cerr.CodeLaunch,
		"no python interpreter found: set %s or install python3 on PATH", EnvInterpreter)
}
