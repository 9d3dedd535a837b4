package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
)

// Environment passed to extensions, and read by LoadConfig.
const (
	EnvConfig       = "KPT_CONFIG"
	EnvVerbose      = "KPT_VERBOSE"
	EnvLotPolicy    = "KPT_LOT_POLICY"
	EnvBaseCurrency = "KPT_BASE_CURRENCY"
)

// RunExtension attempts to find and execute an external kpt-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
//
// The extension receives the global flags as environment variables.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "kpt-" + subcommand

	lp, err := exec.LookPath(name)
	if err != nil {
		slog.Debug("external command not found in PATH", "command", name, "error", err)
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), extensionEnv()...)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}

// extensionEnv returns the global flags that are set, as environment.
func extensionEnv() []string {
	var env []string
	if *configFile != "" {
		env = append(env, EnvConfig+"="+*configFile)
	}
	if *verbose {
		env = append(env, EnvVerbose+"="+strconv.FormatBool(*verbose))
	}
	return env
}
