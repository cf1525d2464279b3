package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CheckPythonModule reports whether python can import module. The aeneas
// aligner runs as "python -m aeneas.tools.execute_task", so a python binary
// on PATH is not enough.
func CheckPythonModule(ctx context.Context, python, module, description string) Status {
	python = strings.TrimSpace(python)
	result := Status{
		Name:        module,
		Command:     python,
		Description: description,
	}
	if python == "" {
		result.Detail = "command not configured"
		return result
	}
	if _, err := exec.LookPath(python); err != nil {
		result.Detail = fmt.Sprintf("binary %q not found", python)
		return result
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(checkCtx, python, "-c", "import "+module)
	if output, err := cmd.CombinedOutput(); err != nil {
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = err.Error()
		}
		lines := strings.Split(detail, "\n")
		result.Detail = fmt.Sprintf("module %q not importable: %s", module, lines[len(lines)-1])
		return result
	}
	result.Available = true
	return result
}
