package launcher

import (
	"os"
	"path/filepath"
)

func defaultCandidates() []string {
	var candidates []string
	if local := os.Getenv("LOCALAPPDATA"); local != "" {
		candidates = append(candidates,
			filepath.Join(local, "Programs", "Microsoft VS Code", "bin", "code.cmd"),
			filepath.Join(local, "Programs", "Microsoft VS Code Insiders", "bin", "code-insiders.cmd"),
			filepath.Join(local, "Programs", "VSCodium", "bin", "codium.cmd"),
		)
	}
	if programs := os.Getenv("ProgramFiles"); programs != "" {
		candidates = append(candidates,
			filepath.Join(programs, "Microsoft VS Code", "bin", "code.cmd"),
		)
	}
	return candidates
}
