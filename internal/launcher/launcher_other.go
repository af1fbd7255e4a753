//go:build !windows && !darwin

package launcher

func defaultCandidates() []string {
	return []string{
		"/usr/bin/code",
		"/usr/local/bin/code",
		"/snap/bin/code",
		"/var/lib/flatpak/exports/bin/com.visualstudio.code",
		"/usr/bin/codium",
	}
}
