package launcher

func defaultCandidates() []string {
	return []string{
		"/Applications/Visual Studio Code.app/Contents/Resources/app/bin/code",
		"/Applications/Visual Studio Code - Insiders.app/Contents/Resources/app/bin/code-insiders",
		"/Applications/VSCodium.app/Contents/Resources/app/bin/codium",
		"/usr/local/bin/code",
		"/opt/homebrew/bin/code",
	}
}
