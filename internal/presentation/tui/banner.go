package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the startup banner for the interactive chat.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	lines := []string{
		`    ___          __                _      __   __ `,
		`   / _ \___ ____/ /____    _____  (_)__ _/ /  / /_`,
		`  / // / -_) __/  '_/ |/|/ / __/ / / _ ` + "`" + `/ _ \/ __/`,
		` /____/\__/\__/_/\_\|__,__/_/   /_/\_, /_//_/\__/ `,
		`                                  /___/           `,
	}
	colors := []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6"}

	fmt.Println()
	for i, line := range lines {
		fmt.Println(termenv.String(line).Foreground(p.Color(colors[i%len(colors)])))
	}
	fmt.Println(termenv.String("  deckwright " + version).Faint())
	fmt.Println()
}
