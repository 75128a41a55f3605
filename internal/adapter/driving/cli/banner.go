package cli

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/nawuni/aws-cost-copilot-go/pkg/version"
)

// displayWelcomeBanner prints the startup banner with version info.
func displayWelcomeBanner(versionStr string) {
	banner := `
	  ______              __     ______                 _  __       __
	 / ____/____   _____ / /_   / ____/____   ____     (_)/ /____  / /_
	/ /    / __ \ / ___// __/  / /    / __ \ / __ \   / // // __ \/ __/
	/ /___ / /_/ /(__  )/ /_   / /___ / /_/ // /_/ /  / // // /_/ / /_
	\____/ \____//____/ \__/   \____/ \____// .___/  /_//_/ \____/\__/
	                                       /_/
	`
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(cyan(banner))

	formattedVersion := version.FormatVersion()
	fmt.Println(blue(fmt.Sprintf("AWS Cost Copilot CLI (v%s)", formattedVersion)))
}
