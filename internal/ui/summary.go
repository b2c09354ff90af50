// Package ui renders operator-facing output: banners, the run report, and
// the final access summary.
//
// The access summary is the single place the decrypted Administrator
// password is ever shown; it is rendered once to the terminal and must never
// be duplicated into any persisted log.
package ui

import (
	"fmt"
	"strings"

	"github.com/dnedic/dc-deploy/internal/pipeline"
)

// Banner renders a boxed section header, matching the phase banners the
// operator sees between deployment stages.
func Banner(text string) string {
	rule := strings.Repeat("=", 64)
	return bannerStyle.Render(fmt.Sprintf("\n%s\n  %s\n%s\n", rule, text, rule))
}

// RenderReport renders the per-stage outcome table of a run.
func RenderReport(report *pipeline.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Run report"))
	b.WriteString("\n")

	for _, s := range report.Stages() {
		var status string
		switch s.Status {
		case pipeline.StatusSucceeded:
			status = successStyle.Render(string(s.Status))
		case pipeline.StatusFailed:
			status = failedStyle.Render(string(s.Status))
		case pipeline.StatusSkipped:
			status = skippedStyle.Render(string(s.Status))
		default:
			status = dimStyle.Render(string(s.Status))
		}

		line := fmt.Sprintf("  %-20s %s", s.Stage, status)
		if s.Duration > 0 {
			line += dimStyle.Render(fmt.Sprintf("  (%v)", s.Duration))
		}
		if s.Err != nil {
			line += "\n" + failedStyle.Render(fmt.Sprintf("    %v", s.Err))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// AccessInfo is the connection data shown to the operator after a
// successful deployment.
type AccessInfo struct {
	PublicIP      string
	AdminPassword string
}

// RenderAccess renders the final access summary. The password appears here
// exactly once.
func RenderAccess(info AccessInfo) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Access information"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  RDP:   %s:3389\n", info.PublicIP))
	b.WriteString(fmt.Sprintf("  WinRM: http://%s:5985/wsman\n", info.PublicIP))
	b.WriteString(fmt.Sprintf("  IIS:   http://%s\n", info.PublicIP))
	if info.AdminPassword != "" {
		b.WriteString(fmt.Sprintf("  Administrator password: %s\n", info.AdminPassword))
	}
	return b.String()
}
