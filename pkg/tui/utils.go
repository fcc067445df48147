package tui

import (
	"os/exec"
	"runtime"

	"addrview/pkg/models"
	"addrview/pkg/utils"
)

func (m model) displayBalance(s models.AddressSummary) string {
	return utils.FormatWei(s.Balance, m.cfg.BalanceDecimals)
}

// openBrowser opens the specified URL in the default browser.
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default: // "linux", "freebsd", "openbsd", "netbsd"
		cmd = "xdg-open"
	}
	args = append(args, url)
	return exec.Command(cmd, args...).Start()
}
