package output

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// defaultTermHeight is used when LINES is not set.
const defaultTermHeight = 40

// Show prints a finished listing such as search hits. Listings taller than
// the terminal go through the pager; SHEETMERGE_PAGER=off or a failing
// pager falls back to plain Stdout.
func Show(content string) error {
	if ShouldPage(content) {
		if err := Page(content); err == nil {
			return nil
		}
	}
	_, err := fmt.Fprint(Stdout, content)
	return err
}

// ShouldPage reports whether content is taller than the terminal and a
// pager is allowed.
func ShouldPage(content string) bool {
	if pagerCommand() == nil || !isTerminal() {
		return false
	}
	return strings.Count(content, "\n") > termHeight()
}

// Page pipes content through SHEETMERGE_PAGER, then PAGER, then "less -FRX".
// The command may carry arguments.
func Page(content string) error {
	argv := pagerCommand()
	if argv == nil {
		return fmt.Errorf("paging is turned off")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

func pagerCommand() []string {
	pager := os.Getenv("SHEETMERGE_PAGER")
	if pager == "" {
		pager = os.Getenv("PAGER")
	}
	if pager == "" {
		pager = "less -FRX"
	}
	if pager == "off" || pager == "cat" {
		return nil
	}
	return strings.Fields(pager)
}

func termHeight() int {
	if n, err := strconv.Atoi(os.Getenv("LINES")); err == nil && n > 0 {
		return n
	}
	return defaultTermHeight
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
