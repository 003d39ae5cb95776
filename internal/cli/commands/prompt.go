package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// Prompter asks the user for input
type Prompter interface {
	Password(label string) (string, error)
	Select(label string, items []string, cursor int) (int, error)
	Confirm(label string) (bool, error)
}

// terminalPrompter prompts on the controlling terminal
type terminalPrompter struct{}

func (terminalPrompter) Password(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%s is required in non-interactive mode", label)
	}

	fmt.Fprintf(os.Stderr, "%s: ", label)
	bytePassword, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

func (terminalPrompter) Select(label string, items []string, cursor int) (int, error) {
	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		Size:      10,
		CursorPos: cursor,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return 0, fmt.Errorf("selection cancelled: %w", err)
	}
	return index, nil
}

func (terminalPrompter) Confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	_, err := prompt.Run()
	if errors.Is(err, promptui.ErrAbort) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}
	return true, nil
}
