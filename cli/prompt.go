package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// QuitChoice is the extra entry SelectEvent offers for leaving the loop.
const QuitChoice = "[Quit]"

// PromptConfirm asks a yes/no question. Declining is not an error.
func PromptConfirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
	}

	_, err := prompt.Run()

	return confirmed(err)
}

// confirmed maps the outcome of a confirm prompt: promptui reports "no" as
// ErrAbort.
func confirmed(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	default:
		return false, err
	}
}

// SelectEvent lets the user pick one of events. ok is false when the user
// picked QuitChoice or interrupted the prompt.
func SelectEvent(label string, events []string) (event string, ok bool, err error) {
	items := append([]string{QuitChoice}, events...)

	sel := &promptui.Select{
		Label: label,
		Items: items,
		Searcher: func(input string, index int) bool {
			return index > 0 && input != "" && strings.HasPrefix(items[index], input)
		},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}

	return selection(sel.Run())
}

// selection maps the outcome of the event picker. Index 0 is QuitChoice;
// an interrupted or closed prompt counts as quitting too.
func selection(idx int, value string, err error) (string, bool, error) {
	switch {
	case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return "", false, nil
	case err != nil:
		return "", false, err
	case idx == 0:
		return "", false, nil
	default:
		return value, true, nil
	}
}
