// Package wizard provides the interactive manifest editor and the
// live-inventory builder.
package wizard

import (
	"errors"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the operator cancels a prompt.
var ErrAborted = errors.New("wizard aborted")

func askOne(prompt survey.Prompt, response any, opts ...survey.AskOpt) error {
	if err := survey.AskOne(prompt, response, opts...); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return ErrAborted
		}
		return err
	}
	return nil
}

func askText(message, defaultValue string, required bool) (string, error) {
	for {
		var response string
		if err := askOne(&survey.Input{Message: message, Default: defaultValue}, &response); err != nil {
			return "", err
		}
		response = strings.TrimSpace(response)
		if response != "" || !required {
			return response, nil
		}
	}
}

func askOptionalText(message, defaultValue string) (string, error) {
	var response string
	if err := askOne(&survey.Input{Message: message, Default: defaultValue}, &response); err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

func askBool(message string, defaultValue bool) (bool, error) {
	var response bool
	if err := askOne(&survey.Confirm{Message: message, Default: defaultValue}, &response); err != nil {
		return false, err
	}
	return response, nil
}

func askInt(message string, defaultValue int) (int, error) {
	for {
		var response string
		prompt := &survey.Input{Message: message, Default: strconv.Itoa(defaultValue)}
		if err := askOne(prompt, &response); err != nil {
			return 0, err
		}
		value, err := strconv.Atoi(strings.TrimSpace(response))
		if err == nil && value > 0 {
			return value, nil
		}
	}
}

func askCSVList(message string, defaults []string) ([]string, error) {
	response, err := askOptionalText(message, joinCSV(defaults))
	if err != nil {
		return nil, err
	}
	return splitCSV(response), nil
}

func joinCSV(values []string) string {
	return strings.Join(values, ", ")
}

func splitCSV(value string) []string {
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
