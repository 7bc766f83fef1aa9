package main

import (
	"github.com/charmbracelet/huh"
	zlog "github.com/rs/zerolog/log"
)

// confirm resolves a persistence confirmation mode.
// "always" and "never" answer without asking; "ask" prompts the operator.
func confirm(mode, title string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}

	answer := true
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&answer).
		Run()
	if err != nil {
		zlog.Warn().Msgf("Confirmation unavailable, assuming no: %v", err)
		return false
	}
	return answer
}
