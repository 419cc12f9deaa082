package main

import (
	"covidtree/cea"
	"covidtree/config"
	"covidtree/psa"
	"covidtree/tree"
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess        = 0
	ExitAnalysisFailed = 1 // The model or the PSA could not produce results
	ExitError          = 2 // Configuration or runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var (
		invalidConfig *config.ValidationError
		malformed     *tree.ConstructionError
		invalid       *tree.InvalidParameterError
		cycle         *tree.CycleDetectedError
		tooMany       *psa.TooManyInvalidTrialsError
		domain        *cea.DomainError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &invalidConfig):
		// Checked first: invalid configured parameters wrap analysis errors.
		return ExitError
	case errors.As(err, &malformed), errors.As(err, &invalid), errors.As(err, &cycle),
		errors.As(err, &tooMany), errors.As(err, &domain):
		return ExitAnalysisFailed
	}
	return ExitError
}
