package main

import (
	stderrors "errors"
	"os"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/logging"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger := logging.NewLogger(logging.Config{
			Format: logging.HumanFormat,
			Level:  logging.InfoLevel,
		})

		fields := map[string]interface{}{
			"error": err.Error(),
		}
		if hint := errors.Hint(errors.CodeOf(err)); hint != "" {
			fields["hint"] = hint
		}
		logger.Error("Command execution failed", fields)
		os.Exit(exitCode(err))
	}
}

// exitCode maps failures onto shell conventions: 2 for configuration and
// usage problems, 1 for operational errors.
func exitCode(err error) int {
	if errors.HasCode(err, errors.ConfigInvalid) {
		return 2
	}
	var ie *errors.IngestError
	if !stderrors.As(err, &ie) {
		// Flag parsing and unknown-command errors arrive untyped from cobra.
		return 2
	}
	return 1
}
