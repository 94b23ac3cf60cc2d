package homeworkgen

import "log"

// Global verbose flag for generation tracing
var verboseMode bool

// SetVerbose toggles verbose generation logging
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// VerboseLog logs generation progress only when verbose mode is enabled
func VerboseLog(format string, v ...interface{}) {
	if verboseMode {
		log.Printf(format, v...)
	}
}
