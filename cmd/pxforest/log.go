package main

import (
	"os"

	"github.com/pbanos/pxforest/logging"
)

func (rc *rootCmdConfig) logger() logging.Logger {
	return logging.NewStdLogger(os.Stderr, rc.verbose)
}
