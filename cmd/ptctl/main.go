// Command ptctl is the operator tool for the PT server.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Errorln(err)
		os.Exit(1)
	}
}
