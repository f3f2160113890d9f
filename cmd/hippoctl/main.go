// Command hippoctl runs operator tasks against the store: schema
// migrations, the admin seed and owner index repair.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var Version = "dev"

func main() {
	logrus.SetOutput(os.Stderr)

	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
