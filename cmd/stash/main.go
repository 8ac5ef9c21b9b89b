package main

import (
	"os"

	"github.com/spf13/viper"
)

func main() {
	v := viper.New()
	cmd, err := newRootCommand(v, os.Stdout)
	if err != nil {
		reportError(os.Stderr, "", err)
		os.Exit(1)
	}
	if err := cmd.Execute(); err != nil {
		reportError(os.Stderr, v.GetString("log-format"), err)
		os.Exit(1)
	}
}
