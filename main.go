package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"laptudirm.com/x/ladder/internal/ladder/cmd"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		PadLevelText:     true,
	})
	logrus.SetLevel(logrus.InfoLevel)

	if err := ladder(); err != nil {
		logrus.Fatal(err)
	}
}

func ladder() error {
	root := cmd.Root()
	root.SetArgs(os.Args[1:])
	return root.Execute()
}
