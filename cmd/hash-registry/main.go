package main

import (
	"github.com/sirupsen/logrus"

	"github.com/code-payments/hash-registry/pkg/grpc/app"
)

func main() {
	if err := app.Run(&hashRegistryApp{}); err != nil {
		logrus.StandardLogger().WithError(err).Fatal("error running hash registry")
	}
}
