package main

import (
	"os"

	"github.com/camelCaseNick/dialect/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
