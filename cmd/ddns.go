package main

import (
	"os"

	ddns "github.com/larivierec/cfddns/pkg/cmd"
)

func main() {
	os.Exit(ddns.Execute())
}
