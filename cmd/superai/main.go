// Command superai runs the SuperAI supervisor proxy service.
package main

import (
	"os"

	"github.com/xela07ax/superai/cmd/superai/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
