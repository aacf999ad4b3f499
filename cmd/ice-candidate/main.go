// Command ice-candidate parses ICE candidate attributes and prints them.
//
//	$ ice-candidate 'candidate:373990095 1 udp 41885439 5.148.189.205 63293 typ relay'
//	$ grep -h candidate offer.sdp | ice-candidate --format yaml
package main

import (
	"os"

	"github.com/gortc/icecandidate/internal/cli"
)

func main() {
	if err := cli.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
