// Command jobdigest crawls job sources, scores new postings and delivers a
// quota-limited digest to a chat webhook.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
