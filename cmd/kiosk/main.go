// Command kiosk runs the voice ordering client in a terminal.
//
// Usage:
//
//	kiosk run      pair with a phone and order by submitting recorded clips
//	kiosk menu     print the menu
//	kiosk health   probe the conversation service
//	kiosk report   print or send the daily sales report
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
