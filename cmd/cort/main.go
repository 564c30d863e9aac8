// Package main provides the cort CLI: an interactive recursive-thinking
// chat plus a one-shot ask command.
package main

func main() {
	Execute()
}
