package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; variables already set win over it
	_ = godotenv.Load()

	cmd := NewRootCommand(os.Stdin, os.Stdout)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}
