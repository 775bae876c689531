package main

import (
	"log"

	"github.com/thiagokokada/gitui-go/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("gitui-go: %v", err)
	}
}
