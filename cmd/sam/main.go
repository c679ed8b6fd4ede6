package main

import (
	"os"

	"github.com/ryanpudd/aws-sam-cli/container/aws/sam"
)

func main() {
	sam.Run(os.Args[1:])
}
