package main

import (
	"fmt"
	"os"

	"github.com/nsetools/project-scheduler/cmd/cli/auth"
	"github.com/nsetools/project-scheduler/cmd/cli/projects"
	"github.com/nsetools/project-scheduler/cmd/cli/root"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	projects.InitProjects(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
