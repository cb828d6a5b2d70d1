package main

import "os"

// @title careerchat API
// @version 1.0
// @description Conversational career assessment: sessions, answer turns and progress
// @BasePath /
// @securityDefinitions.apikey SessionToken
// @in header
// @name Authorization
func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
