package main

import "taskdesk/internal/app"

// @title           TaskDesk API
// @version         1.0
// @description     Task lifecycle and rework-history backend.
// @BasePath        /
func main() {
	app.Run()
}
