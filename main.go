//	@title			Brandloom API
//	@version		1.0
//	@description	Brandloom resolves media references in brand conversations and fits histories to token budgets
//	@termsOfService	https://github.com/brandloom/brandloom

//	@contact.name	Brandloom Support
//	@contact.url	https://github.com/brandloom/brandloom
//	@contact.email	support@brandloom.dev

//	@license.name	MIT
//	@license.url	https://github.com/brandloom/brandloom/blob/main/LICENSE

//	@BasePath	/api/v0

//	@tag.name			resolution
//	@tag.description	Media reference resolution operations

//	@tag.name			context
//	@tag.description	Context budget and truncation operations

//	@tag.name			Operations
//	@tag.description	Operational endpoints for monitoring and health

package main

import (
	"os"

	"github.com/brandloom/brandloom/cli"
)

func main() {
	cmd := cli.RootCmd()
	if err := cmd.Execute(); err != nil {
		// Exit with error code 1 if command execution fails
		os.Exit(1)
	}
}
