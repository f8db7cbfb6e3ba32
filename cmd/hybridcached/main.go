package main

import "github.com/alfredw/shadcn-ui-mcp-server-sub001/cmd/hybridcached/commands"

func main() {
	commands.Execute()
}
