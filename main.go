package main

import "salonpro-notifier/commands"

func main() {
	commands.Execute()
}
