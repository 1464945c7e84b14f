package main

import "github.com/frahmantamala/warehouse-management/cmd"

func main() {
	cmd.Execute()
}
