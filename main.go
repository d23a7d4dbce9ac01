/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/quicktech-sms/portal/cmd"

func main() {
	cmd.Execute()
}
