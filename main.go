package main

import "github.com/vibast-solutions/ms-go-payment-status/cmd"

func main() {
	cmd.Execute()
}
