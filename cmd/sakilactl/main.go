// Command sakilactl is a terminal client for the Sakila admin API.
package main

func main() {
	Execute()
}
