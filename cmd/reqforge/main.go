// Command reqforge turns a development requirement into a tracked work hierarchy.
package main

func main() {
	Execute()
}
