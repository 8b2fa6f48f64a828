// Command pta runs the pointer analysis on a program description and prints
// the resulting call graph, or checks it against a golden file.
package main

func main() {
	Execute()
}
