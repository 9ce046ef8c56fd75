// Command stageql is the command-line front end for the JSON-to-relational
// staging engine: stage a payload into an isolated compartment, query it
// back through the read-only analytic gate, and introspect its shape.
package main

func main() {
	Execute()
}
