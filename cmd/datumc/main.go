// datumc is the headless companion to the datum desktop app. It
// evaluates modeling scripts and saved documents, exports meshes and
// reports on geometry without a GUI.
package main

func main() {
	Execute()
}
