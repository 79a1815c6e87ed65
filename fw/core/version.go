package core

// Version is the forwarder's reported version string, printed by the
// command's --version flag.
const Version = "ccnfwd/0.1.0"
