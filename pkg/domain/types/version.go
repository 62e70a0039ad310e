package types

// Version is the version of tagship. It is overwritten by -ldflags at build time.
var Version = "dev"
