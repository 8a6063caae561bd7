package common

// Version is reported by the health endpoint and the CLI.
const Version = "1.0.0"
