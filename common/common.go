// Package common holds process-wide constants and logger setup shared by
// the cmd tools and long-lived services.
package common

// PackageName identifies this project in metrics and logs.
const PackageName = "etims-bridge"

// Version is set at build time via -ldflags.
var Version = "dev"
