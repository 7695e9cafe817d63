// Package clients provides the HTTP transport client for the eTIMS device
// API. DeviceClient owns one authenticated session per company credential
// set, signs each request over its canonical payload bytes, and classifies
// every outcome into the protocol's typed result shapes.
//
// In simulation mode the client delegates entirely to the in-process
// simulator and performs no network I/O.
package clients
