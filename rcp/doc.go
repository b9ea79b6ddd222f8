// The rcp package and its subpackages form the hardware abstraction layer for
// the Nintendo 64.
//
// All hardware capabilities are exposed directly and are in general unsafe to
// use. Applications should be built on the higher level driver packages
// instead.
package rcp

// Reality Coprocessor
// https://ultra64.ca/files/documentation/online-manuals/man/pro-man/pro08/index8.1.html
